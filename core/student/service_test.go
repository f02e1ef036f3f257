package student_test

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academia-app/academia/core/curriculum"
	"github.com/academia-app/academia/core/student"
	dummydb "github.com/academia-app/academia/storage/database/dummy"
)

var validate = validator.New()

type testEnv struct {
	currSvc curriculum.ServiceInterface
	stdSvc  student.ServiceInterface
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)

	currSvc := curriculum.NewServiceMock(dummydb.NewCurriculumRepository(db))
	stdSvc := student.NewServiceMock(dummydb.NewStudentRepository(db), currSvc)
	return &testEnv{currSvc: currSvc, stdSvc: stdSvc}
}

func (env *testEnv) addCourse(t *testing.T, name string) curriculum.Course {
	t.Helper()
	crs, err := env.currSvc.CreateCourse(context.Background(), curriculum.NewCourse{Name: name})
	require.NoError(t, err)
	return crs
}

func (env *testEnv) addEntry(t *testing.T, programID, courseID, cycle int) {
	t.Helper()
	_, err := env.currSvc.UpsertEntry(context.Background(), programID, curriculum.UpsertEntry{
		CourseID:  courseID,
		Cycle:     cycle,
		Mandatory: true,
	})
	require.NoError(t, err)
}

func (env *testEnv) enrolledStudent(t *testing.T, programID int) student.Student {
	t.Helper()
	ctx := context.Background()

	st, err := env.stdSvc.GetOrCreateByUser(ctx, "6f1ffd45-8175-4b2c-bc9f-532ac4ccff20")
	require.NoError(t, err)
	st, err = env.stdSvc.AssignProgram(ctx, st.ID, programID)
	require.NoError(t, err)
	return st
}

func (env *testEnv) setStatus(t *testing.T, st student.Student, courseID int, status string) {
	t.Helper()
	ucs := student.UpdateCourseState{Status: status}
	require.NoError(t, ucs.Validate(validate))
	_, err := env.stdSvc.UpsertCourseStatus(context.Background(), st, courseID, ucs)
	require.NoError(t, err)
}

func TestCurriculumResolution(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	prog, err := env.currSvc.CreateProgram(ctx, curriculum.NewProgram{Name: "Systems Engineering"})
	require.NoError(t, err)

	calc1 := env.addCourse(t, "Calculus I")
	calc2 := env.addCourse(t, "Calculus II")
	algebra := env.addCourse(t, "Algebra")
	env.addEntry(t, prog.ID, calc1.ID, 1)
	env.addEntry(t, prog.ID, calc2.ID, 2)
	env.addEntry(t, prog.ID, algebra.ID, 1)

	_, err = env.currSvc.AddPrerequisite(ctx, calc2.ID, calc1.ID)
	require.NoError(t, err)

	st := env.enrolledStudent(t, prog.ID)

	t.Run("fresh student", func(t *testing.T) {
		view, err := env.stdSvc.Curriculum(ctx, st)
		require.NoError(t, err)

		assert.Equal(t, prog.ID, view.Program.ID)
		require.Len(t, view.Courses, 3)

		// (cycle ASC, name ASC)
		assert.Equal(t, algebra.ID, view.Courses[0].CourseID)
		assert.Equal(t, calc1.ID, view.Courses[1].CourseID)
		assert.Equal(t, calc2.ID, view.Courses[2].CourseID)

		for _, cv := range view.Courses[:2] {
			assert.Equal(t, student.StatusPending, cv.Status)
			assert.False(t, cv.IsLocked)
			assert.Empty(t, cv.PendingPrerequisites)
		}

		locked := view.Courses[2]
		assert.Equal(t, student.StatusPending, locked.Status)
		assert.True(t, locked.IsLocked)
		assert.Equal(t, []int{calc1.ID}, locked.Prerequisites)
		assert.Equal(t, []int{calc1.ID}, locked.PendingPrerequisites)
	})

	t.Run("passing the prerequisite unlocks", func(t *testing.T) {
		env.setStatus(t, st, calc1.ID, "PASSED")

		view, err := env.stdSvc.Curriculum(ctx, st)
		require.NoError(t, err)

		locked := view.Courses[2]
		assert.False(t, locked.IsLocked)
		assert.Empty(t, locked.PendingPrerequisites)
	})

	t.Run("passed course is never locked", func(t *testing.T) {
		env.setStatus(t, st, calc1.ID, "PENDING") // regress the prerequisite
		env.setStatus(t, st, calc2.ID, "PASSED")

		view, err := env.stdSvc.Curriculum(ctx, st)
		require.NoError(t, err)

		passed := view.Courses[2]
		assert.Equal(t, student.StatusPassed, passed.Status)
		assert.False(t, passed.IsLocked)
		assert.Equal(t, []int{calc1.ID}, passed.PendingPrerequisites)
	})

	t.Run("no program assigned", func(t *testing.T) {
		orphan, err := env.stdSvc.GetOrCreateByUser(ctx, "9e107d9d-372b-4ee8-a3f0-29f1b2c4ff11")
		require.NoError(t, err)

		_, err = env.stdSvc.Curriculum(ctx, orphan)
		assert.True(t, errors.Is(err, student.ErrNoProgram))
	})
}

func TestUpsertCourseStatus(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	prog, err := env.currSvc.CreateProgram(ctx, curriculum.NewProgram{Name: "Industrial Engineering"})
	require.NoError(t, err)
	crs := env.addCourse(t, "Statistics")
	env.addEntry(t, prog.ID, crs.ID, 1)
	st := env.enrolledStudent(t, prog.ID)

	t.Run("unknown course", func(t *testing.T) {
		ucs := student.UpdateCourseState{Status: "PASSED"}
		require.NoError(t, ucs.Validate(validate))

		_, err := env.stdSvc.UpsertCourseStatus(ctx, st, 999, ucs)
		assert.True(t, errors.Is(err, curriculum.ErrCourseNotFound))
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		ucs := student.UpdateCourseState{Status: "APPROVED"}
		assert.Error(t, ucs.Validate(validate))
	})

	t.Run("latest write wins", func(t *testing.T) {
		periodID := 20261
		grade := 14.5
		ucs := student.UpdateCourseState{Status: "PASSED", PeriodID: &periodID, FinalGrade: &grade}
		require.NoError(t, ucs.Validate(validate))
		cs, err := env.stdSvc.UpsertCourseStatus(ctx, st, crs.ID, ucs)
		require.NoError(t, err)
		assert.Equal(t, student.StatusPassed, cs.Status)
		assert.Equal(t, 20261, cs.PeriodID.Int)
		assert.Equal(t, 14.5, cs.FinalGrade.Float64)

		// absent optional fields clear their columns
		ucs = student.UpdateCourseState{Status: "IN_PROGRESS"}
		require.NoError(t, ucs.Validate(validate))
		cs, err = env.stdSvc.UpsertCourseStatus(ctx, st, crs.ID, ucs)
		require.NoError(t, err)
		assert.Equal(t, student.StatusInProgress, cs.Status)
		assert.False(t, cs.PeriodID.Valid)
		assert.False(t, cs.FinalGrade.Valid)

		view, err := env.stdSvc.Curriculum(ctx, st)
		require.NoError(t, err)
		require.Len(t, view.Courses, 1)
		assert.Equal(t, student.StatusInProgress, view.Courses[0].Status)
	})
}

func TestSubmitGrade(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	prog, err := env.currSvc.CreateProgram(ctx, curriculum.NewProgram{Name: "Computer Science"})
	require.NoError(t, err)
	crs := env.addCourse(t, "Data Structures")
	env.addEntry(t, prog.ID, crs.ID, 1)
	st := env.enrolledStudent(t, prog.ID)

	submit := func(t *testing.T, label string, value float64) student.CourseState {
		t.Helper()
		ng := student.NewGrade{Label: label, Value: value}
		require.NoError(t, ng.Validate(validate))
		_, cs, err := env.stdSvc.SubmitGrade(ctx, st, crs.ID, ng)
		require.NoError(t, err)
		return cs
	}

	t.Run("unrecognized label rejected", func(t *testing.T) {
		ng := student.NewGrade{Label: "PC5", Value: 12}
		assert.Error(t, ng.Validate(validate))
	})

	t.Run("state derives from the weighted average", func(t *testing.T) {
		cs := submit(t, "PC1", 12)
		assert.Equal(t, student.StatusPassed, cs.Status)
		assert.Equal(t, 12.0, cs.FinalGrade.Float64)

		cs = submit(t, "PC2", 14)
		assert.Equal(t, student.StatusPassed, cs.Status)
		assert.Equal(t, 13.0, cs.FinalGrade.Float64)
	})

	t.Run("resubmitting a label overwrites", func(t *testing.T) {
		cs := submit(t, "PC2", 2)
		assert.Equal(t, student.StatusFailed, cs.Status)
		assert.Equal(t, 7.0, cs.FinalGrade.Float64)

		grades, err := env.stdSvc.ListGrades(ctx, st, crs.ID)
		require.NoError(t, err)
		assert.Len(t, grades, 2)
	})

	t.Run("recompute preserves the period", func(t *testing.T) {
		periodID := 20262
		grade := 0.0
		ucs := student.UpdateCourseState{Status: "IN_PROGRESS", PeriodID: &periodID, FinalGrade: &grade}
		require.NoError(t, ucs.Validate(validate))
		_, err := env.stdSvc.UpsertCourseStatus(ctx, st, crs.ID, ucs)
		require.NoError(t, err)

		cs := submit(t, "FINAL", 8)
		// (12*0.15 + 2*0.15 + 8*0.20) / 0.50 = 7.4
		assert.Equal(t, student.StatusFailed, cs.Status)
		assert.Equal(t, 7.4, cs.FinalGrade.Float64)
		assert.Equal(t, 20262, cs.PeriodID.Int)
	})

	t.Run("unknown course", func(t *testing.T) {
		ng := student.NewGrade{Label: "PC1", Value: 12}
		require.NoError(t, ng.Validate(validate))
		_, _, err := env.stdSvc.SubmitGrade(ctx, st, 999, ng)
		assert.True(t, errors.Is(err, curriculum.ErrCourseNotFound))
	})
}

func TestGetOrCreateByUser(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	const uid = "b1946ac9-2e4a-4b7e-9c35-6f1b2c4ff110"
	st1, err := env.stdSvc.GetOrCreateByUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, uid, st1.UserID.String)

	st2, err := env.stdSvc.GetOrCreateByUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, st1.ID, st2.ID)
}

func TestAssignProgram(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	st, err := env.stdSvc.GetOrCreateByUser(ctx, "3c6e0b8a-9c15-4a14-a3f0-29f1b2c4ff22")
	require.NoError(t, err)

	_, err = env.stdSvc.AssignProgram(ctx, st.ID, 999)
	assert.True(t, errors.Is(err, curriculum.ErrProgramNotFound))

	prog, err := env.currSvc.CreateProgram(ctx, curriculum.NewProgram{Name: "Architecture"})
	require.NoError(t, err)
	st, err = env.stdSvc.AssignProgram(ctx, st.ID, prog.ID)
	require.NoError(t, err)
	assert.Equal(t, prog.ID, st.ProgramID.Int)
}
