package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/academia-app/academia/apps/api/echo"
	"github.com/academia-app/academia/core/curriculum"
	"github.com/academia-app/academia/core/student"
	"github.com/academia-app/academia/core/user"
)

// studentEnv seeds a program with Algebra (cycle 1) and Calculus
// (cycle 2, requires Algebra) and enrolls a student into it.
type studentEnv struct {
	*testEnv
	token    string
	program  curriculum.Program
	algebra  curriculum.Course
	calculus curriculum.Course
}

func setupStudent(t *testing.T) *studentEnv {
	t.Helper()
	env := setup(t)
	ctx := context.Background()

	hero := createUser(t, env.usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)

	prog := seedProgram(t, env.currSvc, "Systems Engineering")
	algebra := seedCourse(t, env.currSvc, "Algebra")
	calculus := seedCourse(t, env.currSvc, "Calculus")

	for _, ue := range []curriculum.UpsertEntry{
		{CourseID: algebra.ID, Cycle: 1, Mandatory: true},
		{CourseID: calculus.ID, Cycle: 2, Mandatory: true},
	} {
		_, err := env.currSvc.UpsertEntry(ctx, prog.ID, ue)
		require.NoError(t, err)
	}
	_, err := env.currSvc.AddPrerequisite(ctx, calculus.ID, algebra.ID)
	require.NoError(t, err)

	st, err := env.stdSvc.GetOrCreateByUser(ctx, hero.ID)
	require.NoError(t, err)
	_, err = env.stdSvc.AssignProgram(ctx, st.ID, prog.ID)
	require.NoError(t, err)

	return &studentEnv{
		testEnv:  env,
		token:    getToken(t, hero),
		program:  prog,
		algebra:  algebra,
		calculus: calculus,
	}
}

func (env *studentEnv) getCurriculum(t *testing.T) student.CurriculumView {
	t.Helper()
	req, rec := newAuthRequest(http.MethodGet, "/v1/students/me/curriculum", env.token)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view student.CurriculumView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func Test_studentApi_me(t *testing.T) {
	env := setup(t)

	hero := createUser(t, env.usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)
	teacher := createUser(t, env.usrRepo, "Teacher", "teach1", "teacher@test.cd", "", []string{user.RoleTeacher}, true)

	t.Run("student role required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/students/me", getToken(t, teacher))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden)}, rec)
	})

	t.Run("record created on first contact", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/students/me", getToken(t, hero))
		env.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var st student.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
		assert.NotZero(t, st.ID)
		require.True(t, st.UserID.Valid)
		assert.Equal(t, hero.ID, st.UserID.String)

		// same record on subsequent calls
		req, rec = newAuthRequest(http.MethodGet, "/v1/students/me", getToken(t, hero))
		env.server.ServeHTTP(rec, req)
		var again student.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
		assert.Equal(t, st.ID, again.ID)
	})
}

func Test_studentApi_curriculum(t *testing.T) {
	t.Run("no program assigned", func(t *testing.T) {
		env := setup(t)
		hero := createUser(t, env.usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)

		req, rec := newAuthRequest(http.MethodGet, "/v1/students/me/curriculum", getToken(t, hero))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "student has no program assigned"}),
		}, rec)
	})

	t.Run("prerequisite locks and unlocks", func(t *testing.T) {
		env := setupStudent(t)

		view := env.getCurriculum(t)
		assert.Equal(t, env.program.ID, view.Program.ID)
		require.Len(t, view.Courses, 2)

		alg, calc := view.Courses[0], view.Courses[1]
		assert.Equal(t, env.algebra.ID, alg.CourseID)
		assert.Equal(t, student.StatusPending, alg.Status)
		assert.False(t, alg.IsLocked)

		assert.Equal(t, env.calculus.ID, calc.CourseID)
		assert.True(t, calc.IsLocked)
		assert.Equal(t, []int{env.algebra.ID}, calc.PendingPrerequisites)

		// passing Algebra unlocks Calculus
		req, rec := newAuthRequest(http.MethodPut, "/v1/students/me/curriculum/"+itoa(env.algebra.ID)+"/status", env.token,
			marshalObj(t, student.UpdateCourseState{Status: "PASSED"}))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		view = env.getCurriculum(t)
		alg, calc = view.Courses[0], view.Courses[1]
		assert.Equal(t, student.StatusPassed, alg.Status)
		assert.False(t, calc.IsLocked)
		assert.Empty(t, calc.PendingPrerequisites)
	})
}

func Test_studentApi_updateCourseStatus(t *testing.T) {
	env := setupStudent(t)

	statusPath := func(courseID int) string {
		return "/v1/students/me/curriculum/" + itoa(courseID) + "/status"
	}

	t.Run("invalid status rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, statusPath(env.algebra.ID), env.token,
			marshalObj(t, student.UpdateCourseState{Status: "DONE"}))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"status": "invalid status"}),
		}, rec)
	})

	t.Run("unknown course is a 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, statusPath(999), env.token,
			marshalObj(t, student.UpdateCourseState{Status: "IN_PROGRESS"}))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "course not found"}),
		}, rec)
	})

	t.Run("latest write wins", func(t *testing.T) {
		period := 20261
		grade := 14.5
		req, rec := newAuthRequest(http.MethodPut, statusPath(env.algebra.ID), env.token,
			marshalObj(t, student.UpdateCourseState{Status: "PASSED", PeriodID: &period, FinalGrade: &grade}))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var cs student.CourseState
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cs))
		assert.Equal(t, student.StatusPassed, cs.Status)
		require.True(t, cs.FinalGrade.Valid)
		assert.Equal(t, grade, cs.FinalGrade.Float64)

		// a later submission overwrites everything, absent fields clear
		req, rec = newAuthRequest(http.MethodPut, statusPath(env.algebra.ID), env.token,
			marshalObj(t, student.UpdateCourseState{Status: "in_progress"}))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cs))
		assert.Equal(t, student.StatusInProgress, cs.Status)
		assert.False(t, cs.PeriodID.Valid)
		assert.False(t, cs.FinalGrade.Valid)
	})
}

func Test_studentApi_grades(t *testing.T) {
	env := setupStudent(t)

	gradesPath := func(courseID int) string {
		return "/v1/students/me/courses/" + itoa(courseID) + "/grades"
	}
	submit := func(t *testing.T, label string, value float64) echoapi.GradeSubmissionResponse {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, gradesPath(env.algebra.ID), env.token,
			marshalObj(t, student.NewGrade{Label: label, Value: value}))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp echoapi.GradeSubmissionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	t.Run("unrecognized label rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, gradesPath(env.algebra.ID), env.token,
			marshalObj(t, student.NewGrade{Label: "BONUS", Value: 15}))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"label": "unrecognized grade label"}),
		}, rec)
	})

	t.Run("unknown course is a 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, gradesPath(999), env.token,
			marshalObj(t, student.NewGrade{Label: "PC1", Value: 15}))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "course not found"}),
		}, rec)
	})

	t.Run("state derives from submitted components", func(t *testing.T) {
		resp := submit(t, "PC1", 12)
		assert.Equal(t, student.LabelPC1, resp.Grade.Label)
		assert.Equal(t, student.StatusPassed, resp.CourseState.Status)
		require.True(t, resp.CourseState.FinalGrade.Valid)
		assert.Equal(t, 12.0, resp.CourseState.FinalGrade.Float64)

		// full component set: (12+14+10+16)*0.15 + (11+9)*0.2 = 11.8
		submit(t, "PC2", 14)
		submit(t, "PC3", 10)
		submit(t, "PC4", 16)
		submit(t, "MIDTERM", 11)
		resp = submit(t, "FINAL", 9)
		assert.Equal(t, student.StatusPassed, resp.CourseState.Status)
		assert.Equal(t, 11.8, resp.CourseState.FinalGrade.Float64)

		// resubmitting a label overwrites, the average drops below passing
		resp = submit(t, "FINAL", 1)
		assert.Equal(t, student.StatusFailed, resp.CourseState.Status)
		assert.Equal(t, 10.2, resp.CourseState.FinalGrade.Float64)

		// six stored components, not seven
		req, rec := newAuthRequest(http.MethodGet, gradesPath(env.algebra.ID), env.token)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var grades []student.GradeEntry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grades))
		assert.Len(t, grades, 6)
	})
}
