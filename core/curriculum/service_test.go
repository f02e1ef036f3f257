package curriculum_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academia-app/academia/core"
	"github.com/academia-app/academia/core/curriculum"
	dummydb "github.com/academia-app/academia/storage/database/dummy"
)

func setup(t *testing.T) curriculum.ServiceInterface {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)
	return curriculum.NewServiceMock(dummydb.NewCurriculumRepository(db))
}

func addCourse(t *testing.T, svc curriculum.ServiceInterface, name string) curriculum.Course {
	t.Helper()
	crs, err := svc.CreateCourse(context.Background(), curriculum.NewCourse{Name: name})
	require.NoError(t, err)
	return crs
}

func TestPrerequisites(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	calc1 := addCourse(t, svc, "Calculus I")
	calc2 := addCourse(t, svc, "Calculus II")

	t.Run("self reference rejected", func(t *testing.T) {
		_, err := svc.AddPrerequisite(ctx, calc1.ID, calc1.ID)
		var vErr *core.ValidationError
		assert.True(t, errors.As(err, &vErr))
	})

	t.Run("unknown course", func(t *testing.T) {
		_, err := svc.AddPrerequisite(ctx, 999, calc1.ID)
		assert.True(t, errors.Is(err, curriculum.ErrCourseNotFound))

		_, err = svc.AddPrerequisite(ctx, calc1.ID, 999)
		assert.True(t, errors.Is(err, curriculum.ErrCourseNotFound))
	})

	t.Run("adding twice is a no-op", func(t *testing.T) {
		_, err := svc.AddPrerequisite(ctx, calc2.ID, calc1.ID)
		require.NoError(t, err)
		_, err = svc.AddPrerequisite(ctx, calc2.ID, calc1.ID)
		require.NoError(t, err)

		prereqs, err := svc.PrerequisitesFor(ctx, []int{calc1.ID, calc2.ID})
		require.NoError(t, err)
		assert.Equal(t, []int{calc1.ID}, prereqs[calc2.ID])
		assert.Empty(t, prereqs[calc1.ID])
	})

	t.Run("removal", func(t *testing.T) {
		require.NoError(t, svc.RemovePrerequisite(ctx, calc2.ID, calc1.ID))

		err := svc.RemovePrerequisite(ctx, calc2.ID, calc1.ID)
		assert.True(t, errors.Is(err, curriculum.ErrPrerequisiteNotFound))
	})

	t.Run("sorted mapping", func(t *testing.T) {
		algebra := addCourse(t, svc, "Algebra")
		for _, pid := range []int{algebra.ID, calc1.ID} {
			_, err := svc.AddPrerequisite(ctx, calc2.ID, pid)
			require.NoError(t, err)
		}

		prereqs, err := svc.PrerequisitesFor(ctx, []int{calc2.ID})
		require.NoError(t, err)
		assert.Equal(t, []int{calc1.ID, algebra.ID}, prereqs[calc2.ID])
	})
}

func TestCurriculumEntries(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	prog, err := svc.CreateProgram(ctx, curriculum.NewProgram{Name: "Systems Engineering"})
	require.NoError(t, err)

	calc1 := addCourse(t, svc, "Calculus I")
	algebra := addCourse(t, svc, "Algebra")
	physics := addCourse(t, svc, "Physics")

	upsert := func(t *testing.T, courseID, cycle int, active *bool) {
		t.Helper()
		_, err := svc.UpsertEntry(ctx, prog.ID, curriculum.UpsertEntry{
			CourseID: courseID,
			Cycle:    cycle,
			IsActive: active,
		})
		require.NoError(t, err)
	}

	t.Run("unknown program or course", func(t *testing.T) {
		_, err := svc.UpsertEntry(ctx, 999, curriculum.UpsertEntry{CourseID: calc1.ID, Cycle: 1})
		assert.True(t, errors.Is(err, curriculum.ErrProgramNotFound))

		_, err = svc.UpsertEntry(ctx, prog.ID, curriculum.UpsertEntry{CourseID: 999, Cycle: 1})
		assert.True(t, errors.Is(err, curriculum.ErrCourseNotFound))
	})

	t.Run("ordered by cycle then name", func(t *testing.T) {
		inactive := false
		upsert(t, calc1.ID, 1, nil)
		upsert(t, algebra.ID, 1, nil)
		upsert(t, physics.ID, 2, &inactive)

		entries, err := svc.Curriculum(ctx, prog.ID, false)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, algebra.ID, entries[0].CourseID)
		assert.Equal(t, calc1.ID, entries[1].CourseID)
		assert.Equal(t, physics.ID, entries[2].CourseID)

		active, err := svc.Curriculum(ctx, prog.ID, true)
		require.NoError(t, err)
		assert.Len(t, active, 2)
	})

	t.Run("upsert overwrites", func(t *testing.T) {
		upsert(t, calc1.ID, 3, nil)

		entries, err := svc.Curriculum(ctx, prog.ID, false)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, calc1.ID, entries[2].CourseID)
		assert.Equal(t, 3, entries[2].Cycle)
	})

	t.Run("removal", func(t *testing.T) {
		require.NoError(t, svc.RemoveEntry(ctx, prog.ID, physics.ID))

		err := svc.RemoveEntry(ctx, prog.ID, physics.ID)
		assert.True(t, errors.Is(err, curriculum.ErrEntryNotFound))
	})
}
