package dummydb

import (
	"context"
	"sort"

	"github.com/academia-app/academia/core"
	"github.com/academia-app/academia/core/student"
)

type studentRepository struct {
	student *studentTable
	state   *stateTable
	grade   *gradeTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{
		student: db.student,
		state:   db.state,
		grade:   db.grade,
	}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, st student.Student, exec ...core.DBExecutor) (student.Student, error) {
	repo.student.Lock()
	defer repo.student.Unlock()

	repo.student.seq++
	st.ID = repo.student.seq
	repo.student.table[st.ID] = &st
	return st, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id int, exec ...core.DBExecutor) (student.Student, error) {
	repo.student.RLock()
	defer repo.student.RUnlock()

	if st, ok := repo.student.table[id]; ok {
		return *st, nil
	}
	return student.Student{}, student.ErrStudentNotFound
}

func (repo *studentRepository) GetStudentByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (student.Student, error) {
	repo.student.RLock()
	defer repo.student.RUnlock()

	for _, st := range repo.student.table {
		if st.UserID.Valid && st.UserID.String == userID {
			return *st, nil
		}
	}
	return student.Student{}, student.ErrStudentNotFound
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, st student.Student, exec ...core.DBExecutor) (student.Student, error) {
	repo.student.Lock()
	defer repo.student.Unlock()

	if _, ok := repo.student.table[st.ID]; !ok {
		return student.Student{}, student.ErrStudentNotFound
	}
	repo.student.table[st.ID] = &st
	return st, nil
}

func (repo *studentRepository) GetCourseStates(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]student.CourseState, error) {
	repo.state.RLock()
	defer repo.state.RUnlock()

	states := make([]student.CourseState, 0)
	for key, cs := range repo.state.table {
		if key[0] == studentID {
			states = append(states, *cs)
		}
	}
	sort.Slice(states, func(i, j int) bool { return states[i].CourseID < states[j].CourseID })
	return states, nil
}

func (repo *studentRepository) GetCourseState(ctx context.Context, studentID, courseID int, exec ...core.DBExecutor) (student.CourseState, error) {
	repo.state.RLock()
	defer repo.state.RUnlock()

	if cs, ok := repo.state.table[[2]int{studentID, courseID}]; ok {
		return *cs, nil
	}
	return student.CourseState{}, student.ErrCourseStateNotFound
}

func (repo *studentRepository) UpsertCourseState(ctx context.Context, cs student.CourseState, exec ...core.DBExecutor) (student.CourseState, error) {
	repo.state.Lock()
	defer repo.state.Unlock()

	repo.state.table[[2]int{cs.StudentID, cs.CourseID}] = &cs
	return cs, nil
}

func (repo *studentRepository) QueryGrades(ctx context.Context, studentID, courseID int, exec ...core.DBExecutor) ([]student.GradeEntry, error) {
	repo.grade.RLock()
	defer repo.grade.RUnlock()

	grades := make([]student.GradeEntry, 0)
	for _, g := range repo.grade.table {
		if g.StudentID == studentID && g.CourseID == courseID {
			grades = append(grades, *g)
		}
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].ID < grades[j].ID })
	return grades, nil
}

func (repo *studentRepository) UpsertGrade(ctx context.Context, entry student.GradeEntry, exec ...core.DBExecutor) (student.GradeEntry, error) {
	repo.grade.Lock()
	defer repo.grade.Unlock()

	for _, g := range repo.grade.table {
		if g.StudentID == entry.StudentID && g.CourseID == entry.CourseID && g.Label == entry.Label {
			entry.ID = g.ID
			repo.grade.table[g.ID] = &entry
			return entry, nil
		}
	}
	repo.grade.seq++
	entry.ID = repo.grade.seq
	repo.grade.table[entry.ID] = &entry
	return entry, nil
}
