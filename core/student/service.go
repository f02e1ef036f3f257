package student

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/academia-app/academia/core"
	"github.com/academia-app/academia/core/curriculum"
)

var (
	// errors
	ErrStudentNotFound     = errors.New("student not found")
	ErrCourseStateNotFound = errors.New("course state not found")
	ErrNoProgram           = errors.New("student has no program assigned")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, st Student, exec ...core.DBExecutor) (Student, error)
		GetStudentByID(ctx context.Context, id int, exec ...core.DBExecutor) (Student, error)
		GetStudentByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (Student, error)
		UpdateStudent(ctx context.Context, st Student, exec ...core.DBExecutor) (Student, error)

		// GetCourseStates returns every state row of the student,
		// program membership notwithstanding.
		GetCourseStates(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]CourseState, error)
		GetCourseState(ctx context.Context, studentID, courseID int, exec ...core.DBExecutor) (CourseState, error)
		UpsertCourseState(ctx context.Context, cs CourseState, exec ...core.DBExecutor) (CourseState, error)

		QueryGrades(ctx context.Context, studentID, courseID int, exec ...core.DBExecutor) ([]GradeEntry, error)
		UpsertGrade(ctx context.Context, entry GradeEntry, exec ...core.DBExecutor) (GradeEntry, error)
	}

	ServiceInterface interface {
		GetOrCreateByUser(ctx context.Context, userID string) (Student, error)
		GetByID(ctx context.Context, id int) (Student, error)
		AssignProgram(ctx context.Context, studentID, programID int) (Student, error)
		Curriculum(ctx context.Context, st Student) (CurriculumView, error)
		UpsertCourseStatus(ctx context.Context, st Student, courseID int, ucs UpdateCourseState) (CourseState, error)
		SubmitGrade(ctx context.Context, st Student, courseID int, ng NewGrade) (GradeEntry, CourseState, error)
		ListGrades(ctx context.Context, st Student, courseID int) ([]GradeEntry, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		currSvc curriculum.ServiceInterface
		conf    *core.Config
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(db core.DB, repo Repository, currSvc curriculum.ServiceInterface, conf *core.Config) *service {
	return &service{
		db:      db,
		repo:    repo,
		currSvc: currSvc,
		conf:    conf,
	}
}

// NewServiceMock returns a service suitable for tests: no DB handle,
// package-level config.
func NewServiceMock(repo Repository, currSvc curriculum.ServiceInterface) *service {
	return &service{repo: repo, currSvc: currSvc, conf: core.Conf}
}

// GetOrCreateByUser fetches the student record linked to a user account,
// lazily creating one on first contact.
func (svc *service) GetOrCreateByUser(ctx context.Context, userID string) (Student, error) {
	st, err := svc.repo.GetStudentByUserID(ctx, userID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, ErrStudentNotFound) {
		return Student{}, errors.Wrap(err, "getting student")
	}
	st = Student{
		UserID:     null.StringFrom(userID),
		EnrolledAt: time.Now().UTC(),
	}
	return svc.repo.CreateStudent(ctx, st)
}

func (svc *service) GetByID(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *service) AssignProgram(ctx context.Context, studentID, programID int) (Student, error) {
	st, err := svc.repo.GetStudentByID(ctx, studentID)
	if err != nil {
		return Student{}, err
	}
	if _, err = svc.currSvc.GetProgramByID(ctx, programID); err != nil {
		return Student{}, err
	}
	st.ProgramID = null.IntFrom(programID)
	return svc.repo.UpdateStudent(ctx, st)
}

// Curriculum resolves the student's program plan against their course
// states and the prerequisite graph.
//
// A course is locked when it is not yet passed and at least one of its
// direct prerequisites is not passed. Passed courses are never locked,
// and courses without prerequisites are never locked. Prerequisites
// outside the program still count: their standing is read from the
// student's global state map, defaulting to pending.
func (svc *service) Curriculum(ctx context.Context, st Student) (CurriculumView, error) {
	if !st.ProgramID.Valid {
		return CurriculumView{}, ErrNoProgram
	}
	programID := st.ProgramID.Int

	prog, err := svc.currSvc.GetProgramByID(ctx, programID)
	if err != nil {
		return CurriculumView{}, err
	}
	entries, err := svc.currSvc.Curriculum(ctx, programID, true /* activeOnly */)
	if err != nil {
		return CurriculumView{}, err
	}

	states, err := svc.repo.GetCourseStates(ctx, st.ID)
	if err != nil {
		return CurriculumView{}, errors.Wrap(err, "getting course states")
	}
	stateMap := make(map[int]Status, len(states))
	for _, cs := range states {
		stateMap[cs.CourseID] = cs.Status
	}
	statusOf := func(courseID int) Status {
		if status, ok := stateMap[courseID]; ok {
			return status
		}
		return StatusPending
	}

	courseIDs := make([]int, len(entries))
	for i, e := range entries {
		courseIDs[i] = e.CourseID
	}
	prereqMap, err := svc.currSvc.PrerequisitesFor(ctx, courseIDs)
	if err != nil {
		return CurriculumView{}, err
	}

	view := CurriculumView{
		Program: ProgramSummary{ID: prog.ID, Name: prog.Name},
		Courses: make([]CourseView, 0, len(entries)),
	}
	for _, e := range entries {
		status := statusOf(e.CourseID)
		prereqs := prereqMap[e.CourseID]

		pending := make([]int, 0, len(prereqs))
		for _, pid := range prereqs {
			if statusOf(pid) != StatusPassed {
				pending = append(pending, pid)
			}
		}

		view.Courses = append(view.Courses, CourseView{
			CourseID:             e.CourseID,
			CourseName:           e.CourseName,
			Cycle:                e.Cycle,
			Credits:              e.Credits,
			Mandatory:            e.Mandatory,
			Status:               status,
			IsLocked:             status != StatusPassed && len(pending) > 0,
			Prerequisites:        prereqs,
			PendingPrerequisites: pending,
		})
	}
	return view, nil
}

// UpsertCourseStatus overwrites the student's standing in a course with
// the submitted fields. Absent optional fields clear their columns.
func (svc *service) UpsertCourseStatus(ctx context.Context, st Student, courseID int, ucs UpdateCourseState) (CourseState, error) {
	if _, err := svc.currSvc.GetCourseByID(ctx, courseID); err != nil {
		return CourseState{}, err
	}
	cs := CourseState{
		StudentID:  st.ID,
		CourseID:   courseID,
		Status:     ucs.ParsedStatus(),
		PeriodID:   null.IntFromPtr(ucs.PeriodID),
		FinalGrade: null.Float64FromPtr(ucs.FinalGrade),
		UpdatedAt:  time.Now().UTC(),
	}
	return svc.repo.UpsertCourseState(ctx, cs)
}

// SubmitGrade records one grade component, overwriting any previous
// value under the same label, then recomputes the course's derived
// state from all stored components. Concurrent submissions for the same
// course resolve last-write-wins.
func (svc *service) SubmitGrade(ctx context.Context, st Student, courseID int, ng NewGrade) (GradeEntry, CourseState, error) {
	if _, err := svc.currSvc.GetCourseByID(ctx, courseID); err != nil {
		return GradeEntry{}, CourseState{}, err
	}

	entry := GradeEntry{
		StudentID:  st.ID,
		CourseID:   courseID,
		Label:      ng.ParsedLabel(),
		Value:      ng.Value,
		RecordedAt: time.Now().UTC(),
	}
	entry, err := svc.repo.UpsertGrade(ctx, entry)
	if err != nil {
		return GradeEntry{}, CourseState{}, errors.Wrap(err, "upserting grade")
	}

	cs, err := svc.recomputeState(ctx, st.ID, courseID)
	if err != nil {
		return GradeEntry{}, CourseState{}, err
	}
	return entry, cs, nil
}

func (svc *service) ListGrades(ctx context.Context, st Student, courseID int) ([]GradeEntry, error) {
	if _, err := svc.currSvc.GetCourseByID(ctx, courseID); err != nil {
		return nil, err
	}
	return svc.repo.QueryGrades(ctx, st.ID, courseID)
}

// recomputeState derives the course state from the stored grade
// components. The current PeriodID survives the recompute.
func (svc *service) recomputeState(ctx context.Context, studentID, courseID int) (CourseState, error) {
	grades, err := svc.repo.QueryGrades(ctx, studentID, courseID)
	if err != nil {
		return CourseState{}, errors.Wrap(err, "querying grades")
	}

	avg, ok := WeightedAverage(grades)
	if !ok {
		// nothing recognized to aggregate; leave the state untouched
		cs, err := svc.repo.GetCourseState(ctx, studentID, courseID)
		if errors.Is(err, ErrCourseStateNotFound) {
			return CourseState{StudentID: studentID, CourseID: courseID, Status: StatusPending}, nil
		}
		return cs, err
	}

	cs := CourseState{
		StudentID:  studentID,
		CourseID:   courseID,
		Status:     Verdict(avg),
		FinalGrade: null.Float64From(avg),
		UpdatedAt:  time.Now().UTC(),
	}
	if prev, err := svc.repo.GetCourseState(ctx, studentID, courseID); err == nil {
		cs.PeriodID = prev.PeriodID
	} else if !errors.Is(err, ErrCourseStateNotFound) {
		return CourseState{}, errors.Wrap(err, "getting course state")
	}
	return svc.repo.UpsertCourseState(ctx, cs)
}
