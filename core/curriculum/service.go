package curriculum

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/academia-app/academia/core"
)

var (
	// errors
	ErrProgramNotFound      = errors.New("program not found")
	ErrCourseNotFound       = errors.New("course not found")
	ErrEntryNotFound        = errors.New("curriculum entry not found")
	ErrPrerequisiteNotFound = errors.New("prerequisite not found")

	errSelfPrerequisite = errors.New("a course cannot be its own prerequisite")
)

type (
	Repository interface {
		CreateProgram(ctx context.Context, prog Program, exec ...core.DBExecutor) (Program, error)
		QueryPrograms(ctx context.Context, exec ...core.DBExecutor) ([]Program, error)
		GetProgramByID(ctx context.Context, id int, exec ...core.DBExecutor) (Program, error)

		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		QueryCourses(ctx context.Context, exec ...core.DBExecutor) ([]Course, error)
		GetCourseByID(ctx context.Context, id int, exec ...core.DBExecutor) (Course, error)

		// QueryEntries returns a program's entries joined with course
		// names, ordered by (cycle ASC, course name ASC).
		QueryEntries(ctx context.Context, programID int, activeOnly bool, exec ...core.DBExecutor) ([]EntryView, error)
		UpsertEntry(ctx context.Context, entry Entry, exec ...core.DBExecutor) (Entry, error)
		DeleteEntry(ctx context.Context, programID, courseID int, exec ...core.DBExecutor) error

		PrerequisiteExists(ctx context.Context, courseID, prereqID int, exec ...core.DBExecutor) (bool, error)
		CreatePrerequisite(ctx context.Context, edge Prerequisite, exec ...core.DBExecutor) error
		DeletePrerequisite(ctx context.Context, courseID, prereqID int, exec ...core.DBExecutor) error
		QueryPrerequisites(ctx context.Context, courseIDs []int, exec ...core.DBExecutor) ([]Prerequisite, error)
	}

	ServiceInterface interface {
		CreateProgram(ctx context.Context, np NewProgram) (Program, error)
		QueryPrograms(ctx context.Context) ([]Program, error)
		GetProgramByID(ctx context.Context, id int) (Program, error)
		CreateCourse(ctx context.Context, nc NewCourse) (Course, error)
		QueryCourses(ctx context.Context) ([]Course, error)
		GetCourseByID(ctx context.Context, id int) (Course, error)
		Curriculum(ctx context.Context, programID int, activeOnly bool) ([]EntryView, error)
		UpsertEntry(ctx context.Context, programID int, ue UpsertEntry) (Entry, error)
		RemoveEntry(ctx context.Context, programID, courseID int) error
		AddPrerequisite(ctx context.Context, courseID, prereqID int) (Prerequisite, error)
		RemovePrerequisite(ctx context.Context, courseID, prereqID int) error
		// PrerequisitesFor maps each course to its direct prerequisite
		// course IDs. Single-hop only; no transitive closure.
		PrerequisitesFor(ctx context.Context, courseIDs []int) (map[int][]int, error)
	}

	service struct {
		db   core.DB
		repo Repository
		conf *core.Config
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(db core.DB, repo Repository, conf *core.Config) *service {
	return &service{
		db:   db,
		repo: repo,
		conf: conf,
	}
}

// NewServiceMock returns a service suitable for tests: no DB handle,
// package-level config.
func NewServiceMock(repo Repository) *service {
	return &service{repo: repo, conf: core.Conf}
}

func (svc *service) CreateProgram(ctx context.Context, np NewProgram) (Program, error) {
	prog := Program{
		Name:      np.Name,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if np.IsActive != nil {
		prog.IsActive = *np.IsActive
	}
	return svc.repo.CreateProgram(ctx, prog)
}

func (svc *service) QueryPrograms(ctx context.Context) ([]Program, error) {
	return svc.repo.QueryPrograms(ctx)
}

func (svc *service) GetProgramByID(ctx context.Context, id int) (Program, error) {
	return svc.repo.GetProgramByID(ctx, id)
}

func (svc *service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	crs := Course{
		Name:        nc.Name,
		Code:        null.NewString(nc.Code, nc.Code != ""),
		Description: null.NewString(nc.Description, nc.Description != ""),
		Credits:     null.IntFromPtr(nc.Credits),
		ColorHex:    null.NewString(nc.ColorHex, nc.ColorHex != ""),
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if nc.IsActive != nil {
		crs.IsActive = *nc.IsActive
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *service) QueryCourses(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryCourses(ctx)
}

func (svc *service) GetCourseByID(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *service) Curriculum(ctx context.Context, programID int, activeOnly bool) ([]EntryView, error) {
	if _, err := svc.repo.GetProgramByID(ctx, programID); err != nil {
		return nil, err
	}
	return svc.repo.QueryEntries(ctx, programID, activeOnly)
}

// UpsertEntry creates or overwrites the (programID, courseID) entry.
func (svc *service) UpsertEntry(ctx context.Context, programID int, ue UpsertEntry) (Entry, error) {
	if _, err := svc.repo.GetProgramByID(ctx, programID); err != nil {
		return Entry{}, err
	}
	if _, err := svc.repo.GetCourseByID(ctx, ue.CourseID); err != nil {
		return Entry{}, err
	}

	now := time.Now().UTC()
	entry := Entry{
		ProgramID: programID,
		CourseID:  ue.CourseID,
		Cycle:     ue.Cycle,
		Credits:   null.IntFromPtr(ue.Credits),
		Mandatory: ue.Mandatory,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ue.IsActive != nil {
		entry.IsActive = *ue.IsActive
	}
	return svc.repo.UpsertEntry(ctx, entry)
}

func (svc *service) RemoveEntry(ctx context.Context, programID, courseID int) error {
	return svc.repo.DeleteEntry(ctx, programID, courseID)
}

// AddPrerequisite records that courseID requires prereqID. Adding an
// existing edge is a no-op success.
func (svc *service) AddPrerequisite(ctx context.Context, courseID, prereqID int) (Prerequisite, error) {
	edge := Prerequisite{CourseID: courseID, PrerequisiteID: prereqID}

	if courseID == prereqID {
		return Prerequisite{}, core.NewValidationError(errSelfPrerequisite,
			core.FieldError{Field: "prerequisite_id", Error: errSelfPrerequisite.Error()})
	}
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return Prerequisite{}, err
	}
	if _, err := svc.repo.GetCourseByID(ctx, prereqID); err != nil {
		return Prerequisite{}, err
	}

	exists, err := svc.repo.PrerequisiteExists(ctx, courseID, prereqID)
	if err != nil {
		return Prerequisite{}, errors.Wrap(err, "checking prerequisite")
	}
	if exists {
		return edge, nil
	}
	if err = svc.repo.CreatePrerequisite(ctx, edge); err != nil {
		return Prerequisite{}, errors.Wrap(err, "creating prerequisite")
	}
	return edge, nil
}

func (svc *service) RemovePrerequisite(ctx context.Context, courseID, prereqID int) error {
	return svc.repo.DeletePrerequisite(ctx, courseID, prereqID)
}

func (svc *service) PrerequisitesFor(ctx context.Context, courseIDs []int) (map[int][]int, error) {
	edges, err := svc.repo.QueryPrerequisites(ctx, courseIDs)
	if err != nil {
		return nil, errors.Wrap(err, "querying prerequisites")
	}

	prereqMap := make(map[int][]int, len(courseIDs))
	for _, edge := range edges {
		prereqMap[edge.CourseID] = append(prereqMap[edge.CourseID], edge.PrerequisiteID)
	}
	for _, ids := range prereqMap {
		sort.Ints(ids)
	}
	return prereqMap, nil
}
