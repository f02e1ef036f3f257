package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/academia-app/academia/core"
	"github.com/academia-app/academia/core/curriculum"
)

type curriculumRepository struct {
	program *programTable
	course  *courseTable
	entry   *entryTable
	prereq  *prereqTable
}

var _ curriculum.Repository = (*curriculumRepository)(nil) // interface compliance check

func NewCurriculumRepository(db *DB) curriculum.Repository {
	return &curriculumRepository{
		program: db.program,
		course:  db.course,
		entry:   db.entry,
		prereq:  db.prereq,
	}
}

func (repo *curriculumRepository) CreateProgram(ctx context.Context, prog curriculum.Program, exec ...core.DBExecutor) (curriculum.Program, error) {
	repo.program.Lock()
	defer repo.program.Unlock()

	repo.program.seq++
	prog.ID = repo.program.seq
	repo.program.table[prog.ID] = &prog
	return prog, nil
}

func (repo *curriculumRepository) QueryPrograms(ctx context.Context, exec ...core.DBExecutor) ([]curriculum.Program, error) {
	repo.program.RLock()
	defer repo.program.RUnlock()

	progs := make([]curriculum.Program, 0, len(repo.program.table))
	for _, p := range repo.program.table {
		progs = append(progs, *p)
	}
	sort.Slice(progs, func(i, j int) bool { return progs[i].ID < progs[j].ID })
	return progs, nil
}

func (repo *curriculumRepository) GetProgramByID(ctx context.Context, id int, exec ...core.DBExecutor) (curriculum.Program, error) {
	repo.program.RLock()
	defer repo.program.RUnlock()

	if prog, ok := repo.program.table[id]; ok {
		return *prog, nil
	}
	return curriculum.Program{}, curriculum.ErrProgramNotFound
}

func (repo *curriculumRepository) CreateCourse(ctx context.Context, crs curriculum.Course, exec ...core.DBExecutor) (curriculum.Course, error) {
	repo.course.Lock()
	defer repo.course.Unlock()

	repo.course.seq++
	crs.ID = repo.course.seq
	repo.course.table[crs.ID] = &crs
	return crs, nil
}

func (repo *curriculumRepository) QueryCourses(ctx context.Context, exec ...core.DBExecutor) ([]curriculum.Course, error) {
	repo.course.RLock()
	defer repo.course.RUnlock()

	courses := make([]curriculum.Course, 0, len(repo.course.table))
	for _, c := range repo.course.table {
		courses = append(courses, *c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, nil
}

func (repo *curriculumRepository) GetCourseByID(ctx context.Context, id int, exec ...core.DBExecutor) (curriculum.Course, error) {
	repo.course.RLock()
	defer repo.course.RUnlock()

	if crs, ok := repo.course.table[id]; ok {
		return *crs, nil
	}
	return curriculum.Course{}, curriculum.ErrCourseNotFound
}

func (repo *curriculumRepository) QueryEntries(ctx context.Context, programID int, activeOnly bool, exec ...core.DBExecutor) ([]curriculum.EntryView, error) {
	repo.entry.RLock()
	repo.course.RLock()
	defer repo.entry.RUnlock()
	defer repo.course.RUnlock()

	views := make([]curriculum.EntryView, 0)
	for key, e := range repo.entry.table {
		if key[0] != programID {
			continue
		}
		if activeOnly && !e.IsActive {
			continue
		}
		view := curriculum.EntryView{Entry: *e}
		if crs, ok := repo.course.table[e.CourseID]; ok {
			view.CourseName = crs.Name
		}
		views = append(views, view)
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].Cycle != views[j].Cycle {
			return views[i].Cycle < views[j].Cycle
		}
		return strings.ToLower(views[i].CourseName) < strings.ToLower(views[j].CourseName)
	})
	return views, nil
}

func (repo *curriculumRepository) UpsertEntry(ctx context.Context, entry curriculum.Entry, exec ...core.DBExecutor) (curriculum.Entry, error) {
	repo.entry.Lock()
	defer repo.entry.Unlock()

	key := [2]int{entry.ProgramID, entry.CourseID}
	if orig, ok := repo.entry.table[key]; ok {
		entry.CreatedAt = orig.CreatedAt
	}
	repo.entry.table[key] = &entry
	return entry, nil
}

func (repo *curriculumRepository) DeleteEntry(ctx context.Context, programID, courseID int, exec ...core.DBExecutor) error {
	repo.entry.Lock()
	defer repo.entry.Unlock()

	key := [2]int{programID, courseID}
	if _, ok := repo.entry.table[key]; !ok {
		return curriculum.ErrEntryNotFound
	}
	delete(repo.entry.table, key)
	return nil
}

func (repo *curriculumRepository) PrerequisiteExists(ctx context.Context, courseID, prereqID int, exec ...core.DBExecutor) (bool, error) {
	repo.prereq.RLock()
	defer repo.prereq.RUnlock()

	_, ok := repo.prereq.table[[2]int{courseID, prereqID}]
	return ok, nil
}

func (repo *curriculumRepository) CreatePrerequisite(ctx context.Context, edge curriculum.Prerequisite, exec ...core.DBExecutor) error {
	repo.prereq.Lock()
	defer repo.prereq.Unlock()

	repo.prereq.table[[2]int{edge.CourseID, edge.PrerequisiteID}] = struct{}{}
	return nil
}

func (repo *curriculumRepository) DeletePrerequisite(ctx context.Context, courseID, prereqID int, exec ...core.DBExecutor) error {
	repo.prereq.Lock()
	defer repo.prereq.Unlock()

	key := [2]int{courseID, prereqID}
	if _, ok := repo.prereq.table[key]; !ok {
		return curriculum.ErrPrerequisiteNotFound
	}
	delete(repo.prereq.table, key)
	return nil
}

func (repo *curriculumRepository) QueryPrerequisites(ctx context.Context, courseIDs []int, exec ...core.DBExecutor) ([]curriculum.Prerequisite, error) {
	repo.prereq.RLock()
	defer repo.prereq.RUnlock()

	wanted := make(map[int]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		wanted[id] = struct{}{}
	}

	edges := make([]curriculum.Prerequisite, 0)
	for key := range repo.prereq.table {
		if _, ok := wanted[key[0]]; ok {
			edges = append(edges, curriculum.Prerequisite{CourseID: key[0], PrerequisiteID: key[1]})
		}
	}
	return edges, nil
}
