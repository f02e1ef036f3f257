package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/academia-app/academia/core"
	"github.com/academia-app/academia/core/curriculum"
)

type curriculumRepository struct {
	db *sqlx.DB
}

var _ curriculum.Repository = (*curriculumRepository)(nil) // interface compliance check

func NewCurriculumRepository(db *sqlx.DB) curriculum.Repository {
	return &curriculumRepository{db: db}
}

type (
	programRow struct {
		ID        int       `db:"id"`
		Name      string    `db:"name"`
		IsActive  bool      `db:"is_active"`
		CreatedAt null.Time `db:"created_at"`
	}

	courseRow struct {
		ID          int         `db:"id"`
		Name        string      `db:"name"`
		Code        null.String `db:"code"`
		Description null.String `db:"description"`
		Credits     null.Int    `db:"credits"`
		ColorHex    null.String `db:"color_hex"`
		IsActive    bool        `db:"is_active"`
		CreatedAt   null.Time   `db:"created_at"`
	}

	entryRow struct {
		ProgramID  int       `db:"program_id"`
		CourseID   int       `db:"course_id"`
		Cycle      int       `db:"cycle"`
		Credits    null.Int  `db:"credits"`
		Mandatory  bool      `db:"mandatory"`
		IsActive   bool      `db:"is_active"`
		CreatedAt  null.Time `db:"created_at"`
		UpdatedAt  null.Time `db:"updated_at"`
		CourseName string    `db:"course_name"`
	}
)

func fromProgramRow(row programRow) curriculum.Program {
	return curriculum.Program{
		ID:        row.ID,
		Name:      row.Name,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt.Time,
	}
}

func fromCourseRow(row courseRow) curriculum.Course {
	return curriculum.Course{
		ID:          row.ID,
		Name:        row.Name,
		Code:        row.Code,
		Description: row.Description,
		Credits:     row.Credits,
		ColorHex:    row.ColorHex,
		IsActive:    row.IsActive,
		CreatedAt:   row.CreatedAt.Time,
	}
}

func (repo curriculumRepository) getExec(svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if ext, ok := svcExec[0].(sqlx.ExtContext); ok {
			return ext
		}
	}
	return repo.db
}

func (repo curriculumRepository) CreateProgram(ctx context.Context, prog curriculum.Program, exec ...core.DBExecutor) (curriculum.Program, error) {
	q := `INSERT INTO program (name, is_active, created_at) VALUES ($1, $2, $3) RETURNING id`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &prog.ID, q, prog.Name, prog.IsActive, prog.CreatedAt.UTC()); err != nil {
		return curriculum.Program{}, errors.Wrap(err, "inserting program")
	}
	return prog, nil
}

func (repo curriculumRepository) QueryPrograms(ctx context.Context, exec ...core.DBExecutor) ([]curriculum.Program, error) {
	var rows []programRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, `SELECT * FROM program ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying programs")
	}
	progs := make([]curriculum.Program, 0, len(rows))
	for _, row := range rows {
		progs = append(progs, fromProgramRow(row))
	}
	return progs, nil
}

func (repo curriculumRepository) GetProgramByID(ctx context.Context, id int, exec ...core.DBExecutor) (curriculum.Program, error) {
	var row programRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, `SELECT * FROM program WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return curriculum.Program{}, curriculum.ErrProgramNotFound
		}
		return curriculum.Program{}, errors.Wrap(err, "getting program")
	}
	return fromProgramRow(row), nil
}

func (repo curriculumRepository) CreateCourse(ctx context.Context, crs curriculum.Course, exec ...core.DBExecutor) (curriculum.Course, error) {
	q := `INSERT INTO course (name, code, description, credits, color_hex, is_active, created_at)
	      VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &crs.ID, q,
		crs.Name, crs.Code, crs.Description, crs.Credits, crs.ColorHex, crs.IsActive, crs.CreatedAt.UTC(),
	); err != nil {
		return curriculum.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo curriculumRepository) QueryCourses(ctx context.Context, exec ...core.DBExecutor) ([]curriculum.Course, error) {
	var rows []courseRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, `SELECT * FROM course ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]curriculum.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, fromCourseRow(row))
	}
	return courses, nil
}

func (repo curriculumRepository) GetCourseByID(ctx context.Context, id int, exec ...core.DBExecutor) (curriculum.Course, error) {
	var row courseRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return curriculum.Course{}, curriculum.ErrCourseNotFound
		}
		return curriculum.Course{}, errors.Wrap(err, "getting course")
	}
	return fromCourseRow(row), nil
}

func (repo curriculumRepository) QueryEntries(ctx context.Context, programID int, activeOnly bool, exec ...core.DBExecutor) ([]curriculum.EntryView, error) {
	q := `SELECT e.*, c.name AS course_name
	      FROM curriculum_entry e
	      JOIN course c ON c.id = e.course_id
	      WHERE e.program_id = $1`
	if activeOnly {
		q += " AND e.is_active"
	}
	q += " ORDER BY e.cycle, lower(c.name)"

	var rows []entryRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, programID); err != nil {
		return nil, errors.Wrap(err, "querying curriculum entries")
	}

	views := make([]curriculum.EntryView, 0, len(rows))
	for _, row := range rows {
		views = append(views, curriculum.EntryView{
			Entry: curriculum.Entry{
				ProgramID: row.ProgramID,
				CourseID:  row.CourseID,
				Cycle:     row.Cycle,
				Credits:   row.Credits,
				Mandatory: row.Mandatory,
				IsActive:  row.IsActive,
				CreatedAt: row.CreatedAt.Time,
				UpdatedAt: row.UpdatedAt.Time,
			},
			CourseName: row.CourseName,
		})
	}
	return views, nil
}

func (repo curriculumRepository) UpsertEntry(ctx context.Context, entry curriculum.Entry, exec ...core.DBExecutor) (curriculum.Entry, error) {
	q := `INSERT INTO curriculum_entry (program_id, course_id, cycle, credits, mandatory, is_active, created_at, updated_at)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	      ON CONFLICT (program_id, course_id) DO UPDATE
	      SET cycle = EXCLUDED.cycle, credits = EXCLUDED.credits, mandatory = EXCLUDED.mandatory,
	          is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at`
	if _, err := repo.getExec(exec).ExecContext(ctx, q,
		entry.ProgramID, entry.CourseID, entry.Cycle, entry.Credits, entry.Mandatory,
		entry.IsActive, entry.CreatedAt.UTC(), entry.UpdatedAt.UTC(),
	); err != nil {
		return curriculum.Entry{}, errors.Wrap(err, "upserting curriculum entry")
	}
	return entry, nil
}

func (repo curriculumRepository) DeleteEntry(ctx context.Context, programID, courseID int, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx,
		`DELETE FROM curriculum_entry WHERE program_id = $1 AND course_id = $2`, programID, courseID)
	if err != nil {
		return errors.Wrap(err, "deleting curriculum entry")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return curriculum.ErrEntryNotFound
	}
	return nil
}

func (repo curriculumRepository) PrerequisiteExists(ctx context.Context, courseID, prereqID int, exec ...core.DBExecutor) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM course_prerequisite WHERE course_id = $1 AND prerequisite_id = $2)`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &exists, q, courseID, prereqID); err != nil {
		return false, errors.Wrap(err, "checking prerequisite")
	}
	return exists, nil
}

func (repo curriculumRepository) CreatePrerequisite(ctx context.Context, edge curriculum.Prerequisite, exec ...core.DBExecutor) error {
	q := `INSERT INTO course_prerequisite (course_id, prerequisite_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := repo.getExec(exec).ExecContext(ctx, q, edge.CourseID, edge.PrerequisiteID); err != nil {
		return errors.Wrap(err, "inserting prerequisite")
	}
	return nil
}

func (repo curriculumRepository) DeletePrerequisite(ctx context.Context, courseID, prereqID int, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx,
		`DELETE FROM course_prerequisite WHERE course_id = $1 AND prerequisite_id = $2`, courseID, prereqID)
	if err != nil {
		return errors.Wrap(err, "deleting prerequisite")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return curriculum.ErrPrerequisiteNotFound
	}
	return nil
}

func (repo curriculumRepository) QueryPrerequisites(ctx context.Context, courseIDs []int, exec ...core.DBExecutor) ([]curriculum.Prerequisite, error) {
	ids := make(pq.Int64Array, 0, len(courseIDs))
	for _, id := range courseIDs {
		ids = append(ids, int64(id))
	}

	var rows []struct {
		CourseID       int `db:"course_id"`
		PrerequisiteID int `db:"prerequisite_id"`
	}
	q := `SELECT * FROM course_prerequisite WHERE course_id = ANY($1)`
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, ids); err != nil {
		return nil, errors.Wrap(err, "querying prerequisites")
	}

	edges := make([]curriculum.Prerequisite, 0, len(rows))
	for _, row := range rows {
		edges = append(edges, curriculum.Prerequisite{CourseID: row.CourseID, PrerequisiteID: row.PrerequisiteID})
	}
	return edges, nil
}
