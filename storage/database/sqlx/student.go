package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/academia-app/academia/core"
	"github.com/academia-app/academia/core/student"
)

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

type (
	studentRow struct {
		ID         int         `db:"id"`
		UserID     null.String `db:"user_id"`
		Code       null.String `db:"code"`
		ProgramID  null.Int    `db:"program_id"`
		Cycle      null.Int    `db:"cycle"`
		EnrolledAt null.Time   `db:"enrolled_at"`
	}

	stateRow struct {
		StudentID  int          `db:"student_id"`
		CourseID   int          `db:"course_id"`
		Status     string       `db:"status"`
		PeriodID   null.Int     `db:"period_id"`
		FinalGrade null.Float64 `db:"final_grade"`
		UpdatedAt  null.Time    `db:"updated_at"`
	}

	gradeRow struct {
		ID         int       `db:"id"`
		StudentID  int       `db:"student_id"`
		CourseID   int       `db:"course_id"`
		Label      string    `db:"label"`
		Value      float64   `db:"value"`
		RecordedAt null.Time `db:"recorded_at"`
	}
)

func fromStudentRow(row studentRow) student.Student {
	return student.Student{
		ID:         row.ID,
		UserID:     row.UserID,
		Code:       row.Code,
		ProgramID:  row.ProgramID,
		Cycle:      row.Cycle,
		EnrolledAt: row.EnrolledAt.Time,
	}
}

func fromStateRow(row stateRow) student.CourseState {
	return student.CourseState{
		StudentID:  row.StudentID,
		CourseID:   row.CourseID,
		Status:     student.Status(row.Status),
		PeriodID:   row.PeriodID,
		FinalGrade: row.FinalGrade,
		UpdatedAt:  row.UpdatedAt.Time,
	}
}

func fromGradeRow(row gradeRow) student.GradeEntry {
	return student.GradeEntry{
		ID:         row.ID,
		StudentID:  row.StudentID,
		CourseID:   row.CourseID,
		Label:      student.GradeLabel(row.Label),
		Value:      row.Value,
		RecordedAt: row.RecordedAt.Time,
	}
}

func (repo studentRepository) getExec(svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if ext, ok := svcExec[0].(sqlx.ExtContext); ok {
			return ext
		}
	}
	return repo.db
}

func (repo studentRepository) CreateStudent(ctx context.Context, st student.Student, exec ...core.DBExecutor) (student.Student, error) {
	q := `INSERT INTO student (user_id, code, program_id, cycle, enrolled_at)
	      VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &st.ID, q,
		st.UserID, st.Code, st.ProgramID, st.Cycle, st.EnrolledAt.UTC(),
	); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return st, nil
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id int, exec ...core.DBExecutor) (student.Student, error) {
	var row studentRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, `SELECT * FROM student WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return student.Student{}, student.ErrStudentNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	return fromStudentRow(row), nil
}

func (repo studentRepository) GetStudentByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (student.Student, error) {
	var row studentRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, `SELECT * FROM student WHERE user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return student.Student{}, student.ErrStudentNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	return fromStudentRow(row), nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, st student.Student, exec ...core.DBExecutor) (student.Student, error) {
	q := `UPDATE student SET user_id = $1, code = $2, program_id = $3, cycle = $4 WHERE id = $5`
	res, err := repo.getExec(exec).ExecContext(ctx, q, st.UserID, st.Code, st.ProgramID, st.Cycle, st.ID)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrStudentNotFound
	}
	return st, nil
}

func (repo studentRepository) GetCourseStates(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]student.CourseState, error) {
	var rows []stateRow
	q := `SELECT * FROM course_state WHERE student_id = $1 ORDER BY course_id`
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying course states")
	}
	states := make([]student.CourseState, 0, len(rows))
	for _, row := range rows {
		states = append(states, fromStateRow(row))
	}
	return states, nil
}

func (repo studentRepository) GetCourseState(ctx context.Context, studentID, courseID int, exec ...core.DBExecutor) (student.CourseState, error) {
	var row stateRow
	q := `SELECT * FROM course_state WHERE student_id = $1 AND course_id = $2`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, studentID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return student.CourseState{}, student.ErrCourseStateNotFound
		}
		return student.CourseState{}, errors.Wrap(err, "getting course state")
	}
	return fromStateRow(row), nil
}

func (repo studentRepository) UpsertCourseState(ctx context.Context, cs student.CourseState, exec ...core.DBExecutor) (student.CourseState, error) {
	q := `INSERT INTO course_state (student_id, course_id, status, period_id, final_grade, updated_at)
	      VALUES ($1, $2, $3, $4, $5, $6)
	      ON CONFLICT (student_id, course_id) DO UPDATE
	      SET status = EXCLUDED.status, period_id = EXCLUDED.period_id,
	          final_grade = EXCLUDED.final_grade, updated_at = EXCLUDED.updated_at`
	if _, err := repo.getExec(exec).ExecContext(ctx, q,
		cs.StudentID, cs.CourseID, string(cs.Status), cs.PeriodID, cs.FinalGrade, cs.UpdatedAt.UTC(),
	); err != nil {
		return student.CourseState{}, errors.Wrap(err, "upserting course state")
	}
	return cs, nil
}

func (repo studentRepository) QueryGrades(ctx context.Context, studentID, courseID int, exec ...core.DBExecutor) ([]student.GradeEntry, error) {
	var rows []gradeRow
	q := `SELECT * FROM grade_entry WHERE student_id = $1 AND course_id = $2 ORDER BY id`
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, studentID, courseID); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	grades := make([]student.GradeEntry, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, fromGradeRow(row))
	}
	return grades, nil
}

func (repo studentRepository) UpsertGrade(ctx context.Context, entry student.GradeEntry, exec ...core.DBExecutor) (student.GradeEntry, error) {
	q := `INSERT INTO grade_entry (student_id, course_id, label, value, recorded_at)
	      VALUES ($1, $2, $3, $4, $5)
	      ON CONFLICT (student_id, course_id, label) DO UPDATE
	      SET value = EXCLUDED.value, recorded_at = EXCLUDED.recorded_at
	      RETURNING id`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &entry.ID, q,
		entry.StudentID, entry.CourseID, string(entry.Label), entry.Value, entry.RecordedAt.UTC(),
	); err != nil {
		return student.GradeEntry{}, errors.Wrap(err, "upserting grade")
	}
	return entry, nil
}
