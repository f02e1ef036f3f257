package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/academia-app/academia/core"
	"github.com/academia-app/academia/core/agenda"
)

type agendaRepository struct {
	db *sqlx.DB
}

var _ agenda.Repository = (*agendaRepository)(nil) // interface compliance check

func NewAgendaRepository(db *sqlx.DB) agenda.Repository {
	return &agendaRepository{db: db}
}

type eventRow struct {
	ID                    int         `db:"id"`
	StudentID             int         `db:"student_id"`
	CourseID              null.Int    `db:"course_id"`
	Title                 string      `db:"title"`
	Note                  null.String `db:"note"`
	StartAt               null.Time   `db:"start_at"`
	EndAt                 null.Time   `db:"end_at"`
	RepeatRule            null.String `db:"repeat_rule"`
	ReminderMinutesBefore null.Int    `db:"reminder_minutes_before"`
	IsCompleted           bool        `db:"is_completed"`
	CompletedAt           null.Time   `db:"completed_at"`
	CreatedAt             null.Time   `db:"created_at"`
	UpdatedAt             null.Time   `db:"updated_at"`
}

func fromEventRow(row eventRow) agenda.Event {
	return agenda.Event{
		ID:                    row.ID,
		StudentID:             row.StudentID,
		CourseID:              row.CourseID,
		Title:                 row.Title,
		Note:                  row.Note,
		StartAt:               row.StartAt.Time,
		EndAt:                 row.EndAt.Time,
		RepeatRule:            row.RepeatRule,
		ReminderMinutesBefore: row.ReminderMinutesBefore,
		IsCompleted:           row.IsCompleted,
		CompletedAt:           row.CompletedAt,
		CreatedAt:             row.CreatedAt.Time,
		UpdatedAt:             row.UpdatedAt.Time,
	}
}

func (repo agendaRepository) getExec(svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if ext, ok := svcExec[0].(sqlx.ExtContext); ok {
			return ext
		}
	}
	return repo.db
}

func (repo agendaRepository) CreateEvent(ctx context.Context, evt agenda.Event, exec ...core.DBExecutor) (agenda.Event, error) {
	q := `INSERT INTO agenda_event (student_id, course_id, title, note, start_at, end_at, repeat_rule,
	                                reminder_minutes_before, is_completed, completed_at, created_at, updated_at)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &evt.ID, q,
		evt.StudentID, evt.CourseID, evt.Title, evt.Note, evt.StartAt.UTC(), evt.EndAt.UTC(),
		evt.RepeatRule, evt.ReminderMinutesBefore, evt.IsCompleted, evt.CompletedAt,
		evt.CreatedAt.UTC(), evt.UpdatedAt.UTC(),
	); err != nil {
		return agenda.Event{}, errors.Wrap(err, "inserting event")
	}
	return evt, nil
}

func (repo agendaRepository) GetEventByID(ctx context.Context, id int, exec ...core.DBExecutor) (agenda.Event, error) {
	var row eventRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, `SELECT * FROM agenda_event WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return agenda.Event{}, agenda.ErrEventNotFound
		}
		return agenda.Event{}, errors.Wrap(err, "getting event")
	}
	return fromEventRow(row), nil
}

func (repo agendaRepository) QueryEvents(ctx context.Context, studentID int, filter agenda.QueryFilter, exec ...core.DBExecutor) ([]agenda.Event, error) {
	q := `SELECT * FROM agenda_event WHERE student_id = $1 AND start_at < $2 AND end_at > $3`
	args := []interface{}{studentID, filter.To.UTC(), filter.From.UTC()}
	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		q += ` AND is_completed = $4`
	}
	if filter.CourseID != nil {
		args = append(args, *filter.CourseID)
		if filter.Completed != nil {
			q += ` AND course_id = $5`
		} else {
			q += ` AND course_id = $4`
		}
	}
	q += ` ORDER BY start_at`

	var rows []eventRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	events := make([]agenda.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, fromEventRow(row))
	}
	return events, nil
}

func (repo agendaRepository) UpdateEvent(ctx context.Context, evt agenda.Event, exec ...core.DBExecutor) (agenda.Event, error) {
	q := `UPDATE agenda_event
	      SET course_id = $1, title = $2, note = $3, start_at = $4, end_at = $5, repeat_rule = $6,
	          reminder_minutes_before = $7, is_completed = $8, completed_at = $9, updated_at = $10
	      WHERE id = $11`
	res, err := repo.getExec(exec).ExecContext(ctx, q,
		evt.CourseID, evt.Title, evt.Note, evt.StartAt.UTC(), evt.EndAt.UTC(), evt.RepeatRule,
		evt.ReminderMinutesBefore, evt.IsCompleted, evt.CompletedAt, evt.UpdatedAt.UTC(), evt.ID,
	)
	if err != nil {
		return agenda.Event{}, errors.Wrap(err, "updating event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return agenda.Event{}, agenda.ErrEventNotFound
	}
	return evt, nil
}

func (repo agendaRepository) DeleteEvent(ctx context.Context, id int, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM agenda_event WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return agenda.ErrEventNotFound
	}
	return nil
}
