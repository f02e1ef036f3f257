package agenda

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/academia-app/academia/core"
)

var ErrEventNotFound = errors.New("event not found")

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt Event, exec ...core.DBExecutor) (Event, error)
		GetEventByID(ctx context.Context, id int, exec ...core.DBExecutor) (Event, error)
		// QueryEvents returns the student's events overlapping the
		// filter window, ordered by StartAt ASC.
		QueryEvents(ctx context.Context, studentID int, filter QueryFilter, exec ...core.DBExecutor) ([]Event, error)
		UpdateEvent(ctx context.Context, evt Event, exec ...core.DBExecutor) (Event, error)
		DeleteEvent(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, studentID int, ne NewEvent) (Event, error)
		Query(ctx context.Context, studentID int, filter QueryFilter) ([]Event, error)
		Update(ctx context.Context, studentID, eventID int, ue UpdateEvent) (Event, error)
		Complete(ctx context.Context, studentID, eventID int) (Event, error)
		Delete(ctx context.Context, studentID, eventID int) error
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

func (svc *service) Create(ctx context.Context, studentID int, ne NewEvent) (Event, error) {
	now := time.Now().UTC()
	evt := Event{
		StudentID:             studentID,
		CourseID:              null.IntFromPtr(ne.CourseID),
		Title:                 ne.Title,
		Note:                  null.NewString(ne.Note, ne.Note != ""),
		StartAt:               ne.StartAt.UTC(),
		EndAt:                 ne.EndAt.UTC(),
		RepeatRule:            null.NewString(ne.RepeatRule, ne.RepeatRule != ""),
		ReminderMinutesBefore: null.IntFromPtr(ne.ReminderMinutesBefore),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	return svc.repo.CreateEvent(ctx, evt)
}

func (svc *service) Query(ctx context.Context, studentID int, filter QueryFilter) ([]Event, error) {
	filter.Normalize(time.Now().UTC())
	return svc.repo.QueryEvents(ctx, studentID, filter)
}

func (svc *service) Update(ctx context.Context, studentID, eventID int, ue UpdateEvent) (Event, error) {
	evt, err := svc.getOwned(ctx, studentID, eventID)
	if err != nil {
		return Event{}, err
	}

	if ue.Title != "" {
		evt.Title = ue.Title
	}
	if ue.Note != nil {
		evt.Note = null.NewString(*ue.Note, *ue.Note != "")
	}
	if ue.StartAt != nil {
		evt.StartAt = ue.StartAt.UTC()
	}
	if ue.EndAt != nil {
		evt.EndAt = ue.EndAt.UTC()
	}
	if !evt.EndAt.After(evt.StartAt) {
		return Event{}, core.NewValidationError(nil, core.FieldError{Field: "end_at", Error: "must be after start_at"})
	}
	if ue.RepeatRule != nil {
		evt.RepeatRule = null.NewString(*ue.RepeatRule, *ue.RepeatRule != "")
	}
	if ue.ReminderMinutesBefore != nil {
		evt.ReminderMinutesBefore = null.IntFrom(*ue.ReminderMinutesBefore)
	}
	evt.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEvent(ctx, evt)
}

func (svc *service) Complete(ctx context.Context, studentID, eventID int) (Event, error) {
	evt, err := svc.getOwned(ctx, studentID, eventID)
	if err != nil {
		return Event{}, err
	}
	now := time.Now().UTC()
	evt.IsCompleted = true
	evt.CompletedAt = null.TimeFrom(now)
	evt.UpdatedAt = now
	return svc.repo.UpdateEvent(ctx, evt)
}

func (svc *service) Delete(ctx context.Context, studentID, eventID int) error {
	if _, err := svc.getOwned(ctx, studentID, eventID); err != nil {
		return err
	}
	return svc.repo.DeleteEvent(ctx, eventID)
}

// getOwned fetches an event and hides it behind ErrEventNotFound when it
// belongs to another student.
func (svc *service) getOwned(ctx context.Context, studentID, eventID int) (Event, error) {
	evt, err := svc.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return Event{}, err
	}
	if evt.StudentID != studentID {
		return Event{}, ErrEventNotFound
	}
	return evt, nil
}
