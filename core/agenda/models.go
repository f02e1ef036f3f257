package agenda

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/academia-app/academia/core"
)

// Event is a student's personal agenda item, optionally tied to a
// course. Repeat rules are stored verbatim and expanded client-side.
type Event struct {
	ID                    int         `json:"id"`
	StudentID             int         `json:"student_id"`
	CourseID              null.Int    `json:"course_id"`
	Title                 string      `json:"title"`
	Note                  null.String `json:"note"`
	StartAt               time.Time   `json:"start_at"` // UTC
	EndAt                 time.Time   `json:"end_at"`   // UTC
	RepeatRule            null.String `json:"repeat_rule"`
	ReminderMinutesBefore null.Int    `json:"reminder_minutes_before"`
	IsCompleted           bool        `json:"is_completed"`
	CompletedAt           null.Time   `json:"completed_at"`
	CreatedAt             time.Time   `json:"created_at"` // UTC
	UpdatedAt             time.Time   `json:"updated_at"` // UTC
}

// NewEvent contains information needed to create a new Event.
type NewEvent struct {
	Title                 string    `json:"title" validate:"required"`
	CourseID              *int      `json:"course_id"`
	Note                  string    `json:"note"`
	StartAt               time.Time `json:"start_at" validate:"required"`
	EndAt                 time.Time `json:"end_at" validate:"required,gtfield=StartAt"`
	RepeatRule            string    `json:"repeat_rule"`
	ReminderMinutesBefore *int      `json:"reminder_minutes_before" validate:"omitempty,min=0"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	return validate.Struct(ne)
}

// UpdateEvent defines what may be changed on an existing Event.
// Zero-valued fields are left untouched; completion has its own endpoint.
type UpdateEvent struct {
	Title                 string     `json:"title"`
	Note                  *string    `json:"note"`
	StartAt               *time.Time `json:"start_at"`
	EndAt                 *time.Time `json:"end_at"`
	RepeatRule            *string    `json:"repeat_rule"`
	ReminderMinutesBefore *int       `json:"reminder_minutes_before" validate:"omitempty,min=0"`
}

func (ue *UpdateEvent) Validate(validate *validator.Validate) error {
	ue.Title = core.CleanString(ue.Title)
	return validate.Struct(ue)
}

// QueryFilter bounds an agenda listing. The window matches any event
// overlapping [From, To): StartAt < To && EndAt > From.
type QueryFilter struct {
	From      time.Time `query:"from"`
	To        time.Time `query:"to"`
	Completed *bool     `query:"completed"`
	CourseID  *int      `query:"course_id"`
}

// defaultWindow is applied around now when From/To are omitted.
const defaultWindow = 30 * 24 * time.Hour

// Normalize fills the window defaults in.
func (f *QueryFilter) Normalize(now time.Time) {
	if f.From.IsZero() {
		f.From = now.Add(-defaultWindow)
	}
	if f.To.IsZero() {
		f.To = now.Add(defaultWindow)
	}
}
