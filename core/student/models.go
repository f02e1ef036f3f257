package student

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/academia-app/academia/core"
)

// Status is a student's standing in one course. The set is closed;
// anything else is rejected at the validation layer.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusPassed     Status = "PASSED"
	StatusFailed     Status = "FAILED"
)

var allStatuses = map[Status]struct{}{
	StatusPending:    {},
	StatusInProgress: {},
	StatusPassed:     {},
	StatusFailed:     {},
}

// ParseStatus normalizes and validates a raw status value.
func ParseStatus(s string) (Status, bool) {
	status := Status(core.CleanString(s, true /* lower */))
	status = Status(toUpper(string(status)))
	_, ok := allStatuses[status]
	return status, ok
}

// GradeLabel identifies one grade component of a course. The set is
// closed; submissions with any other label are rejected. Labels already
// stored under legacy names are skipped during aggregation instead.
type GradeLabel string

const (
	LabelPC1     GradeLabel = "PC1"
	LabelPC2     GradeLabel = "PC2"
	LabelPC3     GradeLabel = "PC3"
	LabelPC4     GradeLabel = "PC4"
	LabelMidterm GradeLabel = "MIDTERM"
	LabelFinal   GradeLabel = "FINAL"
)

// Grading scheme: four graded practicals at 15% each, midterm and final
// at 20% each, on a 0-20 scale. A course is passed at 11 or above.
var gradeWeights = map[GradeLabel]float64{
	LabelPC1:     0.15,
	LabelPC2:     0.15,
	LabelPC3:     0.15,
	LabelPC4:     0.15,
	LabelMidterm: 0.20,
	LabelFinal:   0.20,
}

const (
	GradeScale   = 20.0
	PassingGrade = 11.0
)

// Weight returns the label's weight in the final average; ok is false
// for unrecognized labels.
func (l GradeLabel) Weight() (float64, bool) {
	w, ok := gradeWeights[l]
	return w, ok
}

// ParseGradeLabel normalizes and validates a raw grade label.
func ParseGradeLabel(s string) (GradeLabel, bool) {
	label := GradeLabel(toUpper(core.CleanString(s)))
	_, ok := gradeWeights[label]
	return label, ok
}

func toUpper(s string) string {
	b := []byte(s)
	for i := 0; i < len(b); i++ {
		if 'a' <= b[i] && b[i] <= 'z' {
			b[i] -= 'a' - 'A'
		}
	}
	return string(b)
}

type (
	// Student is the university-side record linked to a login account.
	Student struct {
		ID         int         `json:"id"`
		UserID     null.String `json:"user_id"`
		Code       null.String `json:"code"`
		ProgramID  null.Int    `json:"program_id"`
		Cycle      null.Int    `json:"cycle"`
		EnrolledAt time.Time   `json:"enrolled_at"` // UTC
	}

	// CourseState is the latest derived standing of a student in one
	// course. One row per (StudentID, CourseID); upsert semantics, no
	// history.
	CourseState struct {
		StudentID  int          `json:"student_id"`
		CourseID   int          `json:"course_id"`
		Status     Status       `json:"status"`
		PeriodID   null.Int     `json:"period_id"`
		FinalGrade null.Float64 `json:"final_grade"`
		UpdatedAt  time.Time    `json:"updated_at"` // UTC
	}

	// GradeEntry is one recorded grade component. One row per
	// (StudentID, CourseID, Label); re-submitting a label overwrites.
	GradeEntry struct {
		ID         int        `json:"id"`
		StudentID  int        `json:"student_id"`
		CourseID   int        `json:"course_id"`
		Label      GradeLabel `json:"label"`
		Value      float64    `json:"value"`
		RecordedAt time.Time  `json:"recorded_at"` // UTC
	}
)

// Curriculum view types

type (
	ProgramSummary struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	// CourseView is one curriculum entry annotated with the student's
	// standing and lock state.
	CourseView struct {
		CourseID             int      `json:"course_id"`
		CourseName           string   `json:"course_name"`
		Cycle                int      `json:"cycle"`
		Credits              null.Int `json:"credits"`
		Mandatory            bool     `json:"mandatory"`
		Status               Status   `json:"status"`
		IsLocked             bool     `json:"is_locked"`
		Prerequisites        []int    `json:"prerequisites"`
		PendingPrerequisites []int    `json:"pending_prerequisites"`
	}

	CurriculumView struct {
		Program ProgramSummary `json:"program"`
		Courses []CourseView   `json:"courses"`
	}
)

// UpdateCourseState defines what a student may write to their standing
// in a course.
type UpdateCourseState struct {
	Status     string   `json:"status" validate:"required"`
	PeriodID   *int     `json:"period_id"`
	FinalGrade *float64 `json:"final_grade" validate:"omitempty,min=0,max=20"`

	status Status
}

func (ucs *UpdateCourseState) Validate(validate *validator.Validate) error {
	if err := validate.Struct(ucs); err != nil {
		return err
	}
	status, ok := ParseStatus(ucs.Status)
	if !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "status", Error: "invalid status"})
	}
	ucs.status = status
	return nil
}

// ParsedStatus returns the validated Status; only meaningful after a
// successful Validate.
func (ucs *UpdateCourseState) ParsedStatus() Status { return ucs.status }

// NewGrade is one grade component submission.
type NewGrade struct {
	Label string  `json:"label" validate:"required"`
	Value float64 `json:"value" validate:"min=0,max=20"`

	label GradeLabel
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	if err := validate.Struct(ng); err != nil {
		return err
	}
	label, ok := ParseGradeLabel(ng.Label)
	if !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "label", Error: "unrecognized grade label"})
	}
	ng.label = label
	return nil
}

// ParsedLabel returns the validated GradeLabel; only meaningful after a
// successful Validate.
func (ng *NewGrade) ParsedLabel() GradeLabel { return ng.label }
