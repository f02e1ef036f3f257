package curriculum

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/academia-app/academia/core"
)

type (
	// Program is a degree/major students enroll in.
	Program struct {
		ID        int       `json:"id"`
		Name      string    `json:"name"`
		IsActive  bool      `json:"is_active"`
		CreatedAt time.Time `json:"created_at"` // UTC
	}

	Course struct {
		ID          int         `json:"id"`
		Name        string      `json:"name"`
		Code        null.String `json:"code"`
		Description null.String `json:"description"`
		Credits     null.Int    `json:"credits"`
		ColorHex    null.String `json:"color_hex"`
		IsActive    bool        `json:"is_active"`
		CreatedAt   time.Time   `json:"created_at"` // UTC
	}

	// Entry ties a Course to a Program at a given cycle. There is at
	// most one entry per (ProgramID, CourseID); the entry is the sole
	// source of "this course belongs to this program, at this cycle".
	Entry struct {
		ProgramID int       `json:"program_id"`
		CourseID  int       `json:"course_id"`
		Cycle     int       `json:"cycle"`
		Credits   null.Int  `json:"credits"`
		Mandatory bool      `json:"mandatory"`
		IsActive  bool      `json:"is_active"`
		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}

	// EntryView is an Entry joined with its course name for display.
	EntryView struct {
		Entry
		CourseName string `json:"course_name"`
	}

	// Prerequisite is a directed edge: CourseID requires PrerequisiteID
	// to be passed first.
	Prerequisite struct {
		CourseID       int `json:"course_id"`
		PrerequisiteID int `json:"prerequisite_id"`
	}
)

// NewProgram contains information needed to create a new Program.
type NewProgram struct {
	Name     string `json:"name" validate:"required"`
	IsActive *bool  `json:"is_active"`
}

func (np *NewProgram) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	return validate.Struct(np)
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name        string `json:"name" validate:"required"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Credits     *int   `json:"credits" validate:"omitempty,min=0"`
	ColorHex    string `json:"color_hex" validate:"omitempty,hexcolor"`
	IsActive    *bool  `json:"is_active"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Code = core.CleanString(nc.Code, true /* lower */)
	return validate.Struct(nc)
}

// UpsertEntry defines the writable fields of a curriculum Entry.
type UpsertEntry struct {
	CourseID  int   `json:"course_id" validate:"required"`
	Cycle     int   `json:"cycle" validate:"required,min=1"`
	Credits   *int  `json:"credits" validate:"omitempty,min=0"`
	Mandatory bool  `json:"mandatory"`
	IsActive  *bool `json:"is_active"`
}

func (ue *UpsertEntry) Validate(validate *validator.Validate) error {
	return validate.Struct(ue)
}
