package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// CourseOffering is one course's teaching load for one section within one
// term: the persisted form of a scheduling.Course record.
type CourseOffering struct {
	ID          string          `db:"id" json:"id"`
	TermID      string          `db:"term_id" json:"term_id"`
	CourseCode  string          `db:"course_code" json:"course_code"`
	SectionID   string          `db:"section_id" json:"section_id"`
	FacultyIDs  types.JSONText  `db:"faculty_ids" json:"faculty_ids"`
	L           float64         `db:"l_hours" json:"l_hours"`
	T           float64         `db:"t_hours" json:"t_hours"`
	P           float64         `db:"p_hours" json:"p_hours"`
	Credits     float64         `db:"credits" json:"credits"`
	Enrollment  int             `db:"enrollment" json:"enrollment"`
	IsCombined  bool            `db:"is_combined" json:"is_combined"`
	IsElective  bool            `db:"is_elective" json:"is_elective"`
	BasketID    *string         `db:"basket_id" json:"basket_id,omitempty"`
	FixedRoomID *string         `db:"fixed_room_id" json:"fixed_room_id,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// CourseOfferingFilter captures supported filters for listing offerings.
type CourseOfferingFilter struct {
	TermID     string
	Department string
	Semester   int
	IsElective *bool
	IsCombined *bool
	Page       int
	PageSize   int
}
