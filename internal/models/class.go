package models

import "time"

// Class is a section: one cohort of students within a department and
// semester that shares a single rendered weekly timetable.
type Class struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Department string    `db:"department" json:"department"`
	Semester   int       `db:"semester" json:"semester"`
	BatchLabel string    `db:"batch_label" json:"batch_label"`
	Enrollment int       `db:"enrollment" json:"enrollment"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ClassFilter defines filter criteria for listing sections.
type ClassFilter struct {
	Department string
	Semester   int
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
