package models

import "time"

// Subject is a course catalog entry: the code and name shared by every
// offering of a course across sections and terms. Per-section teaching
// load (L/T/P, enrollment, elective/combined flags) lives on
// CourseOffering, not here.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	SoftwareLab bool      `db:"software_lab" json:"software_lab"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
