package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SemesterScheduleStatus represents lifecycle phases for generated schedules.
type SemesterScheduleStatus string

const (
	SemesterScheduleStatusDraft     SemesterScheduleStatus = "DRAFT"
	SemesterScheduleStatusPublished SemesterScheduleStatus = "PUBLISHED"
	SemesterScheduleStatusArchived  SemesterScheduleStatus = "ARCHIVED"
)

// SemesterSchedule captures a versioned, generated timetable for a
// section/term pair: the persisted form of one scheduling.Run call.
type SemesterSchedule struct {
	ID        string                 `db:"id" json:"id"`
	TermID    string                 `db:"term_id" json:"term_id"`
	ClassID   string                 `db:"class_id" json:"class_id"`
	Version   int                    `db:"version" json:"version"`
	Status    SemesterScheduleStatus `db:"status" json:"status"`
	Meta      types.JSONText         `db:"meta" json:"meta"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt time.Time              `db:"updated_at" json:"updated_at"`
}

// SemesterScheduleSlot is one committed session placement inside a
// generated semester schedule: the persisted form of a scheduling.Assignment.
type SemesterScheduleSlot struct {
	ID                 string         `db:"id" json:"id"`
	SemesterScheduleID string         `db:"semester_schedule_id" json:"semester_schedule_id"`
	Day                string          `db:"day" json:"day"`
	StartMin           int             `db:"start_min" json:"start_min"`
	EndMin             int             `db:"end_min" json:"end_min"`
	CourseCode         string          `db:"course_code" json:"course_code"`
	Kind               string          `db:"kind" json:"kind"`
	RoomIDs            types.JSONText  `db:"room_ids" json:"room_ids"`
	FacultyIDs         types.JSONText  `db:"faculty_ids" json:"faculty_ids"`
	SectionIDs         types.JSONText  `db:"section_ids" json:"section_ids"`
	BasketID           *string         `db:"basket_id" json:"basket_id,omitempty"`
	BatchLabel         *string         `db:"batch_label" json:"batch_label,omitempty"`
	CapacityWarning    bool            `db:"capacity_warning" json:"capacity_warning"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
}

// SemesterScheduleSummary aggregates versions available for a term/section pair.
type SemesterScheduleSummary struct {
	TermID    string                 `json:"term_id"`
	ClassID   string                 `json:"class_id"`
	ActiveID  *string                `json:"active_id,omitempty"`
	Versions  []SemesterScheduleMeta `json:"versions"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// SemesterScheduleMeta represents lightweight metadata for list views.
type SemesterScheduleMeta struct {
	ID              string                 `json:"id"`
	Version         int                    `json:"version"`
	Status          SemesterScheduleStatus `json:"status"`
	WarningCount    int                    `json:"warning_count"`
	BacktrackCount  int                    `json:"backtrack_count"`
	CreatedAt       time.Time              `json:"created_at"`
}
