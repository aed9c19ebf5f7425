package dto

// GenerateScheduleRequest triggers one generation run against a term's
// active rooms, sections, and course offerings, scoped optionally by
// department and semester.
type GenerateScheduleRequest struct {
	TermID      string `json:"termId" validate:"required"`
	Department  string `json:"department"`
	Semester    int    `json:"semester" validate:"omitempty,min=1,max=12"`
	Seed        *int64 `json:"seed"`
	MaxAttempts int    `json:"maxAttempts" validate:"omitempty,min=1"`
}

// WarningDTO is the wire form of a scheduling.Warning.
type WarningDTO struct {
	Kind        string `json:"kind"`
	CourseCode  string `json:"courseCode,omitempty"`
	SessionKind string `json:"sessionKind,omitempty"`
	Detail      string `json:"detail"`
}

// ExportCellDTO is one (day, 30-minute slot) cell of a rendered timetable.
type ExportCellDTO struct {
	Day             string   `json:"day"`
	StartMin        int      `json:"startMin"`
	EndMin          int      `json:"endMin"`
	BreakLabel      string   `json:"breakLabel,omitempty"`
	CourseCode      string   `json:"courseCode,omitempty"`
	SessionKind     string   `json:"sessionKind,omitempty"`
	RoomIDs         []string `json:"roomIds,omitempty"`
	FacultyIDs      []string `json:"facultyIds,omitempty"`
	BatchLabel      string   `json:"batchLabel,omitempty"`
	BasketID        string   `json:"basketId,omitempty"`
	CapacityWarning bool     `json:"capacityWarning,omitempty"`
}

// ExportViewDTO is the wire form of one section's rendered weekly grid.
type ExportViewDTO struct {
	Department string          `json:"department"`
	Semester   int             `json:"semester"`
	SectionID  string          `json:"sectionId"`
	Cells      []ExportCellDTO `json:"cells"`
}

// GenerateScheduleResponse returns a pending proposal: nothing is
// persisted until Commit is called with the same proposal id.
type GenerateScheduleResponse struct {
	ProposalID     string          `json:"proposalId"`
	AttemptCount   int             `json:"attemptCount"`
	BacktrackDepth int             `json:"backtrackDepth"`
	Warnings       []WarningDTO    `json:"warnings"`
	Views          []ExportViewDTO `json:"views"`
}

// CommitScheduleRequest persists a generated proposal as a new semester
// schedule version for a single section.
type CommitScheduleRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
	SectionID  string `json:"sectionId" validate:"required"`
	Publish    bool   `json:"publish"`
}

// SemesterScheduleQuery filters schedule summaries by section and term.
type SemesterScheduleQuery struct {
	TermID    string `form:"termId" json:"termId"`
	ClassID   string `form:"classId" json:"classId"`
}
