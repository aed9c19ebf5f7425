package scheduling

// Session is one concrete teaching instance to be placed: one of a
// course's weekly lectures, tutorials, or lab blocks.
type Session struct {
	Course Course
	Kind   SessionKind
	Index  int // 0-based instance number within its kind, for diagnostics
}

// ExpandSessions emits a course's concrete session list in placement
// order: labs first (most constrained — fixed long block, scarce rooms,
// adjacency rule), lectures next, tutorials last. Session instances of the
// same kind are interchangeable for counting but are tracked individually.
func ExpandSessions(c Course) []Session {
	var out []Session
	for i := 0; i < c.LabSessionCount(); i++ {
		out = append(out, Session{Course: c, Kind: Lab, Index: i})
	}
	for i := 0; i < c.LectureSessionCount(); i++ {
		out = append(out, Session{Course: c, Kind: Lecture, Index: i})
	}
	for i := 0; i < c.TutorialSessionCount(); i++ {
		out = append(out, Session{Course: c, Kind: Tutorial, Index: i})
	}
	return out
}

// RequiredCounts returns the required session count per kind for a course,
// used by the validator to detect deficits against the placed ledger.
func RequiredCounts(c Course) map[SessionKind]int {
	return map[SessionKind]int{
		Lab:      c.LabSessionCount(),
		Lecture:  c.LectureSessionCount(),
		Tutorial: c.TutorialSessionCount(),
	}
}
