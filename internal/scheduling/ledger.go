package scheduling

import "fmt"

// CommitToken identifies one successful commit so it can be rolled back.
// It is the Assignment's position in the ledger's append-only log; a
// rollback is only ever valid against the most recent live token (the
// engine backtracks in LIFO order), but the ledger itself does not
// enforce LIFO-ness beyond removing whichever token is given.
type CommitToken int

// Ledger is the single source of truth during placement: every committed
// Assignment plus three overlap indices (by room, by faculty, by
// section-day) so availability queries are O(live assignments on that
// axis) rather than O(all assignments). The ledger has exactly one writer
// and is never accessed concurrently, so it carries no locks.
type Ledger struct {
	assignments map[CommitToken]Assignment
	nextToken   CommitToken
	byRoom      map[string][]CommitToken
	byFaculty   map[FacultyID][]CommitToken
	bySectionDay map[string]map[Day][]CommitToken // keyed by section_id
	labDaysByCourse map[string]map[Day]bool
	lectureDaysByCourse map[string]map[Day]bool
}

// NewLedger constructs an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		assignments:         make(map[CommitToken]Assignment),
		byRoom:              make(map[string][]CommitToken),
		byFaculty:           make(map[FacultyID][]CommitToken),
		bySectionDay:        make(map[string]map[Day][]CommitToken),
		labDaysByCourse:     make(map[string]map[Day]bool),
		lectureDaysByCourse: make(map[string]map[Day]bool),
	}
}

// IsRoomFree reports that no live assignment occupies room with an
// overlapping interval.
func (l *Ledger) IsRoomFree(roomID string, iv Interval) bool {
	for _, tok := range l.byRoom[roomID] {
		if a, ok := l.assignments[tok]; ok && a.Interval.Overlaps(iv) {
			return false
		}
	}
	return true
}

// IsFacultyFree reports that no live assignment shares a faculty id in fac
// with an overlapping interval.
func (l *Ledger) IsFacultyFree(fac FacultySet, iv Interval) bool {
	for _, id := range fac {
		for _, tok := range l.byFaculty[id] {
			if a, ok := l.assignments[tok]; ok && a.Interval.Overlaps(iv) {
				return false
			}
		}
	}
	return true
}

// IsSectionFree reports that sectionID's row has no live assignment
// overlapping iv on iv.Day.
func (l *Ledger) IsSectionFree(sectionID string, iv Interval) bool {
	byDay, ok := l.bySectionDay[sectionID]
	if !ok {
		return true
	}
	for _, tok := range byDay[iv.Day] {
		if a, ok := l.assignments[tok]; ok && a.Interval.Overlaps(iv) {
			return false
		}
	}
	return true
}

// LabDayConflict reports whether courseCode already has a Lab committed on
// day itself or on the working day immediately before or after it.
func (l *Ledger) LabDayConflict(courseCode string, day Day) bool {
	days, ok := l.labDaysByCourse[courseCode]
	if !ok {
		return false
	}
	for d := range days {
		diff := int(d) - int(day)
		if diff >= -1 && diff <= 1 {
			return true
		}
	}
	return false
}

// LectureOnDay reports whether courseCode already has a Lecture committed
// on day (at most one lecture per course per day).
func (l *Ledger) LectureOnDay(courseCode string, day Day) bool {
	days, ok := l.lectureDaysByCourse[courseCode]
	return ok && days[day]
}

// TryCommit validates A against every invariant that is cheap to check at
// the ledger level (room/faculty/section exclusion are re-derived here;
// the kind-room, capacity, lab-adjacency, and lecture-spacing rules are
// the placement engine's responsibility to have already screened before
// calling TryCommit, since they need course/registry context the ledger
// does not hold). It returns a token on success.
func (l *Ledger) TryCommit(a Assignment) (CommitToken, error) {
	for _, roomID := range a.RoomIDs {
		if !l.IsRoomFree(roomID, a.Interval) {
			return 0, fmt.Errorf("room %s not free for %v", roomID, a.Interval)
		}
	}
	if !l.IsFacultyFree(a.FacultySet, a.Interval) {
		return 0, fmt.Errorf("faculty set not free for %v", a.Interval)
	}
	for _, sectionID := range a.SectionIDs {
		if !l.IsSectionFree(sectionID, a.Interval) {
			return 0, fmt.Errorf("section %s not free for %v", sectionID, a.Interval)
		}
	}

	tok := l.nextToken
	l.nextToken++
	l.assignments[tok] = a

	for _, roomID := range a.RoomIDs {
		l.byRoom[roomID] = append(l.byRoom[roomID], tok)
	}
	for _, id := range a.FacultySet {
		l.byFaculty[id] = append(l.byFaculty[id], tok)
	}
	for _, sectionID := range a.SectionIDs {
		if l.bySectionDay[sectionID] == nil {
			l.bySectionDay[sectionID] = make(map[Day][]CommitToken)
		}
		l.bySectionDay[sectionID][a.Interval.Day] = append(l.bySectionDay[sectionID][a.Interval.Day], tok)
	}
	if a.Kind == Lab {
		if l.labDaysByCourse[a.CourseCode] == nil {
			l.labDaysByCourse[a.CourseCode] = make(map[Day]bool)
		}
		l.labDaysByCourse[a.CourseCode][a.Interval.Day] = true
	}
	if a.Kind == Lecture {
		if l.lectureDaysByCourse[a.CourseCode] == nil {
			l.lectureDaysByCourse[a.CourseCode] = make(map[Day]bool)
		}
		l.lectureDaysByCourse[a.CourseCode][a.Interval.Day] = true
	}
	return tok, nil
}

// Rollback removes a previously committed Assignment, restoring the ledger
// to its state before that commit (assuming tokens are rolled back in LIFO
// order, as the backtracking engine does).
func (l *Ledger) Rollback(tok CommitToken) {
	a, ok := l.assignments[tok]
	if !ok {
		return
	}
	delete(l.assignments, tok)

	for _, roomID := range a.RoomIDs {
		l.byRoom[roomID] = removeToken(l.byRoom[roomID], tok)
	}
	for _, id := range a.FacultySet {
		l.byFaculty[id] = removeToken(l.byFaculty[id], tok)
	}
	for _, sectionID := range a.SectionIDs {
		if byDay, ok := l.bySectionDay[sectionID]; ok {
			byDay[a.Interval.Day] = removeToken(byDay[a.Interval.Day], tok)
		}
	}
	if a.Kind == Lab {
		if stillHasLabOn(l, a.CourseCode, a.Interval.Day) {
			// another lab session remains on that day; leave the marker
		} else if days := l.labDaysByCourse[a.CourseCode]; days != nil {
			delete(days, a.Interval.Day)
		}
	}
	if a.Kind == Lecture {
		if stillHasLectureOn(l, a.CourseCode, a.Interval.Day) {
			// another lecture remains on that day
		} else if days := l.lectureDaysByCourse[a.CourseCode]; days != nil {
			delete(days, a.Interval.Day)
		}
	}
}

func stillHasLabOn(l *Ledger, courseCode string, day Day) bool {
	for _, a := range l.assignments {
		if a.CourseCode == courseCode && a.Kind == Lab && a.Interval.Day == day {
			return true
		}
	}
	return false
}

func stillHasLectureOn(l *Ledger, courseCode string, day Day) bool {
	for _, a := range l.assignments {
		if a.CourseCode == courseCode && a.Kind == Lecture && a.Interval.Day == day {
			return true
		}
	}
	return false
}

func removeToken(tokens []CommitToken, target CommitToken) []CommitToken {
	out := tokens[:0]
	for _, t := range tokens {
		if t != target {
			out = append(out, t)
		}
	}
	return out
}

// Assignments returns every live committed Assignment, in commit order.
func (l *Ledger) Assignments() []Assignment {
	out := make([]Assignment, 0, len(l.assignments))
	for tok := CommitToken(0); tok < l.nextToken; tok++ {
		if a, ok := l.assignments[tok]; ok {
			out = append(out, a)
		}
	}
	return out
}

// CountByCourseKind tallies live Assignments per (course_code, kind), used
// by the validator to find deficits against RequiredCounts.
func (l *Ledger) CountByCourseKind() map[string]map[SessionKind]int {
	counts := make(map[string]map[SessionKind]int)
	for _, a := range l.assignments {
		if counts[a.CourseCode] == nil {
			counts[a.CourseCode] = make(map[SessionKind]int)
		}
		counts[a.CourseCode][a.Kind]++
	}
	return counts
}
