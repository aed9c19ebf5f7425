package scheduling

// Engine runs the per-session placement search and the stack-based
// backtracking loop described for the whole run. It holds no state of its
// own beyond its dependencies; all mutable state lives in the Ledger.
type Engine struct {
	calendar *Calendar
	registry *Registry
	ledger   *Ledger
	rng      *RNG
	maxAttempts int
}

// NewEngine builds an Engine over the given calendar/registry/ledger,
// bounding total backtrack attempts at maxAttempts (the source's figure is
// 2000; this is a tunable configuration value, not a contract).
func NewEngine(cal *Calendar, reg *Registry, ledger *Ledger, rng *RNG, maxAttempts int) *Engine {
	return &Engine{calendar: cal, registry: reg, ledger: ledger, rng: rng, maxAttempts: maxAttempts}
}

// placementPlan is the resolved room+interval candidate identified for one
// session attempt before it is committed.
type placementPlan struct {
	interval        Interval
	roomIDs         []string
	capacityWarning bool
}

// findPlacement runs steps 1-2 of the placement search for a single
// session against a single department (the owning section's department,
// or the union department context for a group placement) and enrollment
// figure. Every call draws a fresh day and interval shuffle from the
// engine's RNG, so a retry after a rollback scans in a new order.
func (e *Engine) findPlacement(c Course, kind SessionKind, dept string, enrollment int) (placementPlan, bool) {
	days := e.rng.ShuffleDays(e.calendar.Days())
	for _, day := range days {
		if kind == Lecture && e.ledger.LectureOnDay(c.CourseCode, day) {
			continue
		}
		if kind == Lab && e.ledger.LabDayConflict(c.CourseCode, day) {
			continue
		}
		candidates := e.rng.ShuffleIntervals(e.calendar.CandidateIntervals(day, kind, dept))
		for _, iv := range candidates {
			if !e.ledger.IsSectionFree(c.SectionID, iv) {
				continue
			}
			if !e.sectionsFree(c, iv) {
				continue
			}
			if !e.ledger.IsFacultyFree(c.FacultySet, iv) {
				continue
			}
			rooms, shortfall, ok := e.pickRoom(c, kind, enrollment, iv)
			if !ok {
				continue
			}
			return placementPlan{interval: iv, roomIDs: rooms, capacityWarning: shortfall}, true
		}
	}
	return placementPlan{}, false
}

// sectionsFree extends IsSectionFree to every combined section, so a
// combined course's search also respects the other sections' rows.
func (e *Engine) sectionsFree(c Course, iv Interval) bool {
	for _, sectionID := range c.CombinedWith {
		if !e.ledger.IsSectionFree(sectionID, iv) {
			return false
		}
	}
	return true
}

// pickRoom resolves the room(s) for one session: a fixed_room when set and
// kind != Lab, else a tightest-fit query against the registry, falling
// back to the largest same-kind room with a capacity warning.
func (e *Engine) pickRoom(c Course, kind SessionKind, enrollment int, iv Interval) (roomIDs []string, capacityShortfall bool, ok bool) {
	if c.FixedRoomID != "" && kind != Lab {
		if e.ledger.IsRoomFree(c.FixedRoomID, iv) {
			return []string{c.FixedRoomID}, false, true
		}
		return nil, false, false
	}
	candidates, shortfall := roomsForKind(e.registry, kind, c.SoftwareLab, enrollment)
	for _, room := range candidates {
		if e.ledger.IsRoomFree(room.ID, iv) {
			return []string{room.ID}, shortfall, true
		}
	}
	return nil, false, false
}

// roomsForKind resolves the candidate room pool for a session: Lab sessions
// are confined to their specific lab kind, while Lecture and Tutorial accept
// any non-lab kind (§4.2), so they search the merged, capacity-sorted pool.
func roomsForKind(registry *Registry, kind SessionKind, softwareLab bool, minCapacity int) ([]Room, bool) {
	if kind == Lab {
		return registry.RoomsFor(LabKindFor(softwareLab), minCapacity)
	}
	return registry.NonLabRooms(minCapacity)
}

// Place runs the full search-and-commit for one session, returning the
// Assignment on success.
func (e *Engine) Place(c Course, kind SessionKind) (Assignment, []Warning, bool) {
	dept, enrollment := e.courseContext(c)
	plan, ok := e.findPlacement(c, kind, dept, enrollment)
	if !ok {
		return Assignment{}, []Warning{{Kind: InfeasibleSessionWarning, CourseCode: c.CourseCode, SessionKind: kind, Detail: "no candidate interval/room available"}}, false
	}
	sectionIDs := append([]string{c.SectionID}, c.CombinedWith...)
	a := Assignment{
		CourseCode:      c.CourseCode,
		Kind:            kind,
		Interval:        plan.interval,
		RoomIDs:         plan.roomIDs,
		FacultySet:      c.FacultySet,
		SectionIDs:      sectionIDs,
		CapacityWarning: plan.capacityWarning,
	}
	var warnings []Warning
	if plan.capacityWarning {
		warnings = append(warnings, Warning{Kind: CapacityWarning, CourseCode: c.CourseCode, SessionKind: kind, Detail: "best available room is smaller than enrollment"})
	}
	if _, err := e.ledger.TryCommit(a); err != nil {
		return Assignment{}, append(warnings, Warning{Kind: InfeasibleSessionWarning, CourseCode: c.CourseCode, SessionKind: kind, Detail: err.Error()}), false
	}
	return a, warnings, true
}

// courseContext resolves the department used for break-window filtering
// and the enrollment used for room sizing. A combined course's enrollment
// is the sum over every section it teaches simultaneously (§4.6).
func (e *Engine) courseContext(c Course) (dept string, enrollment int) {
	enrollment = c.Enrollment
	if s, ok := e.registry.Section(c.SectionID); ok {
		dept = s.Department
		if enrollment == 0 {
			enrollment = s.Enrollment
		}
	}
	if c.IsCombined {
		for _, sectionID := range c.CombinedWith {
			if s, ok := e.registry.Section(sectionID); ok {
				enrollment += s.Enrollment
			}
		}
	}
	return dept, enrollment
}

// stackFrame is one entry of the explicit backtracking stack: the session
// that was placed and the token to roll back if a later session forces a
// retry of this one.
type stackFrame struct {
	session Session
	token   CommitToken
}

// RunCourses places every session of every course in courses, in the given
// order, using an explicit-stack backtracking loop bounded by maxAttempts
// total rollbacks. When the cap is reached the partial schedule is
// returned as-is; the validator is left to repair any deficit.
func (e *Engine) RunCourses(courses []Course) ([]Warning, int, int) {
	var sessions []Session
	for _, c := range courses {
		sessions = append(sessions, ExpandSessions(c)...)
	}

	var stack []stackFrame
	var warnings []Warning
	attempts := 0
	i := 0
	for i < len(sessions) {
		sess := sessions[i]
		a, sessionWarnings, ok := e.Place(sess.Course, sess.Kind)
		if ok {
			warnings = append(warnings, sessionWarnings...)
			tok := e.tokenFor(a)
			stack = append(stack, stackFrame{session: sess, token: tok})
			i++
			continue
		}
		warnings = append(warnings, sessionWarnings...)
		attempts++
		if attempts >= e.maxAttempts || len(stack) == 0 {
			// cap exhausted, or nothing left to pop: move on and let the
			// validator's repair pass pick up this session as a deficit.
			i++
			continue
		}
		// Pop the most recent commit and retry it; its stack position is
		// exactly i-1, so decrementing i re-enters the loop on it with a
		// fresh random draw.
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		e.ledger.Rollback(top.token)
		i--
	}
	return warnings, attempts, len(stack)
}

// tokenFor re-derives the CommitToken of the most recently committed
// assignment matching a, since TryCommit's token is not otherwise threaded
// back through Place's public signature.
func (e *Engine) tokenFor(a Assignment) CommitToken {
	return e.ledger.nextToken - 1
}
