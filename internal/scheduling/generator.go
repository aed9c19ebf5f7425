package scheduling

import "sort"

// Input is the immutable bundle the generator needs for one run: one
// (department, semester) or institute-wide batch of courses plus the
// resources they draw on.
type Input struct {
	Rooms    []Room
	Sections []Section
	Courses  []Course
	Seed     int64

	Days                  []Day
	SlotGranularityMin    int
	WorkStartMin          int
	WorkEndMin            int
	Breaks                []BreakWindow
	MaxAttempts           int
}

// Result is everything a generation run produces: the final assignment
// set, every non-fatal warning raised along the way, and the counters
// recorded for observability and for the persisted GeneratedTimetable row.
type Result struct {
	Assignments   []Assignment
	Warnings      []Warning
	AttemptCount  int
	BacktrackDepth int
	Seed          int64
}

// Run executes one complete generation: combined and basket grouping,
// course ordering, the placement engine with backtracking, the validator
// repair pass, in that order (§5's ordering guarantee). It does not build
// the export view — callers that need the grid call BuildExportViews
// separately against the returned ledger-backed Result.
func Run(in Input) (Result, *Ledger) {
	cal := NewCalendar(in.Days, in.SlotGranularityMin, in.WorkStartMin, in.WorkEndMin, in.Breaks)
	reg := NewRegistry(in.Rooms, in.Sections)
	ledger := NewLedger()
	rng := NewRNG(in.Seed)
	maxAttempts := in.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 2000
	}
	engine := NewEngine(cal, reg, ledger, rng, maxAttempts)

	grouped := GroupCombined(in.Courses)
	baskets, singular := GroupBaskets(grouped, reg)
	ordered := orderCourses(singular)

	var warnings []Warning
	var attempts, depth int

	courseWarnings, courseAttempts, courseDepth := engine.RunCourses(ordered)
	warnings = append(warnings, courseWarnings...)
	attempts += courseAttempts
	depth += courseDepth

	for _, basket := range baskets {
		basketWarnings := runBasket(engine, basket)
		warnings = append(warnings, basketWarnings...)
	}

	deficits := Validate(ledger, append(ordered, flattenBaskets(baskets)...))
	warnings = append(warnings, engine.Repair(deficits)...)

	return Result{
		Assignments:    ledger.Assignments(),
		Warnings:       warnings,
		AttemptCount:   attempts,
		BacktrackDepth: depth,
		Seed:           in.Seed,
	}, ledger
}

// orderCourses sorts courses by (-lab_count, -total_sessions,
// -enrollment), the deterministic ordering guarantee of §5.
func orderCourses(courses []Course) []Course {
	out := append([]Course(nil), courses...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.LabSessionCount() != b.LabSessionCount() {
			return a.LabSessionCount() > b.LabSessionCount()
		}
		aTotal := a.LabSessionCount() + a.LectureSessionCount() + a.TutorialSessionCount()
		bTotal := b.LabSessionCount() + b.LectureSessionCount() + b.TutorialSessionCount()
		if aTotal != bTotal {
			return aTotal > bTotal
		}
		return a.Enrollment > b.Enrollment
	})
	return out
}

// runBasket places every session of a basket: since every elective in a
// basket shares an L-T-P profile, the lead course's session counts apply
// to the whole group, labs first then lectures then tutorials.
func runBasket(e *Engine, basket Basket) []Warning {
	if len(basket.Courses) == 0 {
		return nil
	}
	lead := basket.Courses[0]
	var warnings []Warning
	for _, kind := range []SessionKind{Lab, Lecture, Tutorial} {
		count := sessionCountFor(lead, kind)
		for i := 0; i < count; i++ {
			_, w, _ := e.PlaceBasket(basket, kind)
			warnings = append(warnings, w...)
		}
	}
	return warnings
}

func sessionCountFor(c Course, kind SessionKind) int {
	switch kind {
	case Lab:
		return c.LabSessionCount()
	case Lecture:
		return c.LectureSessionCount()
	case Tutorial:
		return c.TutorialSessionCount()
	default:
		return 0
	}
}

func flattenBaskets(baskets []Basket) []Course {
	var out []Course
	for _, b := range baskets {
		out = append(out, b.Courses...)
	}
	return out
}
