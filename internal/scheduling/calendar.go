package scheduling

// Calendar enumerates the working week and the fixed breaks, and answers
// candidate-interval queries for the placement engine. It is built once
// per generation run from configuration and is read-only thereafter.
type Calendar struct {
	days             []Day
	slotGranularity  int // minutes
	workStartMin     int
	workEndMin       int
	institutionBreaks []BreakWindow // morning, snack: apply to every department
	deptLunch        map[string]BreakWindow
}

// NewCalendar builds a Calendar from configured working hours, slot
// granularity, the day list, and the break windows. Lunch breaks are
// indexed by department; all other breaks apply institute-wide.
func NewCalendar(days []Day, slotGranularityMin, workStartMin, workEndMin int, breaks []BreakWindow) *Calendar {
	cal := &Calendar{
		days:            append([]Day(nil), days...),
		slotGranularity: slotGranularityMin,
		workStartMin:    workStartMin,
		workEndMin:      workEndMin,
		deptLunch:       make(map[string]BreakWindow),
	}
	for _, b := range breaks {
		if b.Kind == BreakLunch {
			cal.deptLunch[b.Dept] = b
			continue
		}
		cal.institutionBreaks = append(cal.institutionBreaks, b)
	}
	return cal
}

// Days returns the configured working days in calendar order.
func (c *Calendar) Days() []Day {
	return append([]Day(nil), c.days...)
}

// InBreak reports whether iv overlaps any break window applicable to dept
// (the institute-wide breaks plus dept's own lunch window, if configured).
// Snack windows are not counted: they only label export-view cells.
func (c *Calendar) InBreak(iv Interval, dept string) bool {
	for _, b := range c.institutionBreaks {
		if b.Kind == BreakSnack {
			continue
		}
		if b.Interval.Day == iv.Day && iv.Overlaps(b.Interval) {
			return true
		}
	}
	if lunch, ok := c.deptLunch[dept]; ok && lunch.Interval.Day == iv.Day && iv.Overlaps(lunch.Interval) {
		return true
	}
	return false
}

// CandidateIntervals returns every Interval of kind's fixed duration on day
// that starts on the slot grid, lies wholly within working hours, and does
// not overlap any break window applicable to dept. Results are ordered by
// ascending start minute.
func (c *Calendar) CandidateIntervals(day Day, kind SessionKind, dept string) []Interval {
	duration := kind.DurationMinutes()
	var out []Interval
	for start := c.workStartMin; start+duration <= c.workEndMin; start += c.slotGranularity {
		iv := Interval{Day: day, StartMin: start, EndMin: start + duration}
		if c.InBreak(iv, dept) {
			continue
		}
		out = append(out, iv)
	}
	return out
}
