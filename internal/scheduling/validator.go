package scheduling

// Deficit is one (course, kind) shortfall found by Validate, which compares
// the ledger's placed session counts against each course's required counts
// (§4.8). Validate performs no mutation; Repair is the pass that attempts
// to fix deficits.
type Deficit struct {
	Course  Course
	Kind    SessionKind
	Missing int
}

// Validate audits ledger against courses and returns every shortfall.
func Validate(ledger *Ledger, courses []Course) []Deficit {
	placed := ledger.CountByCourseKind()
	var deficits []Deficit
	for _, c := range courses {
		required := RequiredCounts(c)
		have := placed[c.CourseCode]
		for _, kind := range []SessionKind{Lab, Lecture, Tutorial} {
			want := required[kind]
			got := have[kind]
			if got < want {
				deficits = append(deficits, Deficit{Course: c, Kind: kind, Missing: want - got})
			}
		}
	}
	return deficits
}

// Repair attempts one fresh, non-backtracking placement per missing
// session for every deficit found by Validate. It is strictly additive:
// a failed repair attempt never touches an existing commit, it only fails
// to add a new one, and any sessions still missing afterward are
// surfaced as UnresolvedDeficit warnings rather than fatal errors.
func (e *Engine) Repair(deficits []Deficit) []Warning {
	var warnings []Warning
	for _, d := range deficits {
		for i := 0; i < d.Missing; i++ {
			_, placeWarnings, ok := e.Place(d.Course, d.Kind)
			warnings = append(warnings, placeWarnings...)
			if ok {
				continue
			}
			warnings = append(warnings, Warning{
				Kind:        UnresolvedDeficitWarning,
				CourseCode:  d.Course.CourseCode,
				SessionKind: d.Kind,
				Detail:      "course remains short of its required session count after repair",
			})
		}
	}
	return warnings
}
