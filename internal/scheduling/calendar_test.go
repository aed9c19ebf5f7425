package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateIntervalsExcludeBreakWindows(t *testing.T) {
	cal := NewCalendar(
		[]Day{Monday},
		30,
		9*60,
		13*60,
		[]BreakWindow{{Kind: BreakMorning, Interval: Interval{Day: Monday, StartMin: 10 * 60, EndMin: 10*60 + 30}, Label: "Morning Break"}},
	)

	candidates := cal.CandidateIntervals(Monday, Lecture, "CSE")
	require.NotEmpty(t, candidates)
	for _, iv := range candidates {
		assert.False(t, cal.InBreak(iv, "CSE"), "candidate %v must not overlap the morning break", iv)
	}
}

func TestCandidateIntervalsRespectDepartmentLunch(t *testing.T) {
	cal := NewCalendar(
		[]Day{Monday},
		30,
		9*60,
		16*60,
		[]BreakWindow{{Kind: BreakLunch, Dept: "CSE", Interval: Interval{Day: Monday, StartMin: 13 * 60, EndMin: 14 * 60}, Label: "Lunch"}},
	)

	csCandidates := cal.CandidateIntervals(Monday, Lecture, "CSE")
	for _, iv := range csCandidates {
		assert.False(t, iv.Overlaps(Interval{Day: Monday, StartMin: 13 * 60, EndMin: 14 * 60}))
	}

	otherCandidates := cal.CandidateIntervals(Monday, Lecture, "ECE")
	found := false
	for _, iv := range otherCandidates {
		if iv.StartMin == 13*60 {
			found = true
		}
	}
	assert.True(t, found, "a department without a configured lunch window is unaffected by CSE's lunch")
}

func TestIntervalOverlapsRequiresSameDay(t *testing.T) {
	a := Interval{Day: Monday, StartMin: 540, EndMin: 630}
	b := Interval{Day: Tuesday, StartMin: 540, EndMin: 630}
	assert.False(t, a.Overlaps(b))
}
