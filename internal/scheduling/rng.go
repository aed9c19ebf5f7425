package scheduling

import "math/rand"

// RNG is an explicit pseudo-random handle threaded through the engine,
// replacing any module-level/global seeding: the same seed always
// produces the same draw sequence, and two engines never share state.
type RNG struct {
	r *rand.Rand
}

// NewRNG builds an RNG from a fixed seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewSource(seed))}
}

// ShuffleDays returns a copy of days in a random order.
func (g *RNG) ShuffleDays(days []Day) []Day {
	out := append([]Day(nil), days...)
	g.r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// ShuffleIntervals returns a copy of intervals in a random order. Room
// order is never shuffled elsewhere in the engine — only day and interval
// scanning order are randomized; tightest-fit room selection stays
// deterministic.
func (g *RNG) ShuffleIntervals(intervals []Interval) []Interval {
	out := append([]Interval(nil), intervals...)
	g.r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
