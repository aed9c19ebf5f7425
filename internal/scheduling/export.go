package scheduling

import "sort"

const displaySlotMinutes = 30

// ExportCell is one (day, display-slot) cell of one timetable's grid.
type ExportCell struct {
	Day        Day
	SlotStart  int // minutes from midnight
	Assignment *Assignment // nil if the cell is empty and not a break
	BreakLabel string      // set instead of Assignment when the cell is a break
}

// ExportView is the immutable, read-only projection of a ledger onto a
// (timetable_key x day x display-slot) grid, consumed by renderers. It is
// built once after placement and repair finish and never mutated again.
type ExportView struct {
	Key   TimetableKey
	Cells []ExportCell
}

// BuildExportViews projects the Assignments that assignmentsBySectionID
// lists for key's section onto a 30-minute-bucketed grid for each requested
// timetable key; ledger itself is not read.
// Each cell reports the Assignment whose interval intersects the bucket,
// breaking ties between overlapping candidates by earliest start; break
// windows fill their cells with the break label regardless of placement.
func BuildExportViews(ledger *Ledger, keys []TimetableKey, cal *Calendar, assignmentsBySectionID map[string][]Assignment) []ExportView {
	views := make([]ExportView, 0, len(keys))
	for _, key := range keys {
		views = append(views, buildOneView(key, cal, assignmentsBySectionID[key.SectionID]))
	}
	return views
}

func buildOneView(key TimetableKey, cal *Calendar, assignments []Assignment) ExportView {
	sorted := append([]Assignment(nil), assignments...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Interval.StartMin < sorted[j].Interval.StartMin })

	view := ExportView{Key: key}
	for _, day := range cal.Days() {
		for slotStart := cal.workStartMin; slotStart < cal.workEndMin; slotStart += displaySlotMinutes {
			slot := Interval{Day: day, StartMin: slotStart, EndMin: slotStart + displaySlotMinutes}
			cell := ExportCell{Day: day, SlotStart: slotStart}

			if label, isBreak := breakLabelFor(cal, slot, key.Department); isBreak {
				cell.BreakLabel = label
				view.Cells = append(view.Cells, cell)
				continue
			}

			for i := range sorted {
				if sorted[i].Interval.Overlaps(slot) {
					cell.Assignment = &sorted[i]
					break // sorted ascending by start: first match is dominant
				}
			}
			view.Cells = append(view.Cells, cell)
		}
	}
	return view
}

func breakLabelFor(cal *Calendar, slot Interval, dept string) (string, bool) {
	for _, b := range cal.institutionBreaks {
		if b.Interval.Day == slot.Day && slot.Overlaps(b.Interval) {
			return b.Label, true
		}
	}
	if lunch, ok := cal.deptLunch[dept]; ok && lunch.Interval.Day == slot.Day && slot.Overlaps(lunch.Interval) {
		return lunch.Label, true
	}
	return "", false
}
