package scheduling

// GroupCombined folds courses that share the same course_code and
// faculty_set into a single lead Course per the combined-teaching rule:
// one physical session serves every listed section at once. The lead
// course carries CombinedWith populated with the other sections' ids and
// IsCombined set; the other courses in the group are dropped from the
// returned slice since they are represented by the lead.
//
// Placement for a combined course otherwise proceeds exactly as any other
// course (§4.5): the only difference is that Engine.courseContext sums
// enrollment across CombinedWith and Engine.sectionsFree checks every
// combined section's row, and every resulting Assignment carries all
// section ids.
func GroupCombined(courses []Course) []Course {
	type groupKey struct {
		code    string
		faculty string
	}
	groups := make(map[groupKey]*Course)
	var order []groupKey
	var passthrough []Course

	for _, c := range courses {
		if !c.IsCombined {
			passthrough = append(passthrough, c)
			continue
		}
		key := groupKey{code: c.CourseCode, faculty: facultyKey(c.FacultySet)}
		if lead, ok := groups[key]; ok {
			lead.CombinedWith = append(lead.CombinedWith, c.SectionID)
			continue
		}
		lead := c
		groups[key] = &lead
		order = append(order, key)
	}

	out := append([]Course(nil), passthrough...)
	for _, key := range order {
		out = append(out, *groups[key])
	}
	return out
}

func facultyKey(fs FacultySet) string {
	var key string
	for _, id := range fs {
		key += string(id) + ","
	}
	return key
}
