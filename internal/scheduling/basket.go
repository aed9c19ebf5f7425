package scheduling

// Basket groups the electives of one (department, semester, basket_id)
// that must run concurrently: students pick one, so every elective in the
// basket needs its own room at the exact same interval.
type Basket struct {
	BasketID string
	Courses  []Course
}

// GroupBaskets partitions is_elective courses into Baskets keyed by
// (department, semester, basket_id) using dept as resolved by the
// registry; non-elective courses pass through unchanged in the second
// return value.
func GroupBaskets(courses []Course, reg *Registry) (baskets []Basket, rest []Course) {
	type key struct {
		dept     string
		semester int
		basket   string
	}
	order := make([]key, 0)
	byKey := make(map[key][]Course)

	for _, c := range courses {
		if !c.IsElective || c.BasketID == "" {
			rest = append(rest, c)
			continue
		}
		dept := ""
		semester := 0
		if s, ok := reg.Section(c.SectionID); ok {
			dept = s.Department
			semester = s.Semester
		}
		k := key{dept: dept, semester: semester, basket: c.BasketID}
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], c)
	}

	for _, k := range order {
		baskets = append(baskets, Basket{BasketID: k.basket, Courses: byKey[k]})
	}
	return baskets, rest
}

// PlaceBasket runs the elective-basket coordinator for one basket and one
// session kind shared by every elective in it (baskets share an L-T-P
// profile, so every elective needs the same count of each kind): it
// treats the basket as a single logical course for interval selection,
// then requires every elective in the basket to find a distinct room at
// that interval before committing any of them. Faculty exclusion blocks
// the union of every elective's faculty set for the interval, since they
// all run in parallel.
func (e *Engine) PlaceBasket(basket Basket, kind SessionKind) ([]Assignment, []Warning, bool) {
	if len(basket.Courses) == 0 {
		return nil, nil, true
	}
	lead := basket.Courses[0]
	dept, _ := e.courseContext(lead)

	days := e.rng.ShuffleDays(e.calendar.Days())
	for _, day := range days {
		candidates := e.rng.ShuffleIntervals(e.calendar.CandidateIntervals(day, kind, dept))
		for _, iv := range candidates {
			if !e.basketRowsFree(basket, iv) {
				continue
			}
			if !e.basketFacultyFree(basket, iv) {
				continue
			}
			plans, ok := e.planBasketRooms(basket, kind, iv)
			if !ok {
				continue
			}
			return e.commitBasket(basket, kind, iv, plans)
		}
	}
	var warnings []Warning
	for _, c := range basket.Courses {
		warnings = append(warnings, Warning{Kind: InfeasibleSessionWarning, CourseCode: c.CourseCode, SessionKind: kind, Detail: "basket could not find a shared interval with a room for every elective"})
	}
	return nil, warnings, false
}

func (e *Engine) basketRowsFree(basket Basket, iv Interval) bool {
	for _, c := range basket.Courses {
		if !e.ledger.IsSectionFree(c.SectionID, iv) {
			return false
		}
	}
	return true
}

func (e *Engine) basketFacultyFree(basket Basket, iv Interval) bool {
	var union FacultySet
	for _, c := range basket.Courses {
		union = append(union, c.FacultySet...)
	}
	return e.ledger.IsFacultyFree(union, iv)
}

// planBasketRooms picks a distinct room for every elective at iv. Rooms
// already claimed by an earlier elective in this same candidate pass are
// excluded so two electives in the basket never double-book a room.
func (e *Engine) planBasketRooms(basket Basket, kind SessionKind, iv Interval) ([]placementPlan, bool) {
	claimed := make(map[string]bool)
	plans := make([]placementPlan, 0, len(basket.Courses))
	for _, c := range basket.Courses {
		_, enrollment := e.courseContext(c)
		roomIDs, shortfall, ok := e.pickBasketRoom(c, kind, enrollment, iv, claimed)
		if !ok {
			return nil, false
		}
		for _, id := range roomIDs {
			claimed[id] = true
		}
		plans = append(plans, placementPlan{interval: iv, roomIDs: roomIDs, capacityWarning: shortfall})
	}
	return plans, true
}

func (e *Engine) pickBasketRoom(c Course, kind SessionKind, enrollment int, iv Interval, claimed map[string]bool) ([]string, bool, bool) {
	candidates, shortfall := roomsForKind(e.registry, kind, c.SoftwareLab, enrollment)
	for _, room := range candidates {
		if claimed[room.ID] {
			continue
		}
		if e.ledger.IsRoomFree(room.ID, iv) {
			return []string{room.ID}, shortfall, true
		}
	}
	return nil, false, false
}

// commitBasket writes one Assignment per elective, all sharing iv, after
// planBasketRooms confirmed every elective can be seated; any commit
// failure here rolls back the whole batch so the basket is all-or-nothing.
func (e *Engine) commitBasket(basket Basket, kind SessionKind, iv Interval, plans []placementPlan) ([]Assignment, []Warning, bool) {
	var committed []Assignment
	var tokens []CommitToken
	var warnings []Warning

	for i, c := range basket.Courses {
		plan := plans[i]
		a := Assignment{
			CourseCode:      c.CourseCode,
			Kind:            kind,
			Interval:        iv,
			RoomIDs:         plan.roomIDs,
			FacultySet:      c.FacultySet,
			SectionIDs:      []string{c.SectionID},
			BasketID:        basket.BasketID,
			CapacityWarning: plan.capacityWarning,
		}
		tok, err := e.ledger.TryCommit(a)
		if err != nil {
			for j := len(tokens) - 1; j >= 0; j-- {
				e.ledger.Rollback(tokens[j])
			}
			return nil, []Warning{{Kind: InfeasibleSessionWarning, CourseCode: c.CourseCode, SessionKind: kind, Detail: "basket partial commit failed: " + err.Error()}}, false
		}
		if plan.capacityWarning {
			warnings = append(warnings, Warning{Kind: CapacityWarning, CourseCode: c.CourseCode, SessionKind: kind, Detail: "best available room is smaller than enrollment"})
		}
		tokens = append(tokens, tok)
		committed = append(committed, a)
	}
	return committed, warnings, true
}
