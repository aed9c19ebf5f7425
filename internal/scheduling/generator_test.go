package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultInput() Input {
	return Input{
		Days:               []Day{Monday, Tuesday, Wednesday, Thursday, Friday},
		SlotGranularityMin: 30,
		WorkStartMin:       9 * 60,
		WorkEndMin:         19*60 + 30,
		Breaks: []BreakWindow{
			{Kind: BreakMorning, Interval: Interval{StartMin: 10 * 60, EndMin: 10*60 + 30}, Label: "Morning Break"},
			{Kind: BreakLunch, Dept: "CSE", Interval: Interval{StartMin: 13 * 60, EndMin: 14 * 60}, Label: "Lunch"},
		},
		MaxAttempts: 2000,
		Seed:        1,
	}
}

func TestRunEmptyScheduleHasNoAssignmentsOrWarnings(t *testing.T) {
	in := defaultInput()
	result, _ := Run(in)
	assert.Empty(t, result.Assignments)
	assert.Empty(t, result.Warnings)
}

func TestRunSingleLecturePlacesOneNinetyMinuteSession(t *testing.T) {
	in := defaultInput()
	in.Rooms = []Room{{ID: "R1", Kind: LectureRoom, Capacity: 60}}
	in.Sections = []Section{{SectionID: "S1", Department: "CSE", Semester: 1, Enrollment: 30}}
	in.Courses = []Course{{CourseCode: "CS101", SectionID: "S1", FacultySet: FacultySet{"F1"}, L: 1.5, Enrollment: 30}}

	result, _ := Run(in)
	require.Len(t, result.Assignments, 1)
	a := result.Assignments[0]
	assert.Equal(t, Lecture, a.Kind)
	assert.Equal(t, 90, a.Interval.Duration())
	assert.Empty(t, result.Warnings)
}

func TestRunLabAdjacencyAvoidsConsecutiveDays(t *testing.T) {
	in := defaultInput()
	in.Days = []Day{Monday, Tuesday, Wednesday}
	in.Rooms = []Room{{ID: "L1", Kind: HardwareLab, Capacity: 40}}
	in.Sections = []Section{{SectionID: "S1", Department: "ECE", Semester: 1, Enrollment: 30}}
	in.Courses = []Course{{CourseCode: "EC201", SectionID: "S1", FacultySet: FacultySet{"F1"}, P: 4, Enrollment: 30}}

	result, _ := Run(in)
	require.Len(t, result.Assignments, 2)
	d0, d1 := result.Assignments[0].Interval.Day, result.Assignments[1].Interval.Day
	assert.NotEqual(t, d0, d1)
	diff := int(d0) - int(d1)
	assert.NotEqual(t, 1, abs(diff), "lab sessions must not land on adjacent days")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func TestRunFacultyConflictKeepsLecturesNonOverlapping(t *testing.T) {
	in := defaultInput()
	in.Rooms = []Room{
		{ID: "R1", Kind: LectureRoom, Capacity: 60},
		{ID: "R2", Kind: LectureRoom, Capacity: 60},
	}
	in.Sections = []Section{
		{SectionID: "S1", Department: "CSE", Semester: 1, Enrollment: 30},
		{SectionID: "S2", Department: "CSE", Semester: 1, Enrollment: 30},
	}
	in.Courses = []Course{
		{CourseCode: "CS101", SectionID: "S1", FacultySet: FacultySet{"F1"}, L: 1.5, Enrollment: 30},
		{CourseCode: "CS102", SectionID: "S2", FacultySet: FacultySet{"F1"}, L: 1.5, Enrollment: 30},
	}

	result, _ := Run(in)
	require.Len(t, result.Assignments, 2)
	assert.False(t, result.Assignments[0].Interval.Overlaps(result.Assignments[1].Interval))
}

func TestRunCombinedTeachingProducesOneAssignmentAcrossSections(t *testing.T) {
	in := defaultInput()
	in.Rooms = []Room{
		{ID: "SMALL", Kind: LectureRoom, Capacity: 60},
		{ID: "MEDIUM", Kind: LectureRoom, Capacity: 120},
		{ID: "LARGE", Kind: LectureRoom, Capacity: 250},
	}
	in.Sections = []Section{
		{SectionID: "S1", Department: "CSE", Semester: 1, Enrollment: 50},
		{SectionID: "S2", Department: "CSE", Semester: 1, Enrollment: 50},
		{SectionID: "S3", Department: "CSE", Semester: 1, Enrollment: 50},
	}
	in.Courses = []Course{
		{CourseCode: "CS300", SectionID: "S1", FacultySet: FacultySet{"F1"}, L: 1.5, Enrollment: 50, IsCombined: true},
		{CourseCode: "CS300", SectionID: "S2", FacultySet: FacultySet{"F1"}, L: 1.5, Enrollment: 50, IsCombined: true},
		{CourseCode: "CS300", SectionID: "S3", FacultySet: FacultySet{"F1"}, L: 1.5, Enrollment: 50, IsCombined: true},
	}

	result, _ := Run(in)
	require.Len(t, result.Assignments, 1)
	a := result.Assignments[0]
	assert.Len(t, a.SectionIDs, 3)
	assert.Equal(t, []string{"LARGE"}, a.RoomIDs)
}

func TestRunElectiveBasketSharesIntervalAcrossDistinctRooms(t *testing.T) {
	in := defaultInput()
	in.Rooms = []Room{
		{ID: "R1", Kind: LectureRoom, Capacity: 40},
		{ID: "R2", Kind: LectureRoom, Capacity: 45},
	}
	in.Sections = []Section{
		{SectionID: "S1", Department: "CSE", Semester: 3, Enrollment: 35},
		{SectionID: "S2", Department: "CSE", Semester: 3, Enrollment: 40},
	}
	in.Courses = []Course{
		{CourseCode: "EL1", SectionID: "S1", FacultySet: FacultySet{"F1"}, L: 1.5, Enrollment: 35, IsElective: true, BasketID: "B1"},
		{CourseCode: "EL2", SectionID: "S2", FacultySet: FacultySet{"F2"}, L: 1.5, Enrollment: 40, IsElective: true, BasketID: "B1"},
	}

	result, _ := Run(in)
	require.Len(t, result.Assignments, 2)
	assert.Equal(t, result.Assignments[0].Interval, result.Assignments[1].Interval)
	assert.NotEqual(t, result.Assignments[0].RoomIDs[0], result.Assignments[1].RoomIDs[0])
	assert.Equal(t, "B1", result.Assignments[0].BasketID)
	assert.Equal(t, "B1", result.Assignments[1].BasketID)
}

func TestLectureSessionCountCeilsExactly(t *testing.T) {
	assert.Equal(t, 1, Course{L: 1.5}.LectureSessionCount())
	assert.Equal(t, 2, Course{L: 3}.LectureSessionCount())
}

func TestRunCombinedTeachingFitsTieredSeater(t *testing.T) {
	in := defaultInput()
	in.Rooms = []Room{
		{ID: "SMALL", Kind: LectureRoom, Capacity: 60},
		{ID: "TIER240", Kind: Seater240, Capacity: 250},
	}
	in.Sections = []Section{
		{SectionID: "S1", Department: "CSE", Semester: 1, Enrollment: 75},
		{SectionID: "S2", Department: "CSE", Semester: 1, Enrollment: 75},
	}
	in.Courses = []Course{
		{CourseCode: "CS400", SectionID: "S1", FacultySet: FacultySet{"F1"}, L: 1.5, Enrollment: 75, IsCombined: true},
		{CourseCode: "CS400", SectionID: "S2", FacultySet: FacultySet{"F1"}, L: 1.5, Enrollment: 75, IsCombined: true},
	}

	result, _ := Run(in)
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, []string{"TIER240"}, result.Assignments[0].RoomIDs)
	assert.Empty(t, result.Warnings)
}

func TestLabSessionCountCeilsHalfSessions(t *testing.T) {
	assert.Equal(t, 2, Course{P: 4}.LabSessionCount())
	assert.Equal(t, 1, Course{P: 2}.LabSessionCount())
	assert.Equal(t, 2, Course{P: 3}.LabSessionCount())
}
