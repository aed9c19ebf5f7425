package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRejectsOverlappingRoomCommit(t *testing.T) {
	l := NewLedger()
	iv := Interval{Day: Monday, StartMin: 540, EndMin: 630}
	_, err := l.TryCommit(Assignment{CourseCode: "A", Kind: Lecture, Interval: iv, RoomIDs: []string{"R1"}, SectionIDs: []string{"S1"}})
	require.NoError(t, err)

	_, err = l.TryCommit(Assignment{CourseCode: "B", Kind: Lecture, Interval: iv, RoomIDs: []string{"R1"}, SectionIDs: []string{"S2"}})
	assert.Error(t, err)
}

func TestLedgerRollbackFreesRoomAndFaculty(t *testing.T) {
	l := NewLedger()
	iv := Interval{Day: Monday, StartMin: 540, EndMin: 630}
	tok, err := l.TryCommit(Assignment{CourseCode: "A", Kind: Lecture, Interval: iv, RoomIDs: []string{"R1"}, FacultySet: FacultySet{"F1"}, SectionIDs: []string{"S1"}})
	require.NoError(t, err)

	l.Rollback(tok)
	assert.True(t, l.IsRoomFree("R1", iv))
	assert.True(t, l.IsFacultyFree(FacultySet{"F1"}, iv))
	assert.Empty(t, l.Assignments())
}

func TestLedgerLabDayConflictDetectsAdjacentDays(t *testing.T) {
	l := NewLedger()
	_, err := l.TryCommit(Assignment{CourseCode: "A", Kind: Lab, Interval: Interval{Day: Monday, StartMin: 540, EndMin: 660}, RoomIDs: []string{"L1"}, SectionIDs: []string{"S1"}})
	require.NoError(t, err)

	assert.True(t, l.LabDayConflict("A", Tuesday))
	assert.False(t, l.LabDayConflict("A", Thursday))
}

func TestLedgerFacultyExclusionAcrossDifferentRooms(t *testing.T) {
	l := NewLedger()
	iv := Interval{Day: Monday, StartMin: 540, EndMin: 630}
	_, err := l.TryCommit(Assignment{CourseCode: "A", Kind: Lecture, Interval: iv, RoomIDs: []string{"R1"}, FacultySet: FacultySet{"F1"}, SectionIDs: []string{"S1"}})
	require.NoError(t, err)

	assert.False(t, l.IsFacultyFree(FacultySet{"F1"}, iv))
	assert.True(t, l.IsFacultyFree(FacultySet{"F2"}, iv))
}
