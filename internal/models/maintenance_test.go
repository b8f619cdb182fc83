package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoreUrgent(t *testing.T) {
	assert.Equal(t, StatusOverdue, MoreUrgent(StatusOverdue, StatusCurrent))
	assert.Equal(t, StatusOverdue, MoreUrgent(StatusCurrent, StatusOverdue))
	assert.Equal(t, StatusCritical, MoreUrgent(StatusDueSoon, StatusCritical))
	assert.Equal(t, StatusCurrent, MoreUrgent(StatusUnknown, StatusCurrent))
	assert.Equal(t, StatusUnknown, MoreUrgent(StatusUnknown, StatusUnknown))
}

func TestDueStatusOrdering(t *testing.T) {
	// The enum order drives record sorting and MoreUrgent.
	assert.True(t, StatusUnknown < StatusCurrent)
	assert.True(t, StatusCurrent < StatusDueSoon)
	assert.True(t, StatusDueSoon < StatusCritical)
	assert.True(t, StatusCritical < StatusOverdue)
}

func TestDueStatusString(t *testing.T) {
	assert.Equal(t, "overdue", StatusOverdue.String())
	assert.Equal(t, "current", StatusCurrent.String())
}

func TestBaseFor(t *testing.T) {
	snap := &AssignmentSnapshot{
		Assignments: map[string]BaseAssignment{
			"LOGAN": {Aircraft: []AssignedAircraft{{TailNumber: "N881SL"}}},
		},
	}
	assert.Equal(t, "LOGAN", snap.BaseFor("N881SL"))
	assert.Empty(t, snap.BaseFor("N999ZZ"))

	var nilSnap *AssignmentSnapshot
	assert.Empty(t, nilSnap.BaseFor("N881SL"))
}
