package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllotmentStatusTransitions(t *testing.T) {
	cases := []struct {
		from    AllotmentStatus
		to      AllotmentStatus
		allowed bool
	}{
		{StatusAllotted, StatusAcceptedFrozen, true},
		{StatusAllotted, StatusAcceptedUpgrade, true},
		{StatusAllotted, StatusRejected, true},
		{StatusAllotted, StatusCancelled, true},
		{StatusAllotted, StatusUpgraded, false},
		{StatusAcceptedUpgrade, StatusUpgraded, true},
		{StatusAcceptedUpgrade, StatusRejected, false},
		{StatusAcceptedUpgrade, StatusAcceptedFrozen, false},
		{StatusAcceptedFrozen, StatusRejected, false},
		{StatusAcceptedFrozen, StatusUpgraded, false},
		{StatusRejected, StatusAllotted, false},
		{StatusUpgraded, StatusAcceptedFrozen, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.allowed, c.from.CanTransitionTo(c.to),
			"%s -> %s", c.from, c.to)
	}
}

func TestAllotmentStatusTerminal(t *testing.T) {
	assert.False(t, StatusAllotted.IsTerminal())
	assert.False(t, StatusAcceptedUpgrade.IsTerminal())
	assert.True(t, StatusAcceptedFrozen.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusUpgraded.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestCourseSeatHelpers(t *testing.T) {
	minRank, maxRank := 100, 5000
	course := Course{
		GeneralSeats: 3, SCSeats: 1,
		MinRank: &minRank, MaxRank: &maxRank,
		AcceptedExamTypes: []ExamType{ExamKCET},
	}

	assert.Equal(t, 3, course.SeatsFor(CategoryGeneral))
	assert.Equal(t, 1, course.SeatsFor(CategorySC))
	assert.Equal(t, 0, course.SeatsFor(CategoryST))

	assert.True(t, course.InRankWindow(100))
	assert.True(t, course.InRankWindow(5000))
	assert.False(t, course.InRankWindow(99))
	assert.False(t, course.InRankWindow(5001))

	assert.True(t, course.AcceptsExam(ExamKCET))
	assert.False(t, course.AcceptsExam(ExamCOMEDK))
}
