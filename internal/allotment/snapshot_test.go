package allotment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityahegde/counselflow/internal/app/models"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		RoundNumber: 3,
		Candidates: []Candidate{
			{StudentID: 2, Rank: 40, Category: models.CategoryOBC,
				RegisteredAt: time.Unix(1700000100, 0).UTC(), Preferences: []int64{200}},
			{StudentID: 1, Rank: 7, Category: models.CategoryGeneral,
				RegisteredAt: time.Unix(1700000000, 0).UTC(), Preferences: []int64{100, 200}},
		},
		Courses: []CourseCapacity{
			{CourseID: 200, Pools: map[models.Category]int{models.CategoryGeneral: 3}},
			{CourseID: 100, Pools: map[models.Category]int{models.CategoryGeneral: 1, models.CategoryOBC: 1}},
		},
	}
}

func TestSnapshotHashStableUnderInputOrder(t *testing.T) {
	a := sampleSnapshot()

	b := sampleSnapshot()
	b.Candidates[0], b.Candidates[1] = b.Candidates[1], b.Candidates[0]
	b.Courses[0], b.Courses[1] = b.Courses[1], b.Courses[0]

	assert.Equal(t, a.Hash(), b.Hash())
}

func TestSnapshotHashChangesWithInputs(t *testing.T) {
	a := sampleSnapshot()
	base := a.Hash()

	b := sampleSnapshot()
	b.Courses[0].Pools[models.CategoryGeneral]++
	assert.NotEqual(t, base, b.Hash())

	c := sampleSnapshot()
	c.Candidates[0].Preferences = []int64{200, 100}
	assert.NotEqual(t, base, c.Hash())

	d := sampleSnapshot()
	d.RoundNumber++
	assert.NotEqual(t, base, d.Hash())
}

func TestSnapshotNormalizeOrdersByMerit(t *testing.T) {
	s := sampleSnapshot()
	s.Normalize()

	require.Len(t, s.Candidates, 2)
	assert.Equal(t, int64(1), s.Candidates[0].StudentID)
	assert.Equal(t, int64(100), s.Courses[0].CourseID)
}

func TestSnapshotBuildLedger(t *testing.T) {
	s := sampleSnapshot()
	ledger := s.BuildLedger()

	assert.Equal(t, 2, ledger.Available(100))
	assert.Equal(t, 3, ledger.Available(200))
}
