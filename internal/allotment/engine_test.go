package allotment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityahegde/counselflow/internal/app/models"
)

var baseTime = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func generalPool(n int) map[models.Category]int {
	return map[models.Category]int{models.CategoryGeneral: n}
}

// Worked example from the counseling rules: Y (rank 10) takes CourseA's last
// seat, X (rank 50) falls through to CourseB.
func TestEngineMeritOrderFallthrough(t *testing.T) {
	snap := &Snapshot{
		RoundNumber: 1,
		Candidates: []Candidate{
			{StudentID: 1, Rank: 50, Category: models.CategoryGeneral, RegisteredAt: baseTime,
				Preferences: []int64{100, 200}}, // X
			{StudentID: 2, Rank: 10, Category: models.CategoryGeneral, RegisteredAt: baseTime,
				Preferences: []int64{100}}, // Y
		},
		Courses: []CourseCapacity{
			{CourseID: 100, Pools: generalPool(1)},
			{CourseID: 200, Pools: generalPool(5)},
		},
	}

	result, err := NewEngine(snap).Run()
	require.NoError(t, err)

	require.Len(t, result.Allotments, 2)
	assert.Equal(t, int64(2), result.Allotments[0].StudentID) // Y first, better merit
	assert.Equal(t, int64(100), result.Allotments[0].CourseID)
	assert.Equal(t, int64(1), result.Allotments[1].StudentID)
	assert.Equal(t, int64(200), result.Allotments[1].CourseID)
	assert.Equal(t, 2, result.StudentsProcessed)
	assert.Equal(t, 2, result.AllotmentsMade)
	assert.Empty(t, result.Unallotted)
}

// Reserved-category exhaustion: both SC seats filled and the open pool full
// means an SC student goes unallotted, never into another category's pool.
func TestEngineReservedExhaustionLeavesStudentUnallotted(t *testing.T) {
	snap := &Snapshot{
		RoundNumber: 1,
		Candidates: []Candidate{
			{StudentID: 1, Rank: 5, Category: models.CategorySC, RegisteredAt: baseTime, Preferences: []int64{100}},
			{StudentID: 2, Rank: 6, Category: models.CategorySC, RegisteredAt: baseTime, Preferences: []int64{100}},
			{StudentID: 3, Rank: 7, Category: models.CategoryGeneral, RegisteredAt: baseTime, Preferences: []int64{100}},
			{StudentID: 4, Rank: 8, Category: models.CategorySC, RegisteredAt: baseTime, Preferences: []int64{100}},
		},
		Courses: []CourseCapacity{
			{CourseID: 100, Pools: map[models.Category]int{
				models.CategorySC:      2,
				models.CategoryGeneral: 1,
			}},
		},
	}

	result, err := NewEngine(snap).Run()
	require.NoError(t, err)

	assert.Equal(t, 3, result.AllotmentsMade)
	assert.Equal(t, []int64{4}, result.Unallotted)
	// ST pool never existed and SC students never exceeded SC + open seats.
	for _, p := range result.Allotments {
		assert.Contains(t, []models.Category{models.CategorySC, models.CategoryGeneral}, p.SeatPool)
	}
}

func TestEngineDeterministicAcrossRuns(t *testing.T) {
	build := func() *Snapshot {
		return &Snapshot{
			RoundNumber: 2,
			Candidates: []Candidate{
				{StudentID: 3, Rank: 12, Category: models.CategoryOBC, RegisteredAt: baseTime.Add(time.Minute), Preferences: []int64{200, 100}},
				{StudentID: 1, Rank: 12, Category: models.CategoryGeneral, RegisteredAt: baseTime, Preferences: []int64{100, 200}},
				{StudentID: 2, Rank: 4, Category: models.CategoryGeneral, RegisteredAt: baseTime, Preferences: []int64{100}},
			},
			Courses: []CourseCapacity{
				{CourseID: 100, Pools: generalPool(1)},
				{CourseID: 200, Pools: map[models.Category]int{models.CategoryGeneral: 1, models.CategoryOBC: 1}},
			},
		}
	}

	first, err := NewEngine(build()).Run()
	require.NoError(t, err)
	second, err := NewEngine(build()).Run()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, build().Hash(), build().Hash())
}

// Equal ranks are broken by registration time, then id, so the sweep order
// is stable.
func TestEngineRankTieBrokenByRegistrationTime(t *testing.T) {
	snap := &Snapshot{
		RoundNumber: 1,
		Candidates: []Candidate{
			{StudentID: 9, Rank: 10, Category: models.CategoryGeneral, RegisteredAt: baseTime.Add(time.Hour), Preferences: []int64{100}},
			{StudentID: 5, Rank: 10, Category: models.CategoryGeneral, RegisteredAt: baseTime, Preferences: []int64{100}},
		},
		Courses: []CourseCapacity{{CourseID: 100, Pools: generalPool(1)}},
	}

	result, err := NewEngine(snap).Run()
	require.NoError(t, err)

	require.Len(t, result.Allotments, 1)
	assert.Equal(t, int64(5), result.Allotments[0].StudentID)
	assert.Equal(t, []int64{9}, result.Unallotted)
}

func TestEngineSkipsFullCourseWithoutError(t *testing.T) {
	snap := &Snapshot{
		RoundNumber: 1,
		Candidates: []Candidate{
			{StudentID: 1, Rank: 1, Category: models.CategoryGeneral, RegisteredAt: baseTime, Preferences: []int64{100, 200}},
		},
		Courses: []CourseCapacity{
			{CourseID: 100, Pools: generalPool(0)},
			{CourseID: 200, Pools: generalPool(1)},
		},
	}

	result, err := NewEngine(snap).Run()
	require.NoError(t, err)

	require.Len(t, result.Allotments, 1)
	assert.Equal(t, int64(200), result.Allotments[0].CourseID)
	assert.Equal(t, 2, result.Allotments[0].PreferenceOrder)
}

func TestEngineUpgradeHolderOnlyScansBetterSlots(t *testing.T) {
	snap := &Snapshot{
		RoundNumber: 2,
		Candidates: []Candidate{
			{StudentID: 1, Rank: 20, Category: models.CategoryGeneral, RegisteredAt: baseTime,
				Preferences:  []int64{100, 200, 300},
				HeldCourseID: 200, HeldSeatPool: models.CategoryGeneral, HeldPreference: 2},
		},
		Courses: []CourseCapacity{
			{CourseID: 100, Pools: generalPool(0)}, // Better slot still full
			{CourseID: 200, Pools: generalPool(0)}, // Held seat
			{CourseID: 300, Pools: generalPool(3)}, // Worse slot, must not be taken
		},
	}

	result, err := NewEngine(snap).Run()
	require.NoError(t, err)

	assert.Empty(t, result.Allotments)
	assert.Empty(t, result.Unallotted)
	assert.Equal(t, []int64{1}, result.KeptFloor)
}

func TestEngineUpgradeReleasesFloorWithinPass(t *testing.T) {
	snap := &Snapshot{
		RoundNumber: 2,
		Candidates: []Candidate{
			// Upgrade holder with a free better seat.
			{StudentID: 1, Rank: 1, Category: models.CategoryGeneral, RegisteredAt: baseTime,
				Preferences:  []int64{100, 200},
				HeldCourseID: 200, HeldSeatPool: models.CategoryGeneral, HeldPreference: 2},
			// Lower-merit student who wants the freed seat.
			{StudentID: 2, Rank: 2, Category: models.CategoryGeneral, RegisteredAt: baseTime,
				Preferences: []int64{200}},
		},
		Courses: []CourseCapacity{
			{CourseID: 100, Pools: generalPool(1)},
			{CourseID: 200, Pools: generalPool(0)}, // Fully held
		},
	}

	engine := NewEngine(snap)
	result, err := engine.Run()
	require.NoError(t, err)

	require.Len(t, result.Allotments, 2)
	assert.Equal(t, int64(100), result.Allotments[0].CourseID)
	assert.Equal(t, int64(200), result.Allotments[0].SupersededCourseID)
	// The freed floor cascaded to the next student in the same pass.
	assert.Equal(t, int64(2), result.Allotments[1].StudentID)
	assert.Equal(t, int64(200), result.Allotments[1].CourseID)
	assert.Equal(t, 0, engine.Ledger().Available(200))
}

func TestEngineResumeSkipsProcessedStudents(t *testing.T) {
	// Student 1 was committed before the crash: their seat is gone from the
	// rebuilt ledger and the marker excludes them from the retry.
	snap := &Snapshot{
		RoundNumber: 1,
		Candidates: []Candidate{
			{StudentID: 1, Rank: 1, Category: models.CategoryGeneral, RegisteredAt: baseTime, Preferences: []int64{100}},
			{StudentID: 2, Rank: 2, Category: models.CategoryGeneral, RegisteredAt: baseTime, Preferences: []int64{100, 200}},
		},
		Courses: []CourseCapacity{
			{CourseID: 100, Pools: generalPool(0)}, // Already taken by student 1
			{CourseID: 200, Pools: generalPool(1)},
		},
	}

	result, err := NewEngine(snap, WithProcessed([]int64{1})).Run()
	require.NoError(t, err)

	assert.Equal(t, 1, result.StudentsProcessed)
	require.Len(t, result.Allotments, 1)
	assert.Equal(t, int64(2), result.Allotments[0].StudentID)
	assert.Equal(t, int64(200), result.Allotments[0].CourseID)
}

func TestEngineResumeDoesNotCountSeatlessMarkersAsAllotments(t *testing.T) {
	// Students 1 and 2 were committed before the crash and student 2 got no
	// seat. The retry's counts cover only the students it actually swept;
	// a marker alone never turns into an allotment.
	snap := &Snapshot{
		RoundNumber: 1,
		Candidates: []Candidate{
			{StudentID: 1, Rank: 1, Category: models.CategoryGeneral, RegisteredAt: baseTime, Preferences: []int64{100}},
			{StudentID: 2, Rank: 2, Category: models.CategoryGeneral, RegisteredAt: baseTime, Preferences: []int64{100}},
			{StudentID: 3, Rank: 3, Category: models.CategoryGeneral, RegisteredAt: baseTime, Preferences: []int64{200}},
		},
		Courses: []CourseCapacity{
			{CourseID: 100, Pools: generalPool(0)}, // Taken by student 1 pre-crash
			{CourseID: 200, Pools: generalPool(1)},
		},
	}

	result, err := NewEngine(snap, WithProcessed([]int64{1, 2})).Run()
	require.NoError(t, err)

	assert.Equal(t, 1, result.StudentsProcessed)
	assert.Equal(t, 1, result.AllotmentsMade)
	require.Len(t, result.Allotments, 1)
	assert.Equal(t, int64(3), result.Allotments[0].StudentID)
	assert.Empty(t, result.Unallotted)
}

func TestEngineEmptyPreferencesUnallotted(t *testing.T) {
	snap := &Snapshot{
		RoundNumber: 1,
		Candidates: []Candidate{
			{StudentID: 1, Rank: 1, Category: models.CategoryGeneral, RegisteredAt: baseTime},
		},
		Courses: []CourseCapacity{{CourseID: 100, Pools: generalPool(1)}},
	}

	result, err := NewEngine(snap).Run()
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, result.Unallotted)
}
