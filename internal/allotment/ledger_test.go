package allotment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityahegde/counselflow/internal/app/models"
	"github.com/adityahegde/counselflow/internal/pkg/apperrors"
)

func newTestLedger() *Ledger {
	l := NewLedger()
	l.AddCourse(1, map[models.Category]int{
		models.CategoryGeneral: 2,
		models.CategorySC:      1,
	})
	return l
}

func TestLedgerReserveChargesReservedPoolFirst(t *testing.T) {
	l := newTestLedger()

	pool, err := l.Reserve(1, models.CategorySC)
	require.NoError(t, err)
	assert.Equal(t, models.CategorySC, pool)
	assert.Equal(t, 0, l.Remaining(1, models.CategorySC))
	assert.Equal(t, 2, l.Remaining(1, models.CategoryGeneral))
}

func TestLedgerReservedCategoryFallsBackToOpenPool(t *testing.T) {
	l := newTestLedger()

	_, err := l.Reserve(1, models.CategorySC)
	require.NoError(t, err)

	// SC pool exhausted: the next SC student lands in the open pool.
	pool, err := l.Reserve(1, models.CategorySC)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryGeneral, pool)
	assert.Equal(t, 1, l.Remaining(1, models.CategoryGeneral))
}

func TestLedgerGeneralNeverTakesReservedSeats(t *testing.T) {
	l := newTestLedger()

	_, err := l.Reserve(1, models.CategoryGeneral)
	require.NoError(t, err)
	_, err = l.Reserve(1, models.CategoryGeneral)
	require.NoError(t, err)

	// Open pool empty, SC seat still free: a General student gets nothing.
	_, err = l.Reserve(1, models.CategoryGeneral)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientCapacity)
	assert.Equal(t, 1, l.Remaining(1, models.CategorySC))
}

func TestLedgerReserveIsAllOrNothing(t *testing.T) {
	l := NewLedger()
	l.AddCourse(7, map[models.Category]int{models.CategoryGeneral: 0})

	_, err := l.Reserve(7, models.CategoryOBC)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientCapacity)
	assert.Equal(t, 0, l.Available(7))
	assert.Equal(t, 0, l.Filled(7, models.CategoryGeneral))
}

func TestLedgerReserveUnknownCourse(t *testing.T) {
	l := NewLedger()
	_, err := l.Reserve(99, models.CategoryGeneral)
	assert.ErrorIs(t, err, apperrors.ErrUnknownCourse)
}

func TestLedgerReleaseReturnsSeatToChargedPool(t *testing.T) {
	l := newTestLedger()

	pool, err := l.Reserve(1, models.CategorySC)
	require.NoError(t, err)

	require.NoError(t, l.Release(1, pool))
	assert.Equal(t, 1, l.Remaining(1, models.CategorySC))
	assert.Equal(t, 0, l.Filled(1, models.CategorySC))
}

func TestLedgerReleaseNeverDrivesFilledNegative(t *testing.T) {
	l := newTestLedger()

	require.NoError(t, l.Release(1, models.CategorySC))
	require.NoError(t, l.Release(1, models.CategorySC))

	// The working pool grows with each freed seat; filled never dips
	// below zero.
	assert.Equal(t, 3, l.Remaining(1, models.CategorySC))
	assert.Equal(t, 5, l.Available(1))
	assert.Equal(t, 0, l.Filled(1, models.CategorySC))
}

func TestLedgerReleaseGrowsPoolThatEnteredRoundExhausted(t *testing.T) {
	l := NewLedger()
	l.AddCourse(200, map[models.Category]int{models.CategoryGeneral: 0})

	// A held seat charged in an earlier round is freed mid-sweep: the pool
	// must inherit it even though the round started at zero.
	require.NoError(t, l.Release(200, models.CategoryGeneral))
	assert.Equal(t, 1, l.Available(200))
	assert.Equal(t, 0, l.Filled(200, models.CategoryGeneral))

	pool, err := l.Reserve(200, models.CategoryGeneral)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryGeneral, pool)
	assert.Equal(t, 0, l.Available(200))
}

func TestLedgerCapacityInvariantHeld(t *testing.T) {
	l := NewLedger()
	total := 5
	l.AddCourse(3, map[models.Category]int{
		models.CategoryGeneral: 2,
		models.CategoryOBC:     2,
		models.CategoryEWS:     1,
	})

	// Drain every pool through mixed reservations.
	cats := []models.Category{
		models.CategoryOBC, models.CategoryOBC, models.CategoryEWS,
		models.CategoryGeneral, models.CategoryOBC,
	}
	granted := 0
	for _, cat := range cats {
		pool, err := l.Reserve(3, cat)
		if err == nil {
			granted++
			assert.LessOrEqual(t, l.Filled(3, pool), total)
		}
	}
	assert.Equal(t, total, granted)
	assert.Equal(t, 0, l.Available(3))

	// Nothing left for anyone.
	_, err := l.Reserve(3, models.CategorySC)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientCapacity)
}

func TestLedgerClone(t *testing.T) {
	l := newTestLedger()
	clone := l.Clone()

	_, err := l.Reserve(1, models.CategoryGeneral)
	require.NoError(t, err)

	assert.Equal(t, 1, l.Remaining(1, models.CategoryGeneral))
	assert.Equal(t, 2, clone.Remaining(1, models.CategoryGeneral))
}
