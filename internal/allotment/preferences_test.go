package allotment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityahegde/counselflow/internal/pkg/apperrors"
)

func TestPreferenceListAddAssignsNextOrder(t *testing.T) {
	l := NewPreferenceList(1, false, nil)

	first, err := l.Add(10)
	require.NoError(t, err)
	second, err := l.Add(20)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Order)
	assert.Equal(t, 2, second.Order)
	assert.Equal(t, []int64{10, 20}, l.CourseIDs())
}

func TestPreferenceListRejectsDuplicateCourse(t *testing.T) {
	l := NewPreferenceList(1, false, nil)

	_, err := l.Add(10)
	require.NoError(t, err)
	_, err = l.Add(10)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateChoice)
}

func TestPreferenceListCeiling(t *testing.T) {
	l := NewPreferenceList(1, false, nil)
	for i := 0; i < MaxChoices; i++ {
		_, err := l.Add(int64(i + 1))
		require.NoError(t, err)
	}

	_, err := l.Add(9999)
	assert.ErrorIs(t, err, apperrors.ErrChoiceLimitReached)
}

func TestPreferenceListRemoveResequencesContiguously(t *testing.T) {
	l := NewPreferenceList(1, false, []PreferenceEntry{
		{ChoiceID: 1, CourseID: 10, Order: 1},
		{ChoiceID: 2, CourseID: 20, Order: 2},
		{ChoiceID: 3, CourseID: 30, Order: 3},
	})

	require.NoError(t, l.Remove(2))

	// Relative order of the untouched entries is preserved.
	assert.Equal(t, []int64{10, 30}, l.CourseIDs())
	assert.Equal(t, 1, l.Entries[0].Order)
	assert.Equal(t, 2, l.Entries[1].Order)
}

func TestPreferenceListRemoveUnknownChoice(t *testing.T) {
	l := NewPreferenceList(1, false, []PreferenceEntry{{ChoiceID: 1, CourseID: 10, Order: 1}})
	assert.ErrorIs(t, l.Remove(42), apperrors.ErrChoiceNotFound)
}

func TestPreferenceListReorder(t *testing.T) {
	l := NewPreferenceList(1, false, []PreferenceEntry{
		{ChoiceID: 1, CourseID: 10, Order: 1},
		{ChoiceID: 2, CourseID: 20, Order: 2},
		{ChoiceID: 3, CourseID: 30, Order: 3},
	})

	require.NoError(t, l.Reorder(map[int64]int{1: 3, 2: 1, 3: 2}))
	assert.Equal(t, []int64{20, 30, 10}, l.CourseIDs())
}

func TestPreferenceListOrdersStayUniqueThroughMutations(t *testing.T) {
	l := NewPreferenceList(1, false, []PreferenceEntry{
		{ChoiceID: 1, CourseID: 10, Order: 1},
		{ChoiceID: 2, CourseID: 20, Order: 2},
		{ChoiceID: 3, CourseID: 30, Order: 3},
		{ChoiceID: 4, CourseID: 40, Order: 4},
	})

	require.NoError(t, l.Reorder(map[int64]int{1: 4, 2: 3, 3: 2, 4: 1}))
	require.NoError(t, l.Remove(3))

	// Per-student orders are a contiguous 1..N permutation after any
	// sequence of mutations; the schema enforces the same invariant with
	// choices_student_order_key.
	for i, entry := range l.Entries {
		assert.Equal(t, i+1, entry.Order)
	}
	assert.Equal(t, []int64{40, 20, 10}, l.CourseIDs())
}

func TestPreferenceListReorderRejectsNonPermutation(t *testing.T) {
	l := NewPreferenceList(1, false, []PreferenceEntry{
		{ChoiceID: 1, CourseID: 10, Order: 1},
		{ChoiceID: 2, CourseID: 20, Order: 2},
	})

	assert.ErrorIs(t, l.Reorder(map[int64]int{1: 1, 2: 1}), apperrors.ErrInvalidPreferenceOrder)
	assert.ErrorIs(t, l.Reorder(map[int64]int{1: 1}), apperrors.ErrInvalidPreferenceOrder)
	assert.ErrorIs(t, l.Reorder(map[int64]int{1: 0, 2: 1}), apperrors.ErrInvalidPreferenceOrder)
}

func TestPreferenceListSubmitEmptyRejected(t *testing.T) {
	l := NewPreferenceList(1, false, nil)
	assert.ErrorIs(t, l.Submit(), apperrors.ErrEmptyChoiceList)
}

func TestPreferenceListImmutableAfterSubmit(t *testing.T) {
	l := NewPreferenceList(1, false, []PreferenceEntry{{ChoiceID: 1, CourseID: 10, Order: 1}})
	require.NoError(t, l.Submit())

	_, err := l.Add(20)
	assert.ErrorIs(t, err, apperrors.ErrChoicesAlreadySubmitted)
	assert.ErrorIs(t, l.Remove(1), apperrors.ErrChoicesAlreadySubmitted)
	assert.ErrorIs(t, l.Reorder(map[int64]int{1: 1}), apperrors.ErrChoicesAlreadySubmitted)
	assert.ErrorIs(t, l.Submit(), apperrors.ErrChoicesAlreadySubmitted)
}
