package allotment

import (
	"sort"

	"github.com/adityahegde/counselflow/internal/pkg/apperrors"
)

// MaxChoices is the ceiling on preference list length
const MaxChoices = 100

// PreferenceEntry is one (course, order) slot of a student's list
type PreferenceEntry struct {
	ChoiceID int64 // 0 until persisted
	CourseID int64
	Order    int // 1-based, contiguous per student
}

// PreferenceList enforces the preference-list contract: mutable until
// submission, then read-only forever. Orders stay a contiguous 1..N
// permutation through every mutation.
type PreferenceList struct {
	StudentID int64
	Submitted bool
	Entries   []PreferenceEntry
}

// NewPreferenceList builds a list from persisted entries, normalizing order
func NewPreferenceList(studentID int64, submitted bool, entries []PreferenceEntry) *PreferenceList {
	sorted := make([]PreferenceEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	return &PreferenceList{StudentID: studentID, Submitted: submitted, Entries: sorted}
}

// Add appends a course at the next preference order
func (l *PreferenceList) Add(courseID int64) (PreferenceEntry, error) {
	if l.Submitted {
		return PreferenceEntry{}, apperrors.ErrChoicesAlreadySubmitted
	}
	if len(l.Entries) >= MaxChoices {
		return PreferenceEntry{}, apperrors.ErrChoiceLimitReached
	}
	for _, e := range l.Entries {
		if e.CourseID == courseID {
			return PreferenceEntry{}, apperrors.ErrDuplicateChoice
		}
	}

	entry := PreferenceEntry{CourseID: courseID, Order: len(l.Entries) + 1}
	l.Entries = append(l.Entries, entry)
	return entry, nil
}

// Remove deletes a choice and re-sequences the remaining orders so they stay
// contiguous. Relative order of untouched entries is preserved.
func (l *PreferenceList) Remove(choiceID int64) error {
	if l.Submitted {
		return apperrors.ErrChoicesAlreadySubmitted
	}

	idx := -1
	for i, e := range l.Entries {
		if e.ChoiceID == choiceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperrors.ErrChoiceNotFound
	}

	l.Entries = append(l.Entries[:idx], l.Entries[idx+1:]...)
	for i := range l.Entries {
		l.Entries[i].Order = i + 1
	}
	return nil
}

// Reorder applies a full choiceID -> order permutation
func (l *PreferenceList) Reorder(orders map[int64]int) error {
	if l.Submitted {
		return apperrors.ErrChoicesAlreadySubmitted
	}
	if len(orders) != len(l.Entries) {
		return apperrors.ErrInvalidPreferenceOrder
	}

	seen := make(map[int]bool, len(orders))
	for _, e := range l.Entries {
		order, ok := orders[e.ChoiceID]
		if !ok || order < 1 || order > len(l.Entries) || seen[order] {
			return apperrors.ErrInvalidPreferenceOrder
		}
		seen[order] = true
	}

	for i := range l.Entries {
		l.Entries[i].Order = orders[l.Entries[i].ChoiceID]
	}
	sort.Slice(l.Entries, func(i, j int) bool { return l.Entries[i].Order < l.Entries[j].Order })
	return nil
}

// Submit locks the list irreversibly. The single transition point: no
// operation may reverse it.
func (l *PreferenceList) Submit() error {
	if l.Submitted {
		return apperrors.ErrChoicesAlreadySubmitted
	}
	if len(l.Entries) == 0 {
		return apperrors.ErrEmptyChoiceList
	}
	l.Submitted = true
	return nil
}

// CourseIDs returns the course ids in preference order
func (l *PreferenceList) CourseIDs() []int64 {
	ids := make([]int64, len(l.Entries))
	for i, e := range l.Entries {
		ids[i] = e.CourseID
	}
	return ids
}
