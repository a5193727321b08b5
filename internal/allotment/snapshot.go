package allotment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/adityahegde/counselflow/internal/app/models"
)

// Candidate is one student in a round's frozen input snapshot
type Candidate struct {
	StudentID    int64
	Rank         int // Positive, lower is better
	Category     models.Category
	RegisteredAt time.Time // Merit tiebreaker for equal ranks

	// Preferences holds course ids in preference order (submitted list).
	Preferences []int64

	// Upgrade floor from an accepted_upgrade seat in an earlier round.
	// HeldPreference is the 1-based slot of the held course in Preferences;
	// the engine only scans strictly better slots. Zero values mean no floor.
	HeldCourseID   int64
	HeldSeatPool   models.Category
	HeldPreference int
}

// CourseCapacity is the remaining per-pool seat state of one course at
// round start
type CourseCapacity struct {
	CourseID int64
	Pools    map[models.Category]int
}

// Snapshot is the immutable input of one engine pass: candidates, seat
// states and round number, frozen before processing. Identical snapshots
// hash identically, which is what makes replay detection and re-auditing a
// round possible.
type Snapshot struct {
	RoundNumber int
	Candidates  []Candidate
	Courses     []CourseCapacity
}

// Normalize sorts the snapshot into canonical order: candidates by merit
// (rank, registration time, id), courses by id.
func (s *Snapshot) Normalize() {
	sort.SliceStable(s.Candidates, func(i, j int) bool {
		a, b := s.Candidates[i], s.Candidates[j]
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		if !a.RegisteredAt.Equal(b.RegisteredAt) {
			return a.RegisteredAt.Before(b.RegisteredAt)
		}
		return a.StudentID < b.StudentID
	})
	sort.Slice(s.Courses, func(i, j int) bool {
		return s.Courses[i].CourseID < s.Courses[j].CourseID
	})
}

// Hash returns the SHA-256 of the canonical serialization. The serialization
// format is a persisted compatibility surface: stored on the round row and
// compared on replay, so it must stay stable across releases.
func (s *Snapshot) Hash() string {
	s.Normalize()

	var b strings.Builder
	fmt.Fprintf(&b, "round:%d\n", s.RoundNumber)
	for _, c := range s.Candidates {
		fmt.Fprintf(&b, "s:%d|r:%d|c:%s|t:%d|h:%d/%s/%d|p:", c.StudentID, c.Rank, c.Category,
			c.RegisteredAt.UnixNano(), c.HeldCourseID, c.HeldSeatPool, c.HeldPreference)
		for i, courseID := range c.Preferences {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "%d", courseID)
		}
		b.WriteByte('\n')
	}
	for _, course := range s.Courses {
		fmt.Fprintf(&b, "course:%d|", course.CourseID)
		for _, cat := range models.Categories {
			fmt.Fprintf(&b, "%s:%d,", cat, course.Pools[cat])
		}
		b.WriteByte('\n')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// BuildLedger materializes a quota ledger from the snapshot's seat states
func (s *Snapshot) BuildLedger() *Ledger {
	ledger := NewLedger()
	for _, course := range s.Courses {
		ledger.AddCourse(course.CourseID, course.Pools)
	}
	return ledger
}
