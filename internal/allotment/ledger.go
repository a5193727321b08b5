package allotment

import (
	"sync"

	"github.com/adityahegde/counselflow/internal/app/models"
	"github.com/adityahegde/counselflow/internal/pkg/apperrors"
)

// courseSeats tracks the remaining seats of one course, split into the open
// (General) pool and the category-reserved pools. capacity holds the round's
// working pool sizes; it grows when a held seat from an earlier round is
// freed back into the pass.
type courseSeats struct {
	remaining map[models.Category]int
	capacity  map[models.Category]int
}

func (cs *courseSeats) available() int {
	total := 0
	for _, n := range cs.remaining {
		total += n
	}
	return total
}

// Ledger is the quota ledger: per-(course, pool) seat counters with
// all-or-nothing reservation semantics. All mutation paths funnel through
// Reserve and Release under a single mutex; the engine's merit-order sweep is
// sequential, but student decisions and coordinator reclaims touch the same
// counters concurrently.
type Ledger struct {
	mu      sync.Mutex
	courses map[int64]*courseSeats
}

// NewLedger creates an empty quota ledger
func NewLedger() *Ledger {
	return &Ledger{courses: make(map[int64]*courseSeats)}
}

// AddCourse registers a course with its remaining per-pool seat counts.
// Re-adding a course replaces its counters.
func (l *Ledger) AddCourse(courseID int64, pools map[models.Category]int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cs := &courseSeats{
		remaining: make(map[models.Category]int, len(pools)),
		capacity:  make(map[models.Category]int, len(pools)),
	}
	for cat, n := range pools {
		if n < 0 {
			n = 0
		}
		cs.remaining[cat] = n
		cs.capacity[cat] = n
	}
	l.courses[courseID] = cs
}

// Reserve takes one seat for a student of the given category and returns the
// pool that was charged. Reserved-category students fall back to the open
// pool when their pool is exhausted; they never take another category's
// reserved seats, and General students compete only for the open pool.
// On failure the ledger is untouched and ErrInsufficientCapacity is returned.
func (l *Ledger) Reserve(courseID int64, category models.Category) (models.Category, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cs, ok := l.courses[courseID]
	if !ok {
		return "", apperrors.ErrUnknownCourse
	}
	if cs.available() <= 0 {
		return "", apperrors.ErrInsufficientCapacity
	}

	if category != models.CategoryGeneral && cs.remaining[category] > 0 {
		cs.remaining[category]--
		return category, nil
	}
	if cs.remaining[models.CategoryGeneral] > 0 {
		cs.remaining[models.CategoryGeneral]--
		return models.CategoryGeneral, nil
	}
	return "", apperrors.ErrInsufficientCapacity
}

// Release returns one seat to the pool it was charged from, used when an
// upgrade supersedes a held seat mid-sweep. The counters start from the
// round's remaining counts and a held floor was charged in an earlier round,
// so the freed seat raises the working pool unconditionally; a pool that
// entered the round exhausted still inherits it, and lower-merit students
// later in the sweep can take it.
func (l *Ledger) Release(courseID int64, pool models.Category) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cs, ok := l.courses[courseID]
	if !ok {
		return apperrors.ErrUnknownCourse
	}
	cs.remaining[pool]++
	if cs.remaining[pool] > cs.capacity[pool] {
		cs.capacity[pool] = cs.remaining[pool]
	}
	return nil
}

// Available returns the aggregate remaining seats of a course
func (l *Ledger) Available(courseID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cs, ok := l.courses[courseID]
	if !ok {
		return 0
	}
	return cs.available()
}

// Remaining returns the remaining seats in one pool of a course
func (l *Ledger) Remaining(courseID int64, pool models.Category) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cs, ok := l.courses[courseID]
	if !ok {
		return 0
	}
	return cs.remaining[pool]
}

// Filled returns the filled count of one pool of a course
func (l *Ledger) Filled(courseID int64, pool models.Category) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cs, ok := l.courses[courseID]
	if !ok {
		return 0
	}
	return cs.capacity[pool] - cs.remaining[pool]
}

// Clone returns an independent copy of the ledger
func (l *Ledger) Clone() *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()

	clone := NewLedger()
	for id, cs := range l.courses {
		copied := &courseSeats{
			remaining: make(map[models.Category]int, len(cs.remaining)),
			capacity:  make(map[models.Category]int, len(cs.capacity)),
		}
		for cat, n := range cs.remaining {
			copied.remaining[cat] = n
		}
		for cat, n := range cs.capacity {
			copied.capacity[cat] = n
		}
		clone.courses[id] = copied
	}
	return clone
}
