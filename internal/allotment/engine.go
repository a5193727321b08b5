package allotment

import (
	"errors"

	"github.com/adityahegde/counselflow/internal/app/models"
	"github.com/adityahegde/counselflow/internal/pkg/apperrors"
)

// Proposed is one seat assignment produced by an engine pass, not yet
// persisted. SupersededCourseID points at the upgrade floor the assignment
// replaces, if any.
type Proposed struct {
	StudentID       int64
	CourseID        int64
	PreferenceOrder int
	Rank            int
	Category        models.Category
	SeatPool        models.Category
	SupersededCourseID int64
	SupersededPool     models.Category
}

// Result is the outcome of one engine pass
type Result struct {
	RoundNumber       int
	StudentsProcessed int
	AllotmentsMade    int
	Allotments        []Proposed
	// Unallotted lists students whose no preference could be satisfied;
	// they are carry-forward candidates for the next round. Upgrade-floor
	// holders who found nothing better are NOT listed: their held seat stands.
	Unallotted []int64
	// KeptFloor lists upgrade-holders whose held seat stands after the pass
	KeptFloor []int64
}

// Engine runs the merit-order, preference-priority, one-pass sweep over a
// frozen snapshot. The pass is strictly sequential: higher-merit students are
// processed to exhaustion before lower-merit students are considered, so no
// lower-rank student can displace a higher-rank one inside a round. Given
// identical inputs the output is byte-for-byte reproducible.
type Engine struct {
	snapshot  *Snapshot
	ledger    *Ledger
	processed map[int64]bool
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithProcessed marks students already committed in a crashed earlier attempt
// of the same round. They are skipped without re-reserving: their seats are
// already reflected in the ledger the snapshot was rebuilt from.
func WithProcessed(studentIDs []int64) EngineOption {
	return func(e *Engine) {
		for _, id := range studentIDs {
			e.processed[id] = true
		}
	}
}

// WithLedger substitutes the ledger the pass mutates. Defaults to one built
// from the snapshot.
func WithLedger(l *Ledger) EngineOption {
	return func(e *Engine) { e.ledger = l }
}

// NewEngine creates an engine for one round's snapshot
func NewEngine(snapshot *Snapshot, opts ...EngineOption) *Engine {
	e := &Engine{
		snapshot:  snapshot,
		processed: make(map[int64]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.ledger == nil {
		e.ledger = snapshot.BuildLedger()
	}
	return e
}

// Ledger exposes the ledger state after a run, for persisting seat counters
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// Run executes the sweep. For each candidate in merit order the preference
// list is scanned ascending; the first course the ledger can reserve in the
// student's category (with open-pool fallback) wins. A course with no seats
// left is skipped silently. A freed upgrade floor becomes available to
// later (lower-merit) students within the same pass.
func (e *Engine) Run() (*Result, error) {
	e.snapshot.Normalize()

	result := &Result{RoundNumber: e.snapshot.RoundNumber}

	for _, cand := range e.snapshot.Candidates {
		if e.processed[cand.StudentID] {
			continue
		}
		result.StudentsProcessed++

		limit := len(cand.Preferences)
		if cand.HeldPreference > 0 && cand.HeldPreference-1 < limit {
			// Upgrade holders only compete for strictly better slots.
			limit = cand.HeldPreference - 1
		}

		assigned := false
		for i := 0; i < limit; i++ {
			courseID := cand.Preferences[i]
			pool, err := e.ledger.Reserve(courseID, cand.Category)
			if err != nil {
				if errors.Is(err, apperrors.ErrInsufficientCapacity) ||
					errors.Is(err, apperrors.ErrUnknownCourse) {
					continue
				}
				return nil, err
			}

			proposed := Proposed{
				StudentID:       cand.StudentID,
				CourseID:        courseID,
				PreferenceOrder: i + 1,
				Rank:            cand.Rank,
				Category:        cand.Category,
				SeatPool:        pool,
			}
			if cand.HeldCourseID != 0 {
				// Better seat secured: release the floor so it can cascade
				// to lower-merit students in this same pass.
				if err := e.ledger.Release(cand.HeldCourseID, cand.HeldSeatPool); err != nil {
					return nil, err
				}
				proposed.SupersededCourseID = cand.HeldCourseID
				proposed.SupersededPool = cand.HeldSeatPool
			}

			result.Allotments = append(result.Allotments, proposed)
			result.AllotmentsMade++
			assigned = true
			break
		}

		if !assigned {
			if cand.HeldCourseID != 0 {
				result.KeptFloor = append(result.KeptFloor, cand.StudentID)
			} else {
				result.Unallotted = append(result.Unallotted, cand.StudentID)
			}
		}
	}

	return result, nil
}
