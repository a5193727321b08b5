package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adityahegde/counselflow/internal/app/models"
	"github.com/adityahegde/counselflow/internal/app/repositories"
	"github.com/adityahegde/counselflow/internal/db"
	"github.com/adityahegde/counselflow/internal/pkg/apperrors"
	"github.com/adityahegde/counselflow/internal/pkg/logger"
)

// AllotmentService handles student decisions on allotted seats. Every
// decision runs in one transaction covering the status row, the seat
// counters and the round tallies.
type AllotmentService struct {
	pool          *pgxpool.Pool
	studentRepo   *repositories.StudentRepository
	catalogRepo   *repositories.CatalogRepository
	allotmentRepo *repositories.AllotmentRepository
	roundRepo     *repositories.RoundRepository

	// decisionWindow bounds how long after allotment a decision stays open,
	// independent of the round's published acceptance deadline. Whichever
	// closes first wins.
	decisionWindow time.Duration
}

// NewAllotmentService creates a new allotment service
func NewAllotmentService(
	pool *pgxpool.Pool,
	studentRepo *repositories.StudentRepository,
	catalogRepo *repositories.CatalogRepository,
	allotmentRepo *repositories.AllotmentRepository,
	roundRepo *repositories.RoundRepository,
	decisionWindow time.Duration,
) *AllotmentService {
	return &AllotmentService{
		pool:           pool,
		studentRepo:    studentRepo,
		catalogRepo:    catalogRepo,
		allotmentRepo:  allotmentRepo,
		roundRepo:      roundRepo,
		decisionWindow: decisionWindow,
	}
}

// GetCurrent returns the student's actionable or held allotment with course detail
func (s *AllotmentService) GetCurrent(ctx context.Context, studentID int64) (*models.Allotment, error) {
	a, err := s.allotmentRepo.GetCurrentByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	course, err := s.catalogRepo.GetCourseByID(ctx, a.CourseID)
	if err == nil {
		a.Course = course
	}
	return a, nil
}

// GetHistory returns all allotment records of a student across rounds
func (s *AllotmentService) GetHistory(ctx context.Context, studentID int64) ([]*models.Allotment, error) {
	history, err := s.allotmentRepo.GetHistoryByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	courseIDs := make([]int64, 0, len(history))
	for _, a := range history {
		courseIDs = append(courseIDs, a.CourseID)
	}
	courses, err := s.catalogRepo.GetCoursesByIDs(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	for _, a := range history {
		a.Course = courses[a.CourseID]
	}
	return history, nil
}

// loadPending fetches an undecided allotment, verifying ownership and that
// the decision window is still open.
func (s *AllotmentService) loadPending(ctx context.Context, studentID, allotmentID int64, now time.Time) (*models.Allotment, error) {
	a, err := s.allotmentRepo.GetByID(ctx, allotmentID)
	if err != nil {
		return nil, err
	}
	if a.StudentID != studentID {
		return nil, apperrors.ErrAllotmentNotFound
	}
	if a.Status != models.StatusAllotted {
		return nil, apperrors.ErrInvalidStatusTransition
	}

	round, err := s.roundRepo.GetByNumber(ctx, a.RoundNumber)
	if err != nil {
		return nil, err
	}
	if now.After(round.AcceptanceDeadline) || now.After(a.AllottedAt.Add(s.decisionWindow)) {
		return nil, apperrors.ErrDecisionWindowClosed
	}
	return a, nil
}

// Accept records the student's acceptance. Freeze locks the seat and removes
// the student from all future rounds; otherwise the seat becomes an upgrade
// floor and the student stays a candidate.
func (s *AllotmentService) Accept(ctx context.Context, studentID, allotmentID int64, freeze bool) (*models.Allotment, error) {
	a, err := s.loadPending(ctx, studentID, allotmentID, time.Now())
	if err != nil {
		return nil, err
	}

	next := models.StatusAcceptedUpgrade
	if freeze {
		next = models.StatusAcceptedFrozen
	}

	err = db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.allotmentRepo.UpdateStatus(ctx, tx, a.ID, models.StatusAllotted, next, nil, nil); err != nil {
			return err
		}
		if freeze {
			if err := s.studentRepo.SetAdmissionConfirmed(ctx, tx, studentID); err != nil {
				return err
			}
		}
		return s.roundRepo.IncrementDecisionCount(ctx, tx, a.RoundNumber, true)
	})
	if err != nil {
		return nil, err
	}

	a.Status = next
	now := time.Now()
	a.DecisionAt = &now

	logger.Info().
		Int64("student_id", studentID).
		Int64("allotment_id", a.ID).
		Bool("freeze", freeze).
		Msg("Allotment accepted")
	return a, nil
}

// Reject gives the seat back. The released seat returns to the pool it was
// charged from, which is not always the student's own category.
func (s *AllotmentService) Reject(ctx context.Context, studentID, allotmentID int64, reason string) (*models.Allotment, error) {
	a, err := s.loadPending(ctx, studentID, allotmentID, time.Now())
	if err != nil {
		return nil, err
	}

	reasonCode := models.ReasonStudentRejected
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}

	err = db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.allotmentRepo.UpdateStatus(ctx, tx, a.ID, models.StatusAllotted, models.StatusRejected, reasonPtr, &reasonCode); err != nil {
			return err
		}
		if err := s.catalogRepo.ApplySeatDelta(ctx, tx, a.CourseID, a.SeatPool, 1); err != nil {
			return err
		}
		if err := s.studentRepo.SetSeatAllotted(ctx, tx, studentID, false); err != nil {
			return err
		}
		return s.roundRepo.IncrementDecisionCount(ctx, tx, a.RoundNumber, false)
	})
	if err != nil {
		return nil, err
	}

	a.Status = models.StatusRejected
	now := time.Now()
	a.DecisionAt = &now
	a.ReasonCode = &reasonCode

	logger.Info().
		Int64("student_id", studentID).
		Int64("allotment_id", a.ID).
		Msg("Allotment rejected, seat released")
	return a, nil
}

// ExpirePending force-rejects every undecided allotment of a round whose
// deadline has passed, releasing the seats. Used by the pre-round barrier
// and by the scheduled expiry job; both paths are idempotent because the
// status guard makes a second expiry of the same record a no-op.
func (s *AllotmentService) ExpirePending(ctx context.Context, roundNumber int) (int, error) {
	expired := 0
	err := db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		pending, err := s.allotmentRepo.GetPendingByRound(ctx, tx, roundNumber)
		if err != nil {
			return err
		}

		reasonCode := models.ReasonDeadlineExpired
		for _, a := range pending {
			err := s.allotmentRepo.UpdateStatus(ctx, tx, a.ID, models.StatusAllotted, models.StatusRejected, nil, &reasonCode)
			if err != nil {
				if apperrors.Is(err, apperrors.ErrInvalidStatusTransition) {
					continue
				}
				return err
			}
			if err := s.catalogRepo.ApplySeatDelta(ctx, tx, a.CourseID, a.SeatPool, 1); err != nil {
				return err
			}
			if err := s.studentRepo.SetSeatAllotted(ctx, tx, a.StudentID, false); err != nil {
				return err
			}
			if err := s.roundRepo.IncrementDecisionCount(ctx, tx, roundNumber, false); err != nil {
				return err
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		logger.Info().
			Int("round", roundNumber).
			Int("expired", expired).
			Msg("Expired undecided allotments past deadline")
	}
	return expired, nil
}

// GetStatistics aggregates allotment status counts across all rounds
func (s *AllotmentService) GetStatistics(ctx context.Context) (map[models.AllotmentStatus]int, []*models.AllotmentRound, error) {
	rounds, err := s.roundRepo.GetAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	counts, err := s.allotmentRepo.CountByStatus(ctx, 0)
	if err != nil {
		return nil, nil, err
	}
	return counts, rounds, nil
}
