package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/adityahegde/counselflow/internal/allotment"
	"github.com/adityahegde/counselflow/internal/app/models"
	"github.com/adityahegde/counselflow/internal/app/models/dto"
	"github.com/adityahegde/counselflow/internal/app/repositories"
	"github.com/adityahegde/counselflow/internal/db"
	"github.com/adityahegde/counselflow/internal/pkg/apperrors"
	"github.com/adityahegde/counselflow/internal/pkg/dberrors"
	"github.com/adityahegde/counselflow/internal/pkg/logger"
)

// RoundService coordinates one engine pass per counseling round: freeze the
// input snapshot, detect replays, sweep, and persist each student's result
// durably before moving to the next.
type RoundService struct {
	pool          *pgxpool.Pool
	redis         *redis.Client
	studentRepo   *repositories.StudentRepository
	catalogRepo   *repositories.CatalogRepository
	choiceRepo    *repositories.ChoiceRepository
	allotmentRepo *repositories.AllotmentRepository
	roundRepo     *repositories.RoundRepository
	allotmentSvc  *AllotmentService
	lockTTL       time.Duration
}

// NewRoundService creates a new round service
func NewRoundService(
	pool *pgxpool.Pool,
	redisClient *redis.Client,
	repos *repositories.Repositories,
	allotmentSvc *AllotmentService,
	lockTTL time.Duration,
) *RoundService {
	return &RoundService{
		pool:          pool,
		redis:         redisClient,
		studentRepo:   repos.StudentRepository,
		catalogRepo:   repos.CatalogRepository,
		choiceRepo:    repos.ChoiceRepository,
		allotmentRepo: repos.AllotmentRepository,
		roundRepo:     repos.RoundRepository,
		allotmentSvc:  allotmentSvc,
		lockTTL:       lockTTL,
	}
}

// CreateRound registers a round definition ahead of execution
func (s *RoundService) CreateRound(ctx context.Context, req *dto.CreateRoundRequest) (*models.AllotmentRound, error) {
	if !req.EndDate.After(req.StartDate) {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed,
			"Round end date must be after start date")
	}
	if req.AcceptanceDeadline.Before(req.EndDate) {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed,
			"Acceptance deadline cannot precede the round end date")
	}

	round := &models.AllotmentRound{
		RoundNumber:        req.RoundNumber,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		AcceptanceDeadline: req.AcceptanceDeadline,
	}
	if err := s.roundRepo.Create(ctx, round); err != nil {
		return nil, err
	}
	return round, nil
}

// GetRound retrieves one round
func (s *RoundService) GetRound(ctx context.Context, roundNumber int) (*models.AllotmentRound, error) {
	return s.roundRepo.GetByNumber(ctx, roundNumber)
}

// GetRounds lists all rounds
func (s *RoundService) GetRounds(ctx context.Context) ([]*models.AllotmentRound, error) {
	return s.roundRepo.GetAll(ctx)
}

func lockKey(roundNumber int) string {
	return fmt.Sprintf("counselflow:round:%d:lock", roundNumber)
}

// ExecuteRound runs the engine for a round. The call is idempotent: a
// re-trigger with identical inputs returns the stored summary, a re-trigger
// with different inputs fails with ErrRoundConflict, and a crashed execution
// resumes past every student already persisted.
func (s *RoundService) ExecuteRound(ctx context.Context, roundNumber int) (*dto.RoundSummary, error) {
	round, err := s.roundRepo.GetByNumber(ctx, roundNumber)
	if err != nil {
		return nil, err
	}

	// One executor per round across all processes.
	acquired, err := s.redis.SetNX(ctx, lockKey(roundNumber), time.Now().UTC().Format(time.RFC3339), s.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("error acquiring round lock: %w", err)
	}
	if !acquired {
		return nil, apperrors.ErrRoundInProgress
	}
	defer s.redis.Del(context.WithoutCancel(ctx), lockKey(roundNumber))

	// Completed rounds replay from the stored summary. The pass itself
	// consumed seats, so a rebuilt snapshot can never hash-match the one
	// recorded at round start; the summary is the idempotent answer.
	if round.IsCompleted {
		hash := ""
		if round.SnapshotHash != nil {
			hash = *round.SnapshotHash
		}
		return &dto.RoundSummary{
			RoundNumber:       round.RoundNumber,
			StudentsProcessed: round.StudentsProcessed,
			AllotmentsMade:    round.TotalAllotments,
			SnapshotHash:      hash,
			Replayed:          true,
		}, nil
	}

	if err := s.enforceRoundBarrier(ctx, round); err != nil {
		return nil, err
	}

	snapshot, err := s.buildSnapshot(ctx, roundNumber)
	if err != nil {
		return nil, err
	}
	hash := snapshot.Hash()

	processed, err := s.allotmentRepo.GetProcessed(ctx, roundNumber)
	if err != nil {
		return nil, err
	}
	processedIDs := make([]int64, 0, len(processed))
	for id := range processed {
		processedIDs = append(processedIDs, id)
	}

	if round.SnapshotHash != nil {
		if *round.SnapshotHash != hash && len(processedIDs) == 0 {
			// Hash was recorded, nothing was persisted, and the inputs no
			// longer match: the counseling state changed between attempts.
			return nil, apperrors.NewCustomError(apperrors.ErrRoundConflict,
				"Round was already started with a different input snapshot").
				WithDetails(map[string]interface{}{
					"recordedHash": *round.SnapshotHash,
					"currentHash":  hash,
				})
		}
		// Partial persistence explains a hash divergence; resume past the
		// committed students against the current seat counters.
		hash = *round.SnapshotHash
		logger.Warn().Int("round", roundNumber).Int("already_persisted", len(processedIDs)).
			Msg("Resuming interrupted round execution")
	} else {
		err = db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
			return s.roundRepo.SetSnapshotHash(ctx, tx, roundNumber, hash)
		})
		if err != nil {
			return nil, err
		}
	}

	engine := allotment.NewEngine(snapshot, allotment.WithProcessed(processedIDs))
	result, err := engine.Run()
	if err != nil {
		return nil, err
	}

	if err := s.persistResult(ctx, roundNumber, result); err != nil {
		return nil, err
	}

	// Markers cover unallotted and kept-floor students too, so the summary
	// counts persisted allotment rows rather than markers.
	totalAllotments, err := s.allotmentRepo.CountByRound(ctx, roundNumber)
	if err != nil {
		return nil, err
	}

	err = db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		round.StudentsProcessed = result.StudentsProcessed + len(processedIDs)
		round.TotalAllotments = totalAllotments
		return s.roundRepo.Complete(ctx, tx, round)
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int("round", roundNumber).
		Int("students", round.StudentsProcessed).
		Int("allotments", round.TotalAllotments).
		Int("unallotted", len(result.Unallotted)).
		Int("kept_floor", len(result.KeptFloor)).
		Str("snapshot_hash", hash).
		Msg("Round execution completed")

	return &dto.RoundSummary{
		RoundNumber:       roundNumber,
		StudentsProcessed: round.StudentsProcessed,
		AllotmentsMade:    round.TotalAllotments,
		SnapshotHash:      hash,
	}, nil
}

// enforceRoundBarrier rejects out-of-order executions and expires the
// previous round's undecided allotments so every seat state is settled
// before the snapshot is taken.
func (s *RoundService) enforceRoundBarrier(ctx context.Context, round *models.AllotmentRound) error {
	last, err := s.roundRepo.GetLastCompleted(ctx)
	if err != nil {
		return err
	}

	expected := 1
	if last != nil {
		expected = last.RoundNumber + 1
	}
	if round.RoundNumber != expected {
		return apperrors.NewCustomError(apperrors.ErrRoundOutOfOrder,
			fmt.Sprintf("Expected round %d to execute next", expected))
	}

	if last != nil {
		if _, err := s.allotmentSvc.ExpirePending(ctx, last.RoundNumber); err != nil {
			return err
		}
	}
	return nil
}

// buildSnapshot freezes the engine input inside one REPEATABLE READ
// transaction: candidates, submitted preferences, upgrade floors and
// remaining seat pools all come from the same database view.
func (s *RoundService) buildSnapshot(ctx context.Context, roundNumber int) (*allotment.Snapshot, error) {
	snapshot := &allotment.Snapshot{RoundNumber: roundNumber}

	err := db.WithSnapshotTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		students, err := s.studentRepo.GetCandidatesForRound(ctx, tx)
		if err != nil {
			return err
		}
		prefs, err := s.choiceRepo.GetSubmittedPreferences(ctx, tx)
		if err != nil {
			return err
		}
		holders, err := s.allotmentRepo.GetUpgradeHolders(ctx, tx)
		if err != nil {
			return err
		}
		courses, err := s.catalogRepo.GetActiveCoursesForSnapshot(ctx, tx)
		if err != nil {
			return err
		}

		for _, student := range students {
			cand := allotment.Candidate{
				StudentID:    student.ID,
				Rank:         student.ExamRank,
				Category:     student.Category,
				RegisteredAt: student.CreatedAt,
				Preferences:  prefs[student.ID],
			}
			if held, ok := holders[student.ID]; ok {
				cand.HeldCourseID = held.CourseID
				cand.HeldSeatPool = held.SeatPool
				// Slot of the held course in the list; a held course that
				// somehow left the list yields no better slots at all.
				cand.HeldPreference = 1
				for i, courseID := range cand.Preferences {
					if courseID == held.CourseID {
						cand.HeldPreference = i + 1
						break
					}
				}
			}
			snapshot.Candidates = append(snapshot.Candidates, cand)
		}

		for _, course := range courses {
			pools := make(map[models.Category]int, len(models.Categories))
			for _, cat := range models.Categories {
				pools[cat] = course.SeatsFor(cat)
			}
			snapshot.Courses = append(snapshot.Courses, allotment.CourseCapacity{
				CourseID: course.ID,
				Pools:    pools,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// persistResult writes each proposed allotment in its own transaction and
// marks the student processed in the same commit. A crash between students
// loses nothing: committed students are skipped on resume, uncommitted ones
// re-run against a ledger rebuilt from the decremented seat counters.
func (s *RoundService) persistResult(ctx context.Context, roundNumber int, result *allotment.Result) error {
	for _, p := range result.Allotments {
		p := p
		err := db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
			record := &models.Allotment{
				StudentID:        p.StudentID,
				CourseID:         p.CourseID,
				RoundNumber:      roundNumber,
				AllottedRank:     p.Rank,
				AllottedCategory: p.Category,
				SeatPool:         p.SeatPool,
				Status:           models.StatusAllotted,
			}
			if err := s.allotmentRepo.Create(ctx, tx, record); err != nil {
				if dberrors.IsUniqueViolation(err) {
					// Already persisted by an earlier attempt; just mark.
					return s.allotmentRepo.MarkProcessed(ctx, tx, roundNumber, p.StudentID)
				}
				return err
			}
			if err := s.catalogRepo.ApplySeatDelta(ctx, tx, p.CourseID, p.SeatPool, -1); err != nil {
				return err
			}
			if p.SupersededCourseID != 0 {
				if err := s.supersedeFloor(ctx, tx, p.StudentID, p.SupersededCourseID, p.SupersededPool); err != nil {
					return err
				}
			}
			if err := s.studentRepo.SetSeatAllotted(ctx, tx, p.StudentID, true); err != nil {
				return err
			}
			return s.allotmentRepo.MarkProcessed(ctx, tx, roundNumber, p.StudentID)
		})
		if err != nil {
			return fmt.Errorf("error persisting allotment for student %d: %w", p.StudentID, err)
		}
	}

	// Students with no seat this round still count as processed so a resumed
	// run does not sweep them twice.
	remaining := make([]int64, 0, len(result.Unallotted)+len(result.KeptFloor))
	remaining = append(remaining, result.Unallotted...)
	remaining = append(remaining, result.KeptFloor...)
	if len(remaining) == 0 {
		return nil
	}
	return db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		for _, studentID := range remaining {
			if err := s.allotmentRepo.MarkProcessed(ctx, tx, roundNumber, studentID); err != nil {
				return err
			}
		}
		return nil
	})
}

// supersedeFloor retires the upgrade-accepted seat a better assignment
// replaced and releases it back to the pool it was charged from.
func (s *RoundService) supersedeFloor(ctx context.Context, tx pgx.Tx, studentID, courseID int64, pool models.Category) error {
	var oldID int64
	err := tx.QueryRow(ctx, `
		SELECT id FROM allotments
		WHERE student_id = $1 AND course_id = $2 AND status = 'accepted_upgrade'
		ORDER BY round_number DESC LIMIT 1`, studentID, courseID).Scan(&oldID)
	if err != nil {
		return fmt.Errorf("error locating superseded allotment: %w", err)
	}
	if err := s.allotmentRepo.UpdateStatus(ctx, tx, oldID, models.StatusAcceptedUpgrade, models.StatusUpgraded, nil, nil); err != nil {
		return err
	}
	return s.catalogRepo.ApplySeatDelta(ctx, tx, courseID, pool, 1)
}
