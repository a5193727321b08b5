package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adityahegde/counselflow/internal/app/models"
	"github.com/adityahegde/counselflow/internal/pkg/apperrors"
	"github.com/adityahegde/counselflow/internal/pkg/dberrors"
)

const roundColumns = `
	id, round_number, start_date, end_date, acceptance_deadline,
	is_active, is_completed, snapshot_hash, students_processed,
	total_allotments, accepted_count, rejected_count,
	created_at, updated_at, completed_at
`

// RoundRepository handles database operations for allotment rounds
type RoundRepository struct {
	db *pgxpool.Pool
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(db *pgxpool.Pool) *RoundRepository {
	return &RoundRepository{db: db}
}

func scanRound(row pgx.Row) (*models.AllotmentRound, error) {
	var r models.AllotmentRound
	err := row.Scan(
		&r.ID, &r.RoundNumber, &r.StartDate, &r.EndDate, &r.AcceptanceDeadline,
		&r.IsActive, &r.IsCompleted, &r.SnapshotHash, &r.StudentsProcessed,
		&r.TotalAllotments, &r.AcceptedCount, &r.RejectedCount,
		&r.CreatedAt, &r.UpdatedAt, &r.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a new round definition
func (r *RoundRepository) Create(ctx context.Context, round *models.AllotmentRound) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO allotment_rounds (round_number, start_date, end_date, acceptance_deadline)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		round.RoundNumber, round.StartDate, round.EndDate, round.AcceptanceDeadline,
	).Scan(&round.ID, &round.CreatedAt, &round.UpdatedAt)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.ErrRoundAlreadyExists
		}
		return fmt.Errorf("error creating round: %w", err)
	}
	return nil
}

// GetByNumber retrieves a round by its round number
func (r *RoundRepository) GetByNumber(ctx context.Context, roundNumber int) (*models.AllotmentRound, error) {
	round, err := scanRound(r.db.QueryRow(ctx,
		`SELECT `+roundColumns+` FROM allotment_rounds WHERE round_number = $1`, roundNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRoundNotFound
		}
		return nil, fmt.Errorf("error retrieving round: %w", err)
	}
	return round, nil
}

// GetAll lists all rounds in execution order
func (r *RoundRepository) GetAll(ctx context.Context) ([]*models.AllotmentRound, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+roundColumns+` FROM allotment_rounds ORDER BY round_number`)
	if err != nil {
		return nil, fmt.Errorf("error listing rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*models.AllotmentRound
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}

// GetLastCompleted returns the highest-numbered completed round, or nil when
// no round has run yet.
func (r *RoundRepository) GetLastCompleted(ctx context.Context) (*models.AllotmentRound, error) {
	round, err := scanRound(r.db.QueryRow(ctx, `
		SELECT `+roundColumns+`
		FROM allotment_rounds WHERE is_completed = TRUE
		ORDER BY round_number DESC LIMIT 1`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving last completed round: %w", err)
	}
	return round, nil
}

// SetSnapshotHash records the input hash at the start of execution. It only
// writes when the round has no hash yet, so a crashed run keeps its original
// idempotency key.
func (r *RoundRepository) SetSnapshotHash(ctx context.Context, tx pgx.Tx, roundNumber int, hash string) error {
	_, err := tx.Exec(ctx, `
		UPDATE allotment_rounds
		SET snapshot_hash = $2, is_active = TRUE, updated_at = NOW()
		WHERE round_number = $1 AND snapshot_hash IS NULL`, roundNumber, hash)
	if err != nil {
		return fmt.Errorf("error recording snapshot hash: %w", err)
	}
	return nil
}

// Complete stores the execution summary and closes the round
func (r *RoundRepository) Complete(ctx context.Context, tx pgx.Tx, round *models.AllotmentRound) error {
	cmdTag, err := tx.Exec(ctx, `
		UPDATE allotment_rounds
		SET is_completed = TRUE, is_active = FALSE,
		    students_processed = $2, total_allotments = $3,
		    completed_at = NOW(), updated_at = NOW()
		WHERE round_number = $1`,
		round.RoundNumber, round.StudentsProcessed, round.TotalAllotments)
	if err != nil {
		return fmt.Errorf("error completing round: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrRoundNotFound
	}
	return nil
}

// IncrementDecisionCount bumps the accepted or rejected tally of a round
func (r *RoundRepository) IncrementDecisionCount(ctx context.Context, tx pgx.Tx, roundNumber int, accepted bool) error {
	column := "rejected_count"
	if accepted {
		column = "accepted_count"
	}
	query := fmt.Sprintf(`
		UPDATE allotment_rounds
		SET %s = %s + 1, updated_at = NOW()
		WHERE round_number = $1`, column, column)

	if _, err := tx.Exec(ctx, query, roundNumber); err != nil {
		return fmt.Errorf("error updating round decision count: %w", err)
	}
	return nil
}
