package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adityahegde/counselflow/internal/app/models"
	"github.com/adityahegde/counselflow/internal/pkg/apperrors"
)

const allotmentColumns = `
	id, student_id, course_id, round_number, allotted_rank,
	allotted_category, seat_pool, status, decision_at, rejection_reason,
	reason_code, allotted_at, updated_at
`

// AllotmentRepository handles database operations for allotment records
type AllotmentRepository struct {
	db *pgxpool.Pool
}

// NewAllotmentRepository creates a new allotment repository
func NewAllotmentRepository(db *pgxpool.Pool) *AllotmentRepository {
	return &AllotmentRepository{db: db}
}

func scanAllotment(row pgx.Row) (*models.Allotment, error) {
	var a models.Allotment
	err := row.Scan(
		&a.ID, &a.StudentID, &a.CourseID, &a.RoundNumber, &a.AllottedRank,
		&a.AllottedCategory, &a.SeatPool, &a.Status, &a.DecisionAt,
		&a.RejectionReason, &a.ReasonCode, &a.AllottedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAllotments(rows pgx.Rows) ([]*models.Allotment, error) {
	defer rows.Close()
	var allotments []*models.Allotment
	for rows.Next() {
		a, err := scanAllotment(rows)
		if err != nil {
			return nil, err
		}
		allotments = append(allotments, a)
	}
	return allotments, rows.Err()
}

// Create inserts a new allotment record. The unique (student_id, round_number)
// constraint makes duplicate persistence of the same engine result a no-op
// failure the caller can detect with dberrors.IsUniqueViolation.
func (r *AllotmentRepository) Create(ctx context.Context, tx pgx.Tx, a *models.Allotment) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO allotments (
			student_id, course_id, round_number, allotted_rank,
			allotted_category, seat_pool, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, allotted_at, updated_at`,
		a.StudentID, a.CourseID, a.RoundNumber, a.AllottedRank,
		a.AllottedCategory, a.SeatPool, a.Status,
	).Scan(&a.ID, &a.AllottedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating allotment: %w", err)
	}
	return nil
}

// GetByID retrieves an allotment by ID
func (r *AllotmentRepository) GetByID(ctx context.Context, id int64) (*models.Allotment, error) {
	a, err := scanAllotment(r.db.QueryRow(ctx,
		`SELECT `+allotmentColumns+` FROM allotments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAllotmentNotFound
		}
		return nil, fmt.Errorf("error retrieving allotment: %w", err)
	}
	return a, nil
}

// GetHistoryByStudent lists all allotment records of a student, newest round first
func (r *AllotmentRepository) GetHistoryByStudent(ctx context.Context, studentID int64) ([]*models.Allotment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+allotmentColumns+`
		FROM allotments WHERE student_id = $1
		ORDER BY round_number DESC`, studentID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving allotment history: %w", err)
	}
	return collectAllotments(rows)
}

// GetCurrentByStudent returns the student's actionable or held allotment: the
// latest record that is pending a decision or accepted for upgrade.
func (r *AllotmentRepository) GetCurrentByStudent(ctx context.Context, studentID int64) (*models.Allotment, error) {
	a, err := scanAllotment(r.db.QueryRow(ctx, `
		SELECT `+allotmentColumns+`
		FROM allotments
		WHERE student_id = $1 AND status IN ('allotted', 'accepted_upgrade', 'accepted_frozen')
		ORDER BY round_number DESC
		LIMIT 1`, studentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAllotmentNotFound
		}
		return nil, fmt.Errorf("error retrieving current allotment: %w", err)
	}
	return a, nil
}

// UpdateStatus transitions an allotment, recording the decision time and any
// rejection reason. The WHERE clause re-checks the current status so a
// concurrent decision loses cleanly instead of overwriting.
func (r *AllotmentRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, from, to models.AllotmentStatus, reason, reasonCode *string) error {
	cmdTag, err := tx.Exec(ctx, `
		UPDATE allotments
		SET status = $3, decision_at = NOW(), rejection_reason = $4,
		    reason_code = $5, updated_at = NOW()
		WHERE id = $1 AND status = $2`, id, from, to, reason, reasonCode)
	if err != nil {
		return fmt.Errorf("error updating allotment status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrInvalidStatusTransition
	}
	return nil
}

// GetPendingByRound lists undecided allotments of a round, used by the round
// barrier to expire round N-1 decisions before round N runs.
func (r *AllotmentRepository) GetPendingByRound(ctx context.Context, tx pgx.Tx, roundNumber int) ([]*models.Allotment, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+allotmentColumns+`
		FROM allotments
		WHERE round_number = $1 AND status = 'allotted'
		ORDER BY id`, roundNumber)
	if err != nil {
		return nil, fmt.Errorf("error retrieving pending allotments: %w", err)
	}
	return collectAllotments(rows)
}

// GetUpgradeHolders loads accepted_upgrade records inside the snapshot
// transaction, keyed by student. These become held floors in the engine input.
func (r *AllotmentRepository) GetUpgradeHolders(ctx context.Context, tx pgx.Tx) (map[int64]*models.Allotment, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+allotmentColumns+`
		FROM allotments WHERE status = 'accepted_upgrade'`)
	if err != nil {
		return nil, fmt.Errorf("error retrieving upgrade holders: %w", err)
	}
	allotments, err := collectAllotments(rows)
	if err != nil {
		return nil, err
	}
	holders := make(map[int64]*models.Allotment, len(allotments))
	for _, a := range allotments {
		holders[a.StudentID] = a
	}
	return holders, nil
}

// CountByStatus returns record counts per status, across all rounds when
// roundNumber is zero.
func (r *AllotmentRepository) CountByStatus(ctx context.Context, roundNumber int) (map[models.AllotmentStatus]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*) FROM allotments
		WHERE $1 = 0 OR round_number = $1
		GROUP BY status`, roundNumber)
	if err != nil {
		return nil, fmt.Errorf("error counting allotments: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.AllotmentStatus]int)
	for rows.Next() {
		var status models.AllotmentStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// CountByRound returns the number of allotment records persisted for one
// round. Processed markers are written for unallotted students too, so the
// round summary counts rows here instead of markers.
func (r *AllotmentRepository) CountByRound(ctx context.Context, roundNumber int) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM allotments WHERE round_number = $1`, roundNumber).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting round allotments: %w", err)
	}
	return count, nil
}

// MarkProcessed records that the engine result for a (round, student) pair is
// durably persisted. A crashed run resumes past every marked student.
func (r *AllotmentRepository) MarkProcessed(ctx context.Context, tx pgx.Tx, roundNumber int, studentID int64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO allotment_markers (round_number, student_id)
		VALUES ($1, $2)
		ON CONFLICT (round_number, student_id) DO NOTHING`, roundNumber, studentID)
	if err != nil {
		return fmt.Errorf("error marking student processed: %w", err)
	}
	return nil
}

// GetProcessed returns the set of students already persisted for a round
func (r *AllotmentRepository) GetProcessed(ctx context.Context, roundNumber int) (map[int64]bool, error) {
	rows, err := r.db.Query(ctx, `
		SELECT student_id FROM allotment_markers WHERE round_number = $1`, roundNumber)
	if err != nil {
		return nil, fmt.Errorf("error retrieving processed markers: %w", err)
	}
	defer rows.Close()

	processed := make(map[int64]bool)
	for rows.Next() {
		var studentID int64
		if err := rows.Scan(&studentID); err != nil {
			return nil, err
		}
		processed[studentID] = true
	}
	return processed, rows.Err()
}
