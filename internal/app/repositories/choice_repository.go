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

// ChoiceRepository handles database operations for student preference lists
type ChoiceRepository struct {
	db *pgxpool.Pool
}

// NewChoiceRepository creates a new choice repository
func NewChoiceRepository(db *pgxpool.Pool) *ChoiceRepository {
	return &ChoiceRepository{db: db}
}

const choiceColumns = `
	id, student_id, course_id, preference_order, is_locked,
	created_at, updated_at, submitted_at
`

func scanChoice(row pgx.Row) (*models.Choice, error) {
	var c models.Choice
	err := row.Scan(&c.ID, &c.StudentID, &c.CourseID, &c.PreferenceOrder,
		&c.IsLocked, &c.CreatedAt, &c.UpdatedAt, &c.SubmittedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByStudent lists a student's choices ordered by preference
func (r *ChoiceRepository) GetByStudent(ctx context.Context, studentID int64) ([]*models.Choice, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+choiceColumns+`
		FROM choices WHERE student_id = $1
		ORDER BY preference_order`, studentID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving choices: %w", err)
	}
	defer rows.Close()

	var choices []*models.Choice
	for rows.Next() {
		choice, err := scanChoice(rows)
		if err != nil {
			return nil, err
		}
		choices = append(choices, choice)
	}
	return choices, rows.Err()
}

// GetByID retrieves a single choice belonging to a student
func (r *ChoiceRepository) GetByID(ctx context.Context, studentID, choiceID int64) (*models.Choice, error) {
	choice, err := scanChoice(r.db.QueryRow(ctx, `
		SELECT `+choiceColumns+`
		FROM choices WHERE id = $1 AND student_id = $2`, choiceID, studentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrChoiceNotFound
		}
		return nil, fmt.Errorf("error retrieving choice: %w", err)
	}
	return choice, nil
}

// Create inserts a new choice at the given preference order
func (r *ChoiceRepository) Create(ctx context.Context, tx pgx.Tx, choice *models.Choice) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO choices (student_id, course_id, preference_order)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		choice.StudentID, choice.CourseID, choice.PreferenceOrder,
	).Scan(&choice.ID, &choice.CreatedAt, &choice.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating choice: %w", err)
	}
	return nil
}

// Delete removes a choice and closes the gap it leaves: every choice with a
// higher preference order shifts up by one so orders stay contiguous.
func (r *ChoiceRepository) Delete(ctx context.Context, tx pgx.Tx, studentID, choiceID int64) error {
	var removedOrder int
	err := tx.QueryRow(ctx, `
		DELETE FROM choices WHERE id = $1 AND student_id = $2
		RETURNING preference_order`, choiceID, studentID).Scan(&removedOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrChoiceNotFound
		}
		return fmt.Errorf("error deleting choice: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE choices
		SET preference_order = preference_order - 1, updated_at = NOW()
		WHERE student_id = $1 AND preference_order > $2`, studentID, removedOrder)
	if err != nil {
		return fmt.Errorf("error re-sequencing choices: %w", err)
	}
	return nil
}

// UpdateOrders applies a full permutation of preference orders. The two-phase
// update stages every row above the valid order range first so
// choices_student_order_key never trips mid-permutation; orders top out at
// 100, well under the staging offset.
func (r *ChoiceRepository) UpdateOrders(ctx context.Context, tx pgx.Tx, studentID int64, orders map[int64]int) error {
	_, err := tx.Exec(ctx, `
		UPDATE choices SET preference_order = preference_order + 1000
		WHERE student_id = $1`, studentID)
	if err != nil {
		return fmt.Errorf("error staging reorder: %w", err)
	}

	for choiceID, order := range orders {
		cmdTag, err := tx.Exec(ctx, `
			UPDATE choices
			SET preference_order = $3, updated_at = NOW()
			WHERE id = $1 AND student_id = $2`, choiceID, studentID, order)
		if err != nil {
			return fmt.Errorf("error reordering choice: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrChoiceNotFound
		}
	}
	return nil
}

// LockAll marks every choice of the student as submitted and locked
func (r *ChoiceRepository) LockAll(ctx context.Context, tx pgx.Tx, studentID int64) (int, error) {
	cmdTag, err := tx.Exec(ctx, `
		UPDATE choices
		SET is_locked = TRUE, submitted_at = NOW(), updated_at = NOW()
		WHERE student_id = $1`, studentID)
	if err != nil {
		return 0, fmt.Errorf("error locking choices: %w", err)
	}
	return int(cmdTag.RowsAffected()), nil
}

// GetSubmittedPreferences loads locked choice course IDs per student inside
// the snapshot transaction, ordered by preference.
func (r *ChoiceRepository) GetSubmittedPreferences(ctx context.Context, tx pgx.Tx) (map[int64][]int64, error) {
	rows, err := tx.Query(ctx, `
		SELECT student_id, course_id
		FROM choices
		WHERE is_locked = TRUE
		ORDER BY student_id, preference_order`)
	if err != nil {
		return nil, fmt.Errorf("error retrieving submitted preferences: %w", err)
	}
	defer rows.Close()

	prefs := make(map[int64][]int64)
	for rows.Next() {
		var studentID, courseID int64
		if err := rows.Scan(&studentID, &courseID); err != nil {
			return nil, err
		}
		prefs[studentID] = append(prefs[studentID], courseID)
	}
	return prefs, rows.Err()
}
