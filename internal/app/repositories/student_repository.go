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

const studentColumns = `
	id, first_name, last_name, email, mobile, exam_type, exam_rank,
	exam_roll_number, category, domicile_state, registration_complete,
	documents_verified, payment_complete, choices_submitted, seat_allotted,
	admission_confirmed, created_at, updated_at
`

// StudentRepository handles database operations for students
type StudentRepository struct {
	db *pgxpool.Pool
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{db: db}
}

func scanStudent(row pgx.Row) (*models.Student, error) {
	var s models.Student
	err := row.Scan(
		&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.Mobile, &s.ExamType,
		&s.ExamRank, &s.ExamRollNumber, &s.Category, &s.DomicileState,
		&s.RegistrationComplete, &s.DocumentsVerified, &s.PaymentComplete,
		&s.ChoicesSubmitted, &s.SeatAllotted, &s.AdmissionConfirmed,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID retrieves a student by ID
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`

	student, err := scanStudent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	return student, nil
}

// GetCandidatesForRound retrieves the candidate pool for an engine pass:
// students with submitted choices and all eligibility flags set true, minus
// those terminally excluded (frozen seat or confirmed admission). Callers
// must run this inside the round's snapshot transaction.
func (r *StudentRepository) GetCandidatesForRound(ctx context.Context, tx pgx.Tx) ([]*models.Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students s
		WHERE s.choices_submitted = TRUE
		  AND s.registration_complete = TRUE
		  AND s.documents_verified = TRUE
		  AND s.payment_complete = TRUE
		  AND s.admission_confirmed = FALSE
		  AND NOT EXISTS (
			SELECT 1 FROM allotments a
			WHERE a.student_id = s.id AND a.status = 'accepted_frozen'
		  )
		ORDER BY s.exam_rank, s.created_at, s.id
	`

	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error retrieving round candidates: %w", err)
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

// SetChoicesSubmitted flips the student's submission flag
func (r *StudentRepository) SetChoicesSubmitted(ctx context.Context, tx pgx.Tx, studentID int64) error {
	cmdTag, err := tx.Exec(ctx, `
		UPDATE students SET choices_submitted = TRUE, updated_at = NOW()
		WHERE id = $1`, studentID)
	if err != nil {
		return fmt.Errorf("error updating submission flag: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// SetSeatAllotted updates the seat_allotted flag
func (r *StudentRepository) SetSeatAllotted(ctx context.Context, tx pgx.Tx, studentID int64, allotted bool) error {
	_, err := tx.Exec(ctx, `
		UPDATE students SET seat_allotted = $2, updated_at = NOW()
		WHERE id = $1`, studentID, allotted)
	if err != nil {
		return fmt.Errorf("error updating seat flag: %w", err)
	}
	return nil
}

// SetAdmissionConfirmed marks the student's admission as confirmed (freeze)
func (r *StudentRepository) SetAdmissionConfirmed(ctx context.Context, tx pgx.Tx, studentID int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE students SET admission_confirmed = TRUE, updated_at = NOW()
		WHERE id = $1`, studentID)
	if err != nil {
		return fmt.Errorf("error confirming admission: %w", err)
	}
	return nil
}
