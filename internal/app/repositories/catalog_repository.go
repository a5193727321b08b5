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

const courseColumns = `
	id, college_id, code, name, degree, branch, duration_years,
	total_seats, available_seats, general_seats, obc_seats, sc_seats,
	st_seats, ews_seats, tuition_fee, other_fees, min_rank, max_rank,
	accepted_exam_types, is_active, created_at, updated_at
`

// seatPoolColumn maps a seat pool to its (whitelisted) column name. Pool
// updates interpolate column names, so never feed this from request input
// without going through the map.
var seatPoolColumn = map[models.Category]string{
	models.CategoryGeneral: "general_seats",
	models.CategoryOBC:     "obc_seats",
	models.CategorySC:      "sc_seats",
	models.CategoryST:      "st_seats",
	models.CategoryEWS:     "ews_seats",
}

// CatalogRepository handles database operations for colleges and courses
type CatalogRepository struct {
	db *pgxpool.Pool
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	var c models.Course
	var examTypes []string
	err := row.Scan(
		&c.ID, &c.CollegeID, &c.Code, &c.Name, &c.Degree, &c.Branch,
		&c.DurationYears, &c.TotalSeats, &c.AvailableSeats, &c.GeneralSeats,
		&c.OBCSeats, &c.SCSeats, &c.STSeats, &c.EWSSeats, &c.TuitionFee,
		&c.OtherFees, &c.MinRank, &c.MaxRank, &examTypes, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	for _, t := range examTypes {
		c.AcceptedExamTypes = append(c.AcceptedExamTypes, models.ExamType(t))
	}
	return &c, nil
}

func collectCourses(rows pgx.Rows) ([]*models.Course, error) {
	defer rows.Close()
	var courses []*models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

// GetCollegeByID retrieves a college by ID
func (r *CatalogRepository) GetCollegeByID(ctx context.Context, id int64) (*models.College, error) {
	var c models.College
	err := r.db.QueryRow(ctx, `
		SELECT id, code, name, type, city, state, is_active, created_at, updated_at
		FROM colleges WHERE id = $1`, id).Scan(
		&c.ID, &c.Code, &c.Name, &c.Type, &c.City, &c.State, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCollegeNotFound
		}
		return nil, fmt.Errorf("error retrieving college: %w", err)
	}
	return &c, nil
}

// GetActiveColleges lists all active colleges
func (r *CatalogRepository) GetActiveColleges(ctx context.Context) ([]*models.College, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, code, name, type, city, state, is_active, created_at, updated_at
		FROM colleges WHERE is_active = TRUE ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("error listing colleges: %w", err)
	}
	defer rows.Close()

	var colleges []*models.College
	for rows.Next() {
		var c models.College
		err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Type, &c.City, &c.State,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, err
		}
		colleges = append(colleges, &c)
	}
	return colleges, rows.Err()
}

// GetCourseByID retrieves a course by ID
func (r *CatalogRepository) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	course, err := scanCourse(r.db.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}
	return course, nil
}

// GetCoursesByIDs retrieves a batch of courses keyed by ID
func (r *CatalogRepository) GetCoursesByIDs(ctx context.Context, ids []int64) (map[int64]*models.Course, error) {
	if len(ids) == 0 {
		return map[int64]*models.Course{}, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("error retrieving courses: %w", err)
	}
	courses, err := collectCourses(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	return byID, nil
}

// GetEligibleCourses lists active courses whose exam type and rank window
// admit the given student rank, ordered for stable display.
func (r *CatalogRepository) GetEligibleCourses(ctx context.Context, examType models.ExamType, rank int) ([]*models.Course, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+courseColumns+`
		FROM courses c
		WHERE c.is_active = TRUE
		  AND $1 = ANY(c.accepted_exam_types)
		  AND (c.min_rank IS NULL OR $2 >= c.min_rank)
		  AND (c.max_rank IS NULL OR $2 <= c.max_rank)
		  AND EXISTS (SELECT 1 FROM colleges cl WHERE cl.id = c.college_id AND cl.is_active = TRUE)
		ORDER BY c.college_id, c.code`, string(examType), rank)
	if err != nil {
		return nil, fmt.Errorf("error retrieving eligible courses: %w", err)
	}
	return collectCourses(rows)
}

// GetActiveCoursesForSnapshot loads every active course inside the round's
// snapshot transaction so capacities and engine input come from one view.
func (r *CatalogRepository) GetActiveCoursesForSnapshot(ctx context.Context, tx pgx.Tx) ([]*models.Course, error) {
	rows, err := tx.Query(ctx, `SELECT `+courseColumns+` FROM courses WHERE is_active = TRUE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error retrieving courses for snapshot: %w", err)
	}
	return collectCourses(rows)
}

// ApplySeatDelta adjusts one seat pool of a course and the aggregate counter
// by the same delta. Negative deltas charge a seat, positive deltas release
// one. The table CHECK constraints reject drops below zero, surfaced to
// callers as ErrInsufficientCapacity.
func (r *CatalogRepository) ApplySeatDelta(ctx context.Context, tx pgx.Tx, courseID int64, pool models.Category, delta int) error {
	column, ok := seatPoolColumn[pool]
	if !ok {
		return apperrors.ErrInvalidCategory
	}

	query := fmt.Sprintf(`
		UPDATE courses
		SET %s = %s + $2,
		    available_seats = available_seats + $2,
		    updated_at = NOW()
		WHERE id = $1`, column, column)

	cmdTag, err := tx.Exec(ctx, query, courseID, delta)
	if err != nil {
		if dberrors.IsCheckViolation(err, "courses_"+column+"_check") ||
			dberrors.IsCheckViolation(err, "courses_available_seats_check") {
			return apperrors.ErrInsufficientCapacity
		}
		return fmt.Errorf("error applying seat delta: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}
	return nil
}
