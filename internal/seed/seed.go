package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// CreateDefaultData seeds a minimal catalog for development environments.
// Production catalogs are loaded by the admissions back office; this only
// fills an empty database so the API is usable out of the box.
func CreateDefaultData(ctx context.Context, db *pgxpool.Pool, lgr zerolog.Logger) error {
	var collegeCount int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM colleges`).Scan(&collegeCount); err != nil {
		return fmt.Errorf("failed to count colleges: %w", err)
	}
	if collegeCount > 0 {
		lgr.Debug().Int("colleges", collegeCount).Msg("Catalog already present, skipping seed")
		return nil
	}

	lgr.Info().Msg("Seeding development catalog...")

	var collegeID int64
	err := db.QueryRow(ctx, `
		INSERT INTO colleges (code, name, type, city, state)
		VALUES ('GEC001', 'Government Engineering College', 'Government', 'Bengaluru', 'Karnataka')
		RETURNING id`).Scan(&collegeID)
	if err != nil {
		return fmt.Errorf("failed to seed college: %w", err)
	}

	courses := []struct {
		code, name, branch string
		total              int
		general, obc, sc, st, ews int
	}{
		{"CSE", "Computer Science and Engineering", "CSE", 60, 30, 16, 9, 4, 1},
		{"ECE", "Electronics and Communication Engineering", "ECE", 60, 30, 16, 9, 4, 1},
		{"ME", "Mechanical Engineering", "Mechanical", 40, 20, 11, 6, 2, 1},
	}
	for _, c := range courses {
		_, err := db.Exec(ctx, `
			INSERT INTO courses (
				college_id, code, name, degree, branch, total_seats, available_seats,
				general_seats, obc_seats, sc_seats, st_seats, ews_seats,
				tuition_fee, other_fees, accepted_exam_types
			) VALUES ($1, $2, $3, 'B.E.', $4, $5, $5, $6, $7, $8, $9, $10, 58806, 12500, '{KCET,COMEDK}')`,
			collegeID, c.code, c.name, c.branch, c.total, c.general, c.obc, c.sc, c.st, c.ews)
		if err != nil {
			return fmt.Errorf("failed to seed course %s: %w", c.code, err)
		}
	}

	lgr.Info().Int("courses", len(courses)).Msg("Development catalog seeded")
	return nil
}
