package models

import "time"

// Choice represents one entry of a student's ordered preference list.
// preference_order is 1-based, unique and contiguous per student.
type Choice struct {
	ID              int64      `json:"id" db:"id"`
	StudentID       int64      `json:"studentId" db:"student_id"`
	CourseID        int64      `json:"courseId" db:"course_id"`
	PreferenceOrder int        `json:"preferenceOrder" db:"preference_order"`
	IsLocked        bool       `json:"isLocked" db:"is_locked"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
	SubmittedAt     *time.Time `json:"submittedAt,omitempty" db:"submitted_at"`

	// Relations (populated when needed)
	Course *Course `json:"course,omitempty"`
}
