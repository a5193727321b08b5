package models

import "time"

// AllotmentStatus is the lifecycle state of an allotment record
type AllotmentStatus string

const (
	// StatusAllotted is the initial state produced by the engine
	StatusAllotted AllotmentStatus = "allotted"
	// StatusAcceptedFrozen locks the seat; the student leaves all future rounds
	StatusAcceptedFrozen AllotmentStatus = "accepted_frozen"
	// StatusAcceptedUpgrade keeps the seat as a floor while remaining a candidate
	StatusAcceptedUpgrade AllotmentStatus = "accepted_upgrade"
	// StatusRejected gives up the seat and releases it back to its pool
	StatusRejected AllotmentStatus = "rejected"
	// StatusUpgraded marks a superseded upgrade-accepted seat
	StatusUpgraded AllotmentStatus = "upgraded"
	// StatusCancelled marks an admin-cancelled record
	StatusCancelled AllotmentStatus = "cancelled"
)

// Reason codes recorded on forced or student-initiated rejection
const (
	ReasonStudentRejected = "student_rejected"
	ReasonDeadlineExpired = "deadline_expired"
)

// CanTransitionTo reports whether a status change is legal. Only the engine
// creates records in StatusAllotted; everything else moves through here.
func (s AllotmentStatus) CanTransitionTo(next AllotmentStatus) bool {
	switch s {
	case StatusAllotted:
		return next == StatusAcceptedFrozen || next == StatusAcceptedUpgrade ||
			next == StatusRejected || next == StatusCancelled
	case StatusAcceptedUpgrade:
		// Superseded by a better seat in a later round.
		return next == StatusUpgraded || next == StatusCancelled
	default:
		return false
	}
}

// IsTerminal reports whether the record can never change again
func (s AllotmentStatus) IsTerminal() bool {
	switch s {
	case StatusAcceptedFrozen, StatusRejected, StatusUpgraded, StatusCancelled:
		return true
	}
	return false
}

// Allotment is one seat offer produced by an engine pass. History is
// append-only: superseded records stay with status 'upgraded'.
type Allotment struct {
	ID          int64           `json:"id" db:"id"`
	StudentID   int64           `json:"studentId" db:"student_id"`
	CourseID    int64           `json:"courseId" db:"course_id"`
	RoundNumber int             `json:"roundNumber" db:"round_number"`

	AllottedRank     int      `json:"allottedRank" db:"allotted_rank"`
	AllottedCategory Category `json:"allottedCategory" db:"allotted_category"` // Student's category, for audit
	SeatPool         Category `json:"seatPool" db:"seat_pool"`                 // Pool actually charged; Release targets this

	Status          AllotmentStatus `json:"status" db:"status"`
	DecisionAt      *time.Time      `json:"decisionAt,omitempty" db:"decision_at"`
	RejectionReason *string         `json:"rejectionReason,omitempty" db:"rejection_reason"`
	ReasonCode      *string         `json:"reasonCode,omitempty" db:"reason_code"`

	AllottedAt time.Time `json:"allottedAt" db:"allotted_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	Student *Student `json:"student,omitempty"`
	Course  *Course  `json:"course,omitempty"`
}

// AllotmentRound is one execution of the engine across all eligible students.
// SnapshotHash is the idempotency key payload: re-running the same round with
// the same inputs returns the stored summary instead of executing again.
type AllotmentRound struct {
	ID                 int64      `json:"id" db:"id"`
	RoundNumber        int        `json:"roundNumber" db:"round_number"`
	StartDate          time.Time  `json:"startDate" db:"start_date"`
	EndDate            time.Time  `json:"endDate" db:"end_date"`
	AcceptanceDeadline time.Time  `json:"acceptanceDeadline" db:"acceptance_deadline"`
	IsActive           bool       `json:"isActive" db:"is_active"`
	IsCompleted        bool       `json:"isCompleted" db:"is_completed"`
	SnapshotHash       *string    `json:"snapshotHash,omitempty" db:"snapshot_hash"`

	StudentsProcessed int `json:"studentsProcessed" db:"students_processed"`
	TotalAllotments   int `json:"totalAllotments" db:"total_allotments"`
	AcceptedCount     int `json:"acceptedCount" db:"accepted_count"`
	RejectedCount     int `json:"rejectedCount" db:"rejected_count"`

	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
	CompletedAt *time.Time `json:"completedAt,omitempty" db:"completed_at"`
}
