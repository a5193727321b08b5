package models

import "time"

// Student defines the student model based on the 'students' table
type Student struct {
	ID             int64     `json:"id" db:"id" example:"1"`
	FirstName      string    `json:"firstName" db:"first_name"`
	LastName       string    `json:"lastName" db:"last_name"`
	Email          string    `json:"email" db:"email"`
	Mobile         string    `json:"mobile" db:"mobile"`
	ExamType       ExamType  `json:"examType" db:"exam_type" example:"KCET"`
	ExamRank       int       `json:"examRank" db:"exam_rank" example:"1542"` // Lower rank means higher merit
	ExamRollNumber string    `json:"examRollNumber" db:"exam_roll_number"`
	Category       Category  `json:"category" db:"category" example:"General"`
	DomicileState  string    `json:"domicileState" db:"domicile_state"`

	// Eligibility flags, mutated by external collaborators (registration,
	// document verification, payment capture). Nullable on purpose: an unset
	// flag is an error signal, not "false".
	RegistrationComplete *bool `json:"registrationComplete" db:"registration_complete"`
	DocumentsVerified    *bool `json:"documentsVerified" db:"documents_verified"`
	PaymentComplete      *bool `json:"paymentComplete" db:"payment_complete"`

	ChoicesSubmitted   bool `json:"choicesSubmitted" db:"choices_submitted"`
	SeatAllotted       bool `json:"seatAllotted" db:"seat_allotted"`
	AdmissionConfirmed bool `json:"admissionConfirmed" db:"admission_confirmed"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"` // Registration time, merit tiebreaker
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// FullName returns the display name of the student
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
