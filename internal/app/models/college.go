package models

import "time"

// CollegeType classifies how a college is funded
type CollegeType string

const (
	CollegeGovernment CollegeType = "Government"
	CollegePrivate    CollegeType = "Private"
	CollegeAided      CollegeType = "Aided"
)

// College represents a participating institution
type College struct {
	ID        int64       `json:"id" db:"id"`
	Code      string      `json:"code" db:"code"`
	Name      string      `json:"name" db:"name"`
	Type      CollegeType `json:"type" db:"type"`
	City      string      `json:"city" db:"city"`
	State     string      `json:"state" db:"state"`
	IsActive  bool        `json:"isActive" db:"is_active"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time   `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	Courses []*Course `json:"courses,omitempty"`
}

// Course represents a degree program offered by a college. Seat pool columns
// hold REMAINING seats; AvailableSeats is the ledger-tracked aggregate and is
// never negative.
type Course struct {
	ID            int64  `json:"id" db:"id"`
	CollegeID     int64  `json:"collegeId" db:"college_id"`
	Code          string `json:"code" db:"code"`
	Name          string `json:"name" db:"name"`
	Degree        string `json:"degree" db:"degree"` // B.E., B.Tech, ...
	Branch        string `json:"branch" db:"branch"` // CSE, ECE, Mechanical, ...
	DurationYears int    `json:"durationYears" db:"duration_years"`

	TotalSeats     int `json:"totalSeats" db:"total_seats"`
	AvailableSeats int `json:"availableSeats" db:"available_seats"`
	GeneralSeats   int `json:"generalSeats" db:"general_seats"` // Open pool, any category may land here
	OBCSeats       int `json:"obcSeats" db:"obc_seats"`
	SCSeats        int `json:"scSeats" db:"sc_seats"`
	STSeats        int `json:"stSeats" db:"st_seats"`
	EWSSeats       int `json:"ewsSeats" db:"ews_seats"`

	TuitionFee float64 `json:"tuitionFee" db:"tuition_fee"`
	OtherFees  float64 `json:"otherFees" db:"other_fees"`

	// Rank eligibility window. Nil means unbounded on that side.
	MinRank *int `json:"minRank,omitempty" db:"min_rank"`
	MaxRank *int `json:"maxRank,omitempty" db:"max_rank"`

	AcceptedExamTypes []ExamType `json:"acceptedExamTypes" db:"accepted_exam_types"`
	IsActive          bool       `json:"isActive" db:"is_active"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time  `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	College *College `json:"college,omitempty"`
}

// TotalFee returns tuition plus other annual fees
func (c *Course) TotalFee() float64 {
	return c.TuitionFee + c.OtherFees
}

// SeatsFor returns the remaining seats in the pool reserved for the given
// category. The General pool is the open pool.
func (c *Course) SeatsFor(cat Category) int {
	switch cat {
	case CategoryGeneral:
		return c.GeneralSeats
	case CategoryOBC:
		return c.OBCSeats
	case CategorySC:
		return c.SCSeats
	case CategoryST:
		return c.STSeats
	case CategoryEWS:
		return c.EWSSeats
	}
	return 0
}

// AcceptsExam reports whether the course admits ranks from the given exam
func (c *Course) AcceptsExam(e ExamType) bool {
	for _, t := range c.AcceptedExamTypes {
		if t == e {
			return true
		}
	}
	return false
}

// InRankWindow reports whether a rank falls inside the course eligibility window
func (c *Course) InRankWindow(rank int) bool {
	if c.MinRank != nil && rank < *c.MinRank {
		return false
	}
	if c.MaxRank != nil && rank > *c.MaxRank {
		return false
	}
	return true
}
