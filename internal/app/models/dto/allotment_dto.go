package dto

// AcceptAllotmentRequest records a student's acceptance decision.
// Freeze true locks the seat permanently; false keeps the student in later
// rounds with this seat as the floor.
type AcceptAllotmentRequest struct {
	Freeze *bool `json:"freeze" binding:"required"`
}

// RejectAllotmentRequest records a student's rejection with an optional reason
type RejectAllotmentRequest struct {
	Reason string `json:"reason" binding:"max=500" example:"Prefer a college closer to home"`
}
