package dto

import "time"

// CreateRoundRequest creates a counseling round before execution
type CreateRoundRequest struct {
	RoundNumber        int       `json:"roundNumber" binding:"required,gt=0" example:"1"`
	StartDate          time.Time `json:"startDate" binding:"required"`
	EndDate            time.Time `json:"endDate" binding:"required"`
	AcceptanceDeadline time.Time `json:"acceptanceDeadline" binding:"required"`
}

// RoundSummary is the per-round execution summary produced by the engine
type RoundSummary struct {
	RoundNumber       int    `json:"roundNumber"`
	StudentsProcessed int    `json:"studentsProcessed"`
	AllotmentsMade    int    `json:"allotmentsMade"`
	SnapshotHash      string `json:"snapshotHash"`
	Replayed          bool   `json:"replayed"` // True when an identical re-trigger returned the cached result
}

// ExecuteRoundResponse acknowledges an enqueued engine pass
type ExecuteRoundResponse struct {
	RoundNumber int    `json:"roundNumber"`
	TaskID      string `json:"taskId"`
	StatusURL   string `json:"statusUrl"`
}

// AllotmentStatistics aggregates decision counts across all rounds
type AllotmentStatistics struct {
	TotalAllotments int         `json:"totalAllotments"`
	AcceptedFrozen  int         `json:"acceptedFrozen"`
	AcceptedUpgrade int         `json:"acceptedUpgrade"`
	Rejected        int         `json:"rejected"`
	Pending         int         `json:"pending"`
	Rounds          interface{} `json:"rounds"`
}
