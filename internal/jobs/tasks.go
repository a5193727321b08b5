package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task types processed by the counseling worker
const (
	TypeRunRound        = "allotment:run_round"
	TypeExpireDecisions = "allotment:expire_decisions"
)

// Queue names; round execution must never starve behind bulk work
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// RunRoundPayload carries one engine pass request
type RunRoundPayload struct {
	RoundNumber int `json:"roundNumber"`
}

// ExpireDecisionsPayload expires undecided allotments of one round
type ExpireDecisionsPayload struct {
	RoundNumber int `json:"roundNumber"`
}

// NewRunRoundTask builds the round execution task. The task id is derived
// from the round number so asynq's uniqueness check deduplicates concurrent
// enqueues of the same round.
func NewRunRoundTask(roundNumber int) (*asynq.Task, error) {
	payload, err := json.Marshal(RunRoundPayload{RoundNumber: roundNumber})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run round payload: %w", err)
	}
	return asynq.NewTask(TypeRunRound, payload,
		asynq.TaskID(fmt.Sprintf("run-round-%d", roundNumber)),
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(5),
	), nil
}

// NewExpireDecisionsTask builds a deadline expiry sweep task
func NewExpireDecisionsTask(roundNumber int) (*asynq.Task, error) {
	payload, err := json.Marshal(ExpireDecisionsPayload{RoundNumber: roundNumber})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal expire decisions payload: %w", err)
	}
	return asynq.NewTask(TypeExpireDecisions, payload,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
	), nil
}
