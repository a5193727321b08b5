package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/adityahegde/counselflow/internal/app/services"
	"github.com/adityahegde/counselflow/internal/pkg/apperrors"
	"github.com/adityahegde/counselflow/internal/pkg/logger"
)

// Handlers processes counseling background tasks
type Handlers struct {
	roundService     *services.RoundService
	allotmentService *services.AllotmentService
}

// NewHandlers creates task handlers wired to the services
func NewHandlers(roundService *services.RoundService, allotmentService *services.AllotmentService) *Handlers {
	return &Handlers{
		roundService:     roundService,
		allotmentService: allotmentService,
	}
}

// NewMux registers all task handlers on an asynq mux
func (h *Handlers) NewMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeRunRound, h.HandleRunRound)
	mux.HandleFunc(TypeExpireDecisions, h.HandleExpireDecisions)
	return mux
}

// HandleRunRound executes one engine pass. Conflicts and replays are final:
// retrying cannot change the outcome, so they skip asynq's retry machinery.
func (h *Handlers) HandleRunRound(ctx context.Context, t *asynq.Task) error {
	var payload RunRoundPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid run round payload: %w: %w", err, asynq.SkipRetry)
	}

	summary, err := h.roundService.ExecuteRound(ctx, payload.RoundNumber)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrRoundConflict,
			apperrors.ErrRoundOutOfOrder, apperrors.ErrRoundNotFound) {
			logger.Error().Err(err).Int("round", payload.RoundNumber).
				Msg("Round execution rejected, not retrying")
			return errors.Join(err, asynq.SkipRetry)
		}
		// Lock contention and transient failures retry with backoff.
		return err
	}

	logger.Info().
		Int("round", summary.RoundNumber).
		Int("allotments", summary.AllotmentsMade).
		Bool("replayed", summary.Replayed).
		Msg("Round task completed")
	return nil
}

// HandleExpireDecisions force-expires undecided allotments past the deadline
func (h *Handlers) HandleExpireDecisions(ctx context.Context, t *asynq.Task) error {
	var payload ExpireDecisionsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid expire decisions payload: %w: %w", err, asynq.SkipRetry)
	}

	expired, err := h.allotmentService.ExpirePending(ctx, payload.RoundNumber)
	if err != nil {
		return err
	}
	logger.Info().Int("round", payload.RoundNumber).Int("expired", expired).
		Msg("Expire decisions task completed")
	return nil
}
