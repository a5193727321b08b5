package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/adityahegde/counselflow/internal/app/models"
	"github.com/adityahegde/counselflow/internal/app/models/dto"
	"github.com/adityahegde/counselflow/internal/app/services"
	"github.com/adityahegde/counselflow/internal/jobs"
	"github.com/adityahegde/counselflow/internal/middleware"
	"github.com/adityahegde/counselflow/internal/pkg/logger"
)

// RoundController handles round administration: creation, execution and
// statistics. Execution is asynchronous; the endpoint only enqueues.
type RoundController struct {
	roundService     *services.RoundService
	allotmentService *services.AllotmentService
	taskClient       *asynq.Client
}

// NewRoundController creates a new RoundController
func NewRoundController(
	roundService *services.RoundService,
	allotmentService *services.AllotmentService,
	taskClient *asynq.Client,
) *RoundController {
	return &RoundController{
		roundService:     roundService,
		allotmentService: allotmentService,
		taskClient:       taskClient,
	}
}

// CreateRound registers a round before execution
// @Summary Create a counseling round
// @Tags rounds
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateRoundRequest true "Round definition"
// @Success 201 {object} dto.APIResponse "Round created"
// @Failure 409 {object} dto.ErrorResponse "Round already exists"
// @Router /rounds [post]
func (c *RoundController) CreateRound(ctx *gin.Context) {
	var req dto.CreateRoundRequest
	if !middleware.BindAndValidate(ctx, &req) {
		return
	}

	round, err := c.roundService.CreateRound(ctx, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	// Sweep undecided allotments once the acceptance window closes. The
	// next round's barrier expires them too, so a lost task is recovered.
	task, err := jobs.NewExpireDecisionsTask(round.RoundNumber)
	if err == nil {
		_, err = c.taskClient.EnqueueContext(ctx, task, asynq.ProcessAt(round.AcceptanceDeadline))
	}
	if err != nil {
		logger.Error().Err(err).Int("round", round.RoundNumber).
			Msg("Failed to schedule decision expiry sweep")
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: round, Timestamp: time.Now()})
}

func roundNumberParam(ctx *gin.Context) (int, bool) {
	n, err := strconv.Atoi(ctx.Param("roundNumber"))
	if err != nil || n <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid round number").
			WithDetails("Round number must be a positive integer")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return n, true
}

// ExecuteRound enqueues an engine pass for the round
// @Summary Execute a round
// @Description Enqueues the allotment engine pass. Processing is asynchronous; poll the round endpoint for completion. Re-triggering a completed round with identical inputs is a no-op.
// @Tags rounds
// @Produce json
// @Security BearerAuth
// @Param roundNumber path int true "Round number"
// @Success 202 {object} dto.APIResponse{data=dto.ExecuteRoundResponse} "Execution enqueued"
// @Failure 404 {object} dto.ErrorResponse "Round not found"
// @Router /rounds/{roundNumber}/execute [post]
func (c *RoundController) ExecuteRound(ctx *gin.Context) {
	roundNumber, ok := roundNumberParam(ctx)
	if !ok {
		return
	}

	// Fail fast on unknown rounds instead of letting the task bounce.
	if _, err := c.roundService.GetRound(ctx, roundNumber); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	task, err := jobs.NewRunRoundTask(roundNumber)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	info, err := c.taskClient.EnqueueContext(ctx, task)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	logger.Info().Int("round", roundNumber).Str("task_id", info.ID).
		Msg("Round execution enqueued")
	ctx.JSON(http.StatusAccepted, dto.APIResponse{
		Data: dto.ExecuteRoundResponse{
			RoundNumber: roundNumber,
			TaskID:      info.ID,
			StatusURL:   fmt.Sprintf("/api/v1/rounds/%d", roundNumber),
		},
		Timestamp: time.Now(),
	})
}

// GetRound retrieves one round with its execution summary
// @Summary Get round
// @Tags rounds
// @Produce json
// @Security BearerAuth
// @Param roundNumber path int true "Round number"
// @Success 200 {object} dto.APIResponse "Round retrieved"
// @Failure 404 {object} dto.ErrorResponse "Round not found"
// @Router /rounds/{roundNumber} [get]
func (c *RoundController) GetRound(ctx *gin.Context) {
	roundNumber, ok := roundNumberParam(ctx)
	if !ok {
		return
	}

	round, err := c.roundService.GetRound(ctx, roundNumber)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: round, Timestamp: time.Now()})
}

// GetRounds lists all rounds
// @Summary List rounds
// @Tags rounds
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse "Rounds retrieved"
// @Router /rounds [get]
func (c *RoundController) GetRounds(ctx *gin.Context) {
	rounds, err := c.roundService.GetRounds(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: rounds, Timestamp: time.Now()})
}

// GetStatistics aggregates decision counts across rounds
// @Summary Allotment statistics
// @Tags rounds
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.AllotmentStatistics} "Statistics retrieved"
// @Router /rounds/statistics [get]
func (c *RoundController) GetStatistics(ctx *gin.Context) {
	counts, rounds, err := c.allotmentService.GetStatistics(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	stats := dto.AllotmentStatistics{
		AcceptedFrozen:  counts[models.StatusAcceptedFrozen],
		AcceptedUpgrade: counts[models.StatusAcceptedUpgrade],
		Rejected:        counts[models.StatusRejected],
		Pending:         counts[models.StatusAllotted],
		Rounds:          rounds,
	}
	for _, n := range counts {
		stats.TotalAllotments += n
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: stats, Timestamp: time.Now()})
}
