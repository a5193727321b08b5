package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adityahegde/counselflow/internal/app/models/dto"
	"github.com/adityahegde/counselflow/internal/app/services"
	"github.com/adityahegde/counselflow/internal/middleware"
)

// AllotmentController handles seat decisions for students
type AllotmentController struct {
	allotmentService *services.AllotmentService
}

// NewAllotmentController creates a new AllotmentController
func NewAllotmentController(allotmentService *services.AllotmentService) *AllotmentController {
	return &AllotmentController{allotmentService: allotmentService}
}

// GetCurrentAllotment returns the student's actionable or held allotment
// @Summary Get current allotment
// @Description Returns the student's latest pending or accepted allotment with course details
// @Tags allotments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse "Allotment retrieved"
// @Failure 404 {object} dto.ErrorResponse "No allotment for this student"
// @Router /allotments/me [get]
func (c *AllotmentController) GetCurrentAllotment(ctx *gin.Context) {
	sid, ok := studentID(ctx)
	if !ok {
		return
	}

	a, err := c.allotmentService.GetCurrent(ctx, sid)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: a, Timestamp: time.Now()})
}

// GetAllotmentHistory lists the student's allotments across all rounds
// @Summary Get allotment history
// @Tags allotments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse "History retrieved"
// @Router /allotments/history [get]
func (c *AllotmentController) GetAllotmentHistory(ctx *gin.Context) {
	sid, ok := studentID(ctx)
	if !ok {
		return
	}

	history, err := c.allotmentService.GetHistory(ctx, sid)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: history, Timestamp: time.Now()})
}

func allotmentID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid allotment ID").
			WithDetails("Allotment ID must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// AcceptAllotment records an acceptance decision
// @Summary Accept an allotted seat
// @Description Accepts the seat. freeze=true locks it permanently and leaves all future rounds; freeze=false keeps the seat as an upgrade floor.
// @Tags allotments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Allotment ID"
// @Param request body dto.AcceptAllotmentRequest true "Decision"
// @Success 200 {object} dto.APIResponse "Decision recorded"
// @Failure 409 {object} dto.ErrorResponse "Window closed or already decided"
// @Router /allotments/{id}/accept [post]
func (c *AllotmentController) AcceptAllotment(ctx *gin.Context) {
	sid, ok := studentID(ctx)
	if !ok {
		return
	}
	id, ok := allotmentID(ctx)
	if !ok {
		return
	}

	var req dto.AcceptAllotmentRequest
	if !middleware.BindAndValidate(ctx, &req) {
		return
	}

	a, err := c.allotmentService.Accept(ctx, sid, id, *req.Freeze)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: a, Timestamp: time.Now()})
}

// RejectAllotment records a rejection decision
// @Summary Reject an allotted seat
// @Description Rejects the seat, releasing it back to the pool it was charged from
// @Tags allotments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Allotment ID"
// @Param request body dto.RejectAllotmentRequest false "Optional reason"
// @Success 200 {object} dto.APIResponse "Decision recorded"
// @Failure 409 {object} dto.ErrorResponse "Window closed or already decided"
// @Router /allotments/{id}/reject [post]
func (c *AllotmentController) RejectAllotment(ctx *gin.Context) {
	sid, ok := studentID(ctx)
	if !ok {
		return
	}
	id, ok := allotmentID(ctx)
	if !ok {
		return
	}

	var req dto.RejectAllotmentRequest
	if ctx.Request.ContentLength > 0 {
		if !middleware.BindAndValidate(ctx, &req) {
			return
		}
	}

	a, err := c.allotmentService.Reject(ctx, sid, id, req.Reason)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: a, Timestamp: time.Now()})
}
