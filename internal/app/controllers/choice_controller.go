package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adityahegde/counselflow/internal/app/models"
	"github.com/adityahegde/counselflow/internal/app/models/dto"
	"github.com/adityahegde/counselflow/internal/app/services"
	"github.com/adityahegde/counselflow/internal/middleware"
)

// ChoiceController handles preference list operations for students
type ChoiceController struct {
	choiceService *services.ChoiceService
}

// NewChoiceController creates a new ChoiceController
func NewChoiceController(choiceService *services.ChoiceService) *ChoiceController {
	return &ChoiceController{choiceService: choiceService}
}

func studentID(ctx *gin.Context) (int64, bool) {
	id, ok := middleware.SubjectID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
	}
	return id, ok
}

// GetEligibleCourses lists courses the student's exam type and rank admit
// @Summary List eligible courses
// @Description Lists active courses matching the student's exam type and rank window, grouped by college
// @Tags choices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.EligibleCoursesResponse} "Eligible courses retrieved"
// @Failure 422 {object} dto.ErrorResponse "Student eligibility state is incomplete"
// @Router /choices/eligible-courses [get]
func (c *ChoiceController) GetEligibleCourses(ctx *gin.Context) {
	sid, ok := studentID(ctx)
	if !ok {
		return
	}

	courses, err := c.choiceService.GetEligibleCourses(ctx, sid)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	// Group by college for display.
	byCollege := make(map[int64][]*models.Course)
	var order []int64
	for _, course := range courses {
		if _, seen := byCollege[course.CollegeID]; !seen {
			order = append(order, course.CollegeID)
		}
		byCollege[course.CollegeID] = append(byCollege[course.CollegeID], course)
	}
	type collegeGroup struct {
		CollegeID int64            `json:"collegeId"`
		Courses   []*models.Course `json:"courses"`
	}
	groups := make([]collegeGroup, 0, len(order))
	for _, collegeID := range order {
		groups = append(groups, collegeGroup{CollegeID: collegeID, Courses: byCollege[collegeID]})
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: dto.EligibleCoursesResponse{
			Colleges:      groups,
			TotalColleges: len(groups),
			TotalCourses:  len(courses),
		},
		Timestamp: time.Now(),
	})
}

// GetChoices returns the student's preference list
// @Summary Get preference list
// @Tags choices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ChoiceListResponse} "Choices retrieved"
// @Router /choices [get]
func (c *ChoiceController) GetChoices(ctx *gin.Context) {
	sid, ok := studentID(ctx)
	if !ok {
		return
	}

	choices, submitted, err := c.choiceService.GetChoices(ctx, sid)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: dto.ChoiceListResponse{
			Choices:      choices,
			TotalChoices: len(choices),
			MaxChoices:   c.choiceService.MaxChoices(),
			Submitted:    submitted,
		},
		Timestamp: time.Now(),
	})
}

// AddChoice appends a course to the preference list
// @Summary Add a choice
// @Description Adds a course at the next preference order. Fails once the list is submitted.
// @Tags choices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AddChoiceRequest true "Course to add"
// @Success 201 {object} dto.APIResponse "Choice added"
// @Failure 400 {object} dto.ErrorResponse "Choice limit reached or course not admissible"
// @Failure 409 {object} dto.ErrorResponse "Choices locked or course already added"
// @Router /choices [post]
func (c *ChoiceController) AddChoice(ctx *gin.Context) {
	sid, ok := studentID(ctx)
	if !ok {
		return
	}

	var req dto.AddChoiceRequest
	if !middleware.BindAndValidate(ctx, &req) {
		return
	}

	choice, err := c.choiceService.AddChoice(ctx, sid, req.CourseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: choice, Timestamp: time.Now()})
}

// RemoveChoice deletes a choice from the list
// @Summary Remove a choice
// @Description Removes a choice; remaining preference orders close up contiguously
// @Tags choices
// @Produce json
// @Security BearerAuth
// @Param id path int true "Choice ID"
// @Success 200 {object} dto.APIResponse "Choice removed"
// @Failure 404 {object} dto.ErrorResponse "Choice not found"
// @Failure 409 {object} dto.ErrorResponse "Choices locked"
// @Router /choices/{id} [delete]
func (c *ChoiceController) RemoveChoice(ctx *gin.Context) {
	sid, ok := studentID(ctx)
	if !ok {
		return
	}

	choiceID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid choice ID").
			WithDetails("Choice ID must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if err := c.choiceService.RemoveChoice(ctx, sid, choiceID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.SuccessResponse{Message: "Choice removed"},
		Timestamp: time.Now(),
	})
}

// ReorderChoices applies a full permutation of preference orders
// @Summary Reorder choices
// @Description Reorders the whole preference list. Orders must be a contiguous 1..N permutation.
// @Tags choices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ReorderChoicesRequest true "New ordering"
// @Success 200 {object} dto.APIResponse "Choices reordered"
// @Failure 400 {object} dto.ErrorResponse "Invalid permutation"
// @Failure 409 {object} dto.ErrorResponse "Choices locked"
// @Router /choices/reorder [put]
func (c *ChoiceController) ReorderChoices(ctx *gin.Context) {
	sid, ok := studentID(ctx)
	if !ok {
		return
	}

	var req dto.ReorderChoicesRequest
	if !middleware.BindAndValidate(ctx, &req) {
		return
	}

	orders := make(map[int64]int, len(req.Choices))
	for _, entry := range req.Choices {
		orders[entry.ChoiceID] = entry.PreferenceOrder
	}

	if err := c.choiceService.ReorderChoices(ctx, sid, orders); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.SuccessResponse{Message: "Choices reordered"},
		Timestamp: time.Now(),
	})
}

// SubmitChoices locks the preference list
// @Summary Submit choices
// @Description Locks the preference list irreversibly. The locked list is the student's input to every remaining round.
// @Tags choices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse "Choices submitted"
// @Failure 400 {object} dto.ErrorResponse "Choice list is empty"
// @Failure 409 {object} dto.ErrorResponse "Already submitted"
// @Failure 422 {object} dto.ErrorResponse "Student eligibility state is incomplete"
// @Router /choices/submit [post]
func (c *ChoiceController) SubmitChoices(ctx *gin.Context) {
	sid, ok := studentID(ctx)
	if !ok {
		return
	}

	locked, err := c.choiceService.SubmitChoices(ctx, sid)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: gin.H{
			"message":      "Choices submitted and locked",
			"totalChoices": locked,
		},
		Timestamp: time.Now(),
	})
}
