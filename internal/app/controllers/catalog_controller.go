package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adityahegde/counselflow/internal/app/models/dto"
	"github.com/adityahegde/counselflow/internal/app/repositories"
	"github.com/adityahegde/counselflow/internal/middleware"
)

// CatalogController serves the public college and course catalog
type CatalogController struct {
	catalogRepo *repositories.CatalogRepository
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(catalogRepo *repositories.CatalogRepository) *CatalogController {
	return &CatalogController{catalogRepo: catalogRepo}
}

// GetColleges lists active colleges
// @Summary List colleges
// @Description Lists all active participating colleges
// @Tags catalog
// @Produce json
// @Success 200 {object} dto.APIResponse "Colleges retrieved successfully"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /colleges [get]
func (c *CatalogController) GetColleges(ctx *gin.Context) {
	colleges, err := c.catalogRepo.GetActiveColleges(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: colleges, Timestamp: time.Now()})
}

// GetCollegeByID retrieves one college
// @Summary Get college by ID
// @Description Retrieves a college and its details
// @Tags catalog
// @Produce json
// @Param id path int true "College ID"
// @Success 200 {object} dto.APIResponse "College retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "College not found"
// @Router /colleges/{id} [get]
func (c *CatalogController) GetCollegeByID(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid college ID").
			WithDetails("College ID must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	college, err := c.catalogRepo.GetCollegeByID(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: college, Timestamp: time.Now()})
}
