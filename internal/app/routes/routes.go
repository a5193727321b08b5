package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/adityahegde/counselflow/internal/app/controllers"
	"github.com/adityahegde/counselflow/internal/app/models"
	"github.com/adityahegde/counselflow/internal/app/models/dto"
	"github.com/adityahegde/counselflow/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	catalogController *controllers.CatalogController,
	choiceController *controllers.ChoiceController,
	allotmentController *controllers.AllotmentController,
	roundController *controllers.RoundController,
	authMiddleware *middleware.AuthMiddleware,
) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")

	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.APIResponse{
			Data:      gin.H{"status": "ok"},
			Timestamp: time.Now(),
		})
	})

	// --- Public catalog routes ---
	colleges := v1.Group("/colleges")
	{
		colleges.GET("", catalogController.GetColleges)
		colleges.GET("/:id", catalogController.GetCollegeByID)
	}

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		// Student-only preference list routes
		choices := authenticated.Group("/choices")
		choices.Use(authMiddleware.RoleRequired(models.RoleStudent))
		{
			choices.GET("/eligible-courses", choiceController.GetEligibleCourses)
			choices.GET("", choiceController.GetChoices)
			choices.POST("", choiceController.AddChoice)
			choices.DELETE("/:id", choiceController.RemoveChoice)
			choices.PUT("/reorder", choiceController.ReorderChoices)
			choices.POST("/submit", choiceController.SubmitChoices)
		}

		// Student-only seat decision routes
		allotments := authenticated.Group("/allotments")
		allotments.Use(authMiddleware.RoleRequired(models.RoleStudent))
		{
			allotments.GET("/me", allotmentController.GetCurrentAllotment)
			allotments.GET("/history", allotmentController.GetAllotmentHistory)
			allotments.POST("/:id/accept", allotmentController.AcceptAllotment)
			allotments.POST("/:id/reject", allotmentController.RejectAllotment)
		}

		// Round routes: reads for any authenticated user, writes admin-only
		rounds := authenticated.Group("/rounds")
		{
			rounds.GET("", roundController.GetRounds)
			rounds.GET("/:roundNumber", roundController.GetRound)

			roundsAdmin := rounds.Group("")
			roundsAdmin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
			{
				roundsAdmin.POST("", roundController.CreateRound)
				roundsAdmin.POST("/:roundNumber/execute", roundController.ExecuteRound)
				roundsAdmin.GET("/statistics", roundController.GetStatistics)
			}
		}
	}
}
