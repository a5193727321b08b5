package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/adityahegde/counselflow/internal/app/models/dto"
	"github.com/adityahegde/counselflow/internal/pkg/apperrors"
	"github.com/adityahegde/counselflow/internal/pkg/logger"
)

// HandleAPIError maps service errors onto HTTP responses. Controllers call
// this for every non-nil service error instead of switching locally.
func HandleAPIError(c *gin.Context, err error) {
	var custom *apperrors.CustomError
	message := func(fallback string) string {
		if errors.As(err, &custom) && custom.Message != "" {
			return custom.Message
		}
		return fallback
	}
	respond := func(status int, code dto.ErrorCode, fallback string) {
		detail := dto.NewErrorDetail(code, message(fallback))
		if custom != nil && custom.Details != nil {
			detail = detail.WithDetails(custom.Details)
		}
		c.JSON(status, dto.NewErrorResponse(detail))
	}

	switch {
	// Auth
	case errors.Is(err, apperrors.ErrTokenExpired):
		respond(401, dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid):
		respond(401, dto.ErrorCodeInvalidToken, "Invalid token")
	case errors.Is(err, apperrors.ErrPermissionDenied):
		respond(403, dto.ErrorCodeForbidden, "Permission denied")

	// Not found
	case apperrors.Is(err, apperrors.ErrResourceNotFound,
		apperrors.ErrStudentNotFound, apperrors.ErrCollegeNotFound,
		apperrors.ErrCourseNotFound, apperrors.ErrChoiceNotFound,
		apperrors.ErrAllotmentNotFound, apperrors.ErrRoundNotFound):
		respond(404, dto.ErrorCodeResourceNotFound, "Resource not found")

	// Student state is an upstream data problem, not a client mistake.
	case errors.Is(err, apperrors.ErrInvalidStudentState):
		respond(422, dto.ErrorCodeInvalidStudentState, "Student eligibility state is incomplete")
	case errors.Is(err, apperrors.ErrStudentNotEligible):
		respond(403, dto.ErrorCodeForbidden, "Student is not eligible for counseling")

	// Preference list contract: user-correctable, no retry semantics.
	case errors.Is(err, apperrors.ErrChoicesAlreadySubmitted):
		respond(409, dto.ErrorCodeChoicesLocked, "Choices are already submitted and locked")
	case errors.Is(err, apperrors.ErrDuplicateChoice):
		respond(409, dto.ErrorCodeResourceAlreadyExists, "Course already added to choices")
	case errors.Is(err, apperrors.ErrChoiceLimitReached):
		respond(400, dto.ErrorCodeChoiceLimit, "Maximum number of choices reached")
	case errors.Is(err, apperrors.ErrEmptyChoiceList):
		respond(400, dto.ErrorCodeEmptyChoiceList, "Choice list is empty")
	case errors.Is(err, apperrors.ErrInvalidPreferenceOrder):
		respond(400, dto.ErrorCodeValidationFailed, "Preference orders must be a contiguous permutation")
	case errors.Is(err, apperrors.ErrCourseInactive):
		respond(400, dto.ErrorCodeValidationFailed, "Course is not active")

	// Decisions and rounds
	case errors.Is(err, apperrors.ErrInvalidStatusTransition):
		respond(409, dto.ErrorCodeInvalidTransition, "Allotment status transition not allowed")
	case errors.Is(err, apperrors.ErrDecisionWindowClosed):
		respond(409, dto.ErrorCodeDecisionWindowClosed, "Decision window for this round has closed")
	case errors.Is(err, apperrors.ErrRoundAlreadyExists):
		respond(409, dto.ErrorCodeResourceAlreadyExists, "Round already exists")
	case errors.Is(err, apperrors.ErrRoundConflict):
		respond(409, dto.ErrorCodeRoundConflict, "Round already executed with different inputs")
	case errors.Is(err, apperrors.ErrRoundOutOfOrder):
		respond(409, dto.ErrorCodeRoundConflict, "Round number must follow the last executed round")
	case errors.Is(err, apperrors.ErrRoundInProgress):
		respond(409, dto.ErrorCodeResourceConflict, "Round execution already in progress")

	case errors.Is(err, apperrors.ErrValidationFailed):
		respond(400, dto.ErrorCodeValidationFailed, "Validation failed")

	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled API error")
		respond(500, dto.ErrorCodeInternalServer, "Internal server error")
	}
}
