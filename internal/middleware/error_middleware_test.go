package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityahegde/counselflow/internal/app/models/dto"
	"github.com/adityahegde/counselflow/internal/pkg/apperrors"
)

func respondWith(t *testing.T, err error) (*httptest.ResponseRecorder, dto.ErrorResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	HandleAPIError(c, err)

	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHandleAPIError_StatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   dto.ErrorCode
	}{
		{"student state incomplete", apperrors.ErrInvalidStudentState, 422, dto.ErrorCodeInvalidStudentState},
		{"choices locked", apperrors.ErrChoicesAlreadySubmitted, 409, dto.ErrorCodeChoicesLocked},
		{"choice limit", apperrors.ErrChoiceLimitReached, 400, dto.ErrorCodeChoiceLimit},
		{"empty choice list", apperrors.ErrEmptyChoiceList, 400, dto.ErrorCodeEmptyChoiceList},
		{"duplicate choice", apperrors.ErrDuplicateChoice, 409, dto.ErrorCodeResourceAlreadyExists},
		{"bad permutation", apperrors.ErrInvalidPreferenceOrder, 400, dto.ErrorCodeValidationFailed},
		{"round conflict", apperrors.ErrRoundConflict, 409, dto.ErrorCodeRoundConflict},
		{"round out of order", apperrors.ErrRoundOutOfOrder, 409, dto.ErrorCodeRoundConflict},
		{"round in progress", apperrors.ErrRoundInProgress, 409, dto.ErrorCodeResourceConflict},
		{"window closed", apperrors.ErrDecisionWindowClosed, 409, dto.ErrorCodeDecisionWindowClosed},
		{"bad transition", apperrors.ErrInvalidStatusTransition, 409, dto.ErrorCodeInvalidTransition},
		{"choice not found", apperrors.ErrChoiceNotFound, 404, dto.ErrorCodeResourceNotFound},
		{"allotment not found", apperrors.ErrAllotmentNotFound, 404, dto.ErrorCodeResourceNotFound},
		{"unknown", assertAnError(), 500, dto.ErrorCodeInternalServer},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := respondWith(t, tc.err)
			assert.Equal(t, tc.wantStatus, w.Code)
			require.NotNil(t, body.Error)
			assert.Equal(t, tc.wantCode, body.Error.Code)
		})
	}
}

func TestHandleAPIError_WrappedCustomErrorKeepsMessage(t *testing.T) {
	err := apperrors.NewCustomError(apperrors.ErrRoundConflict,
		"Round was already executed with a different input snapshot")

	w, body := respondWith(t, err)
	assert.Equal(t, 409, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "Round was already executed with a different input snapshot", body.Error.Message)
}

type anError struct{}

func (anError) Error() string { return "boom" }

func assertAnError() error { return anError{} }
