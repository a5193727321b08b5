package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Student errors
var (
	ErrStudentNotFound = errors.New("student not found")
	// ErrInvalidStudentState signals missing/unset eligibility flags. It is
	// surfaced to the caller, never treated as "ineligible".
	ErrInvalidStudentState = errors.New("student eligibility state is incomplete")
	ErrStudentNotEligible  = errors.New("student is not eligible for counseling")
)

// Catalog errors
var (
	ErrCollegeNotFound = errors.New("college not found")
	ErrCourseNotFound  = errors.New("course not found")
	ErrCourseInactive  = errors.New("course is not active")
	ErrInvalidCategory = errors.New("unknown reservation category")
)

// Preference list contract errors. User-correctable, surfaced immediately.
var (
	ErrChoicesAlreadySubmitted = errors.New("choices are already submitted and locked")
	ErrDuplicateChoice         = errors.New("course already added to choices")
	ErrChoiceLimitReached      = errors.New("maximum number of choices reached")
	ErrEmptyChoiceList         = errors.New("choice list is empty")
	ErrChoiceNotFound          = errors.New("choice not found")
	ErrInvalidPreferenceOrder  = errors.New("preference orders must be a contiguous permutation")
)

// Ledger and engine errors
var (
	// ErrInsufficientCapacity is expected and benign: it drives the fallback
	// scan inside the engine and never surfaces as a request failure.
	ErrInsufficientCapacity = errors.New("insufficient seat capacity")
	ErrUnknownCourse        = errors.New("course not present in quota ledger")
)

// Allotment and round errors
var (
	ErrAllotmentNotFound        = errors.New("allotment not found")
	ErrInvalidStatusTransition  = errors.New("allotment status transition not allowed")
	ErrDecisionWindowClosed     = errors.New("decision window for this round has closed")
	ErrRoundNotFound            = errors.New("allotment round not found")
	ErrRoundAlreadyExists       = errors.New("allotment round already exists")
	// ErrRoundConflict guards idempotency: the round number was executed with
	// a different input snapshot. Identical replays are not errors.
	ErrRoundConflict    = errors.New("round already executed with different inputs")
	ErrRoundOutOfOrder  = errors.New("round number must follow the last executed round")
	ErrRoundInProgress  = errors.New("round execution already in progress")
)

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements the error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with an underlying sentinel
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// Is returns whether target matches err or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
