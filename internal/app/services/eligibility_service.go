package services

import (
	"context"

	"github.com/adityahegde/counselflow/internal/app/models"
	"github.com/adityahegde/counselflow/internal/app/repositories"
	"github.com/adityahegde/counselflow/internal/pkg/apperrors"
)

// EligibilityService decides whether a student may participate in counseling
type EligibilityService struct {
	studentRepo *repositories.StudentRepository
}

// NewEligibilityService creates a new eligibility service
func NewEligibilityService(studentRepo *repositories.StudentRepository) *EligibilityService {
	return &EligibilityService{studentRepo: studentRepo}
}

// CheckStudent verifies the eligibility flags of a student record. An unset
// flag means an upstream collaborator has not reported yet; that is an error
// condition, never an implicit "not eligible".
func (s *EligibilityService) CheckStudent(student *models.Student) error {
	if student.RegistrationComplete == nil || student.DocumentsVerified == nil ||
		student.PaymentComplete == nil {
		return apperrors.NewCustomError(apperrors.ErrInvalidStudentState,
			"Eligibility flags are not fully recorded for this student")
	}
	if !*student.RegistrationComplete || !*student.DocumentsVerified || !*student.PaymentComplete {
		return apperrors.ErrStudentNotEligible
	}
	if student.ExamRank <= 0 {
		return apperrors.NewCustomError(apperrors.ErrInvalidStudentState,
			"Student has no valid exam rank")
	}
	return nil
}

// RequireEligible loads a student and verifies eligibility in one step
func (s *EligibilityService) RequireEligible(ctx context.Context, studentID int64) (*models.Student, error) {
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.CheckStudent(student); err != nil {
		return nil, err
	}
	return student, nil
}
