package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adityahegde/counselflow/internal/allotment"
	"github.com/adityahegde/counselflow/internal/app/models"
	"github.com/adityahegde/counselflow/internal/app/repositories"
	"github.com/adityahegde/counselflow/internal/db"
	"github.com/adityahegde/counselflow/internal/pkg/apperrors"
	"github.com/adityahegde/counselflow/internal/pkg/logger"
)

// ChoiceService manages student preference lists through the submission
// lifecycle. All mutations are checked against the in-memory preference
// contract before any row is touched.
type ChoiceService struct {
	pool        *pgxpool.Pool
	studentRepo *repositories.StudentRepository
	catalogRepo *repositories.CatalogRepository
	choiceRepo  *repositories.ChoiceRepository
	eligibility *EligibilityService
	maxChoices  int
	minChoices  int
}

// NewChoiceService creates a new choice service
func NewChoiceService(
	pool *pgxpool.Pool,
	studentRepo *repositories.StudentRepository,
	catalogRepo *repositories.CatalogRepository,
	choiceRepo *repositories.ChoiceRepository,
	eligibility *EligibilityService,
	maxChoices, minChoices int,
) *ChoiceService {
	if maxChoices <= 0 || maxChoices > allotment.MaxChoices {
		maxChoices = allotment.MaxChoices
	}
	if minChoices <= 0 {
		minChoices = 1
	}
	return &ChoiceService{
		pool:        pool,
		studentRepo: studentRepo,
		catalogRepo: catalogRepo,
		choiceRepo:  choiceRepo,
		eligibility: eligibility,
		maxChoices:  maxChoices,
		minChoices:  minChoices,
	}
}

// MaxChoices returns the configured preference list ceiling
func (s *ChoiceService) MaxChoices() int {
	return s.maxChoices
}

// loadList materializes the student's preference list with its contract state
func (s *ChoiceService) loadList(ctx context.Context, student *models.Student) (*allotment.PreferenceList, error) {
	choices, err := s.choiceRepo.GetByStudent(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	entries := make([]allotment.PreferenceEntry, len(choices))
	for i, c := range choices {
		entries[i] = allotment.PreferenceEntry{
			ChoiceID: c.ID,
			CourseID: c.CourseID,
			Order:    c.PreferenceOrder,
		}
	}
	return allotment.NewPreferenceList(student.ID, student.ChoicesSubmitted, entries), nil
}

// GetEligibleCourses lists the courses the student's exam type and rank admit
func (s *ChoiceService) GetEligibleCourses(ctx context.Context, studentID int64) ([]*models.Course, error) {
	student, err := s.eligibility.RequireEligible(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return s.catalogRepo.GetEligibleCourses(ctx, student.ExamType, student.ExamRank)
}

// GetChoices returns the student's current preference list with course details
func (s *ChoiceService) GetChoices(ctx context.Context, studentID int64) ([]*models.Choice, bool, error) {
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	choices, err := s.choiceRepo.GetByStudent(ctx, studentID)
	if err != nil {
		return nil, false, err
	}

	courseIDs := make([]int64, len(choices))
	for i, c := range choices {
		courseIDs[i] = c.CourseID
	}
	courses, err := s.catalogRepo.GetCoursesByIDs(ctx, courseIDs)
	if err != nil {
		return nil, false, err
	}
	for _, c := range choices {
		c.Course = courses[c.CourseID]
	}
	return choices, student.ChoicesSubmitted, nil
}

// AddChoice appends a course to the preference list at the next order
func (s *ChoiceService) AddChoice(ctx context.Context, studentID, courseID int64) (*models.Choice, error) {
	student, err := s.eligibility.RequireEligible(ctx, studentID)
	if err != nil {
		return nil, err
	}

	course, err := s.catalogRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsActive {
		return nil, apperrors.ErrCourseInactive
	}
	if !course.AcceptsExam(student.ExamType) || !course.InRankWindow(student.ExamRank) {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed,
			"Course does not admit this student's exam type or rank")
	}

	list, err := s.loadList(ctx, student)
	if err != nil {
		return nil, err
	}
	if len(list.Entries) >= s.maxChoices {
		return nil, apperrors.ErrChoiceLimitReached
	}
	entry, err := list.Add(courseID)
	if err != nil {
		return nil, err
	}

	choice := &models.Choice{
		StudentID:       studentID,
		CourseID:        courseID,
		PreferenceOrder: entry.Order,
		Course:          course,
	}
	err = db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		return s.choiceRepo.Create(ctx, tx, choice)
	})
	if err != nil {
		return nil, err
	}
	return choice, nil
}

// RemoveChoice deletes a choice; remaining orders close up contiguously
func (s *ChoiceService) RemoveChoice(ctx context.Context, studentID, choiceID int64) error {
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return err
	}

	list, err := s.loadList(ctx, student)
	if err != nil {
		return err
	}
	if err := list.Remove(choiceID); err != nil {
		return err
	}

	return db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		return s.choiceRepo.Delete(ctx, tx, studentID, choiceID)
	})
}

// ReorderChoices applies a full permutation of preference orders
func (s *ChoiceService) ReorderChoices(ctx context.Context, studentID int64, orders map[int64]int) error {
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return err
	}

	list, err := s.loadList(ctx, student)
	if err != nil {
		return err
	}
	if err := list.Reorder(orders); err != nil {
		return err
	}

	return db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		return s.choiceRepo.UpdateOrders(ctx, tx, studentID, orders)
	})
}

// SubmitChoices locks the preference list irreversibly. After this call the
// list is the student's frozen input to every remaining round.
func (s *ChoiceService) SubmitChoices(ctx context.Context, studentID int64) (int, error) {
	student, err := s.eligibility.RequireEligible(ctx, studentID)
	if err != nil {
		return 0, err
	}

	list, err := s.loadList(ctx, student)
	if err != nil {
		return 0, err
	}
	if len(list.Entries) < s.minChoices {
		return 0, apperrors.ErrEmptyChoiceList
	}
	if err := list.Submit(); err != nil {
		return 0, err
	}

	var locked int
	err = db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		locked, err = s.choiceRepo.LockAll(ctx, tx, studentID)
		if err != nil {
			return err
		}
		return s.studentRepo.SetChoicesSubmitted(ctx, tx, studentID)
	})
	if err != nil {
		return 0, err
	}

	logger.Info().
		Int64("student_id", studentID).
		Int("choices", locked).
		Msg("Preference list submitted and locked")
	return locked, nil
}
