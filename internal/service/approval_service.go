package service

import (
	"context"

	"github.com/rs/zerolog"

	"mensa/internal/events"
	"mensa/internal/metrics"
	"mensa/internal/models"
)

// ApprovalService runs the manager's student approval workflow.
type ApprovalService struct {
	repo   Repository
	bus    EventBus
	logger zerolog.Logger
}

func NewApprovalService(repo Repository, bus EventBus, logger *zerolog.Logger) *ApprovalService {
	return &ApprovalService{
		repo:   repo,
		bus:    bus,
		logger: logger.With().Str("component", "approvals").Logger(),
	}
}

// ListPending returns the tenant's students awaiting approval.
func (s *ApprovalService) ListPending(ctx context.Context, universityID int64) ([]models.User, error) {
	return s.repo.ListUsersByApproval(ctx, universityID, models.ApprovalPending)
}

// Approve marks a pending student approved.
func (s *ApprovalService) Approve(ctx context.Context, manager *models.User, studentID int64) error {
	return s.decide(ctx, manager, studentID, models.ApprovalApproved, events.TypeStudentApproved)
}

// Reject marks a pending student rejected.
func (s *ApprovalService) Reject(ctx context.Context, manager *models.User, studentID int64) error {
	return s.decide(ctx, manager, studentID, models.ApprovalRejected, events.TypeStudentRejected)
}

func (s *ApprovalService) decide(ctx context.Context, manager *models.User, studentID int64, status models.ApprovalStatus, eventType string) error {
	student, err := s.repo.GetUserByID(ctx, studentID)
	if err != nil {
		return err
	}
	if student.UniversityID != manager.UniversityID && !manager.Role.IsAdmin() {
		return ErrWrongTenant
	}

	if err := s.repo.UpdateApproval(ctx, studentID, status); err != nil {
		return err
	}
	metrics.IncManagerDecision(string(status))

	if err := s.bus.PublishJSON(eventType, student); err != nil {
		s.logger.Error().Err(err).Int64("student_id", studentID).Msg("publish approval decision")
	}
	s.logger.Info().
		Int64("student_id", studentID).
		Int64("manager_id", manager.ID).
		Str("decision", string(status)).
		Msg("approval decided")
	return nil
}
