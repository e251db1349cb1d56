package statistics

import (
	"context"

	"go.uber.org/zap"

	"github.com/kaayjang/kaayjang-web/internal/app/models"
)

var _ Service = (*ServiceImpl)(nil)

// Teachers see their latest few assignments, students all of their level.
const teacherAssignmentsShown = 5

// Backend is the part of the REST client serving dashboards and teacher
// validation.
type Backend interface {
	Stats(ctx context.Context, token string, role models.Role) (models.Stats, error)
	PendingTeachers(ctx context.Context, token string) ([]models.User, error)
	ValidateTeacher(ctx context.Context, token, teacherID string) error
	Assignments(ctx context.Context, token string) ([]models.Assignment, error)
}

type Service interface {
	GetDashboardStatistics(ctx context.Context, token string, role models.Role) (models.Stats, error)
	GetAssignments(ctx context.Context, token string, role models.Role) ([]models.Assignment, error)
	GetPendingTeachers(ctx context.Context, token string) ([]models.User, error)
	ValidateTeacher(ctx context.Context, token, teacherID string) error
}

type ServiceImpl struct {
	backend Backend
	logger  *zap.Logger
}

func NewService(backend Backend, logger *zap.Logger) *ServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServiceImpl{
		backend: backend,
		logger:  logger,
	}
}

func (s *ServiceImpl) GetDashboardStatistics(ctx context.Context, token string, role models.Role) (models.Stats, error) {
	l := s.logger.With(zap.String("method", "GetDashboardStatistics"), zap.String("role", string(role)))
	stats, err := s.backend.Stats(ctx, token, role)
	if err != nil {
		l.Error("Failed to get dashboard statistics", zap.Error(err))
		return nil, err
	}

	l.Debug("Successfully retrieved dashboard statistics", zap.Int("counters", len(stats)))
	return stats, nil
}

// GetAssignments lists the assignments shown on student and teacher
// dashboards. Admins have none and the backend is not asked.
func (s *ServiceImpl) GetAssignments(ctx context.Context, token string, role models.Role) ([]models.Assignment, error) {
	if role != models.RoleStudent && role != models.RoleTeacher {
		return nil, nil
	}
	l := s.logger.With(zap.String("method", "GetAssignments"), zap.String("role", string(role)))
	assignments, err := s.backend.Assignments(ctx, token)
	if err != nil {
		l.Error("Failed to get assignments", zap.Error(err))
		return nil, err
	}
	if role == models.RoleTeacher && len(assignments) > teacherAssignmentsShown {
		assignments = assignments[:teacherAssignmentsShown]
	}

	l.Debug("Successfully retrieved assignments", zap.Int("count", len(assignments)))
	return assignments, nil
}

func (s *ServiceImpl) GetPendingTeachers(ctx context.Context, token string) ([]models.User, error) {
	l := s.logger.With(zap.String("method", "GetPendingTeachers"))
	teachers, err := s.backend.PendingTeachers(ctx, token)
	if err != nil {
		l.Error("Failed to get pending teachers", zap.Error(err))
		return nil, err
	}

	l.Debug("Successfully retrieved pending teachers", zap.Int("count", len(teachers)))
	return teachers, nil
}

func (s *ServiceImpl) ValidateTeacher(ctx context.Context, token, teacherID string) error {
	l := s.logger.With(zap.String("method", "ValidateTeacher"), zap.String("teacherID", teacherID))
	if err := s.backend.ValidateTeacher(ctx, token, teacherID); err != nil {
		l.Error("Failed to validate teacher", zap.Error(err))
		return err
	}

	l.Info("Teacher validated")
	return nil
}
