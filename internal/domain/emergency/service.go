package emergency

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lumicare/lumi/internal/platform/apperr"
	"github.com/lumicare/lumi/internal/platform/metrics"
)

type Service struct {
	repo    Repository
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewService(repo Repository, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		metrics: m,
		logger:  logger.With().Str("component", "emergency").Logger(),
	}
}

func (s *Service) GetActive(ctx context.Context, userID int64) (*Alert, error) {
	return s.repo.GetActive(ctx, userID)
}

// Trigger raises an alert or escalates the active one to the new stage.
// Stage names are free-form; the client drives the escalation ladder.
func (s *Service) Trigger(ctx context.Context, userID int64, stage string) (*Alert, bool, error) {
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return nil, false, apperr.Validation("stage is required")
	}
	if err := apperr.MaxLen("stage", stage, maxStageLen); err != nil {
		return nil, false, err
	}

	a, created, err := s.repo.Trigger(ctx, userID, stage)
	if err != nil {
		return nil, false, err
	}

	transition := "escalated"
	if created {
		transition = "triggered"
	}
	s.metrics.RecordEmergency(transition)
	s.logger.Warn().
		Int64("user_id", userID).
		Int64("alert_id", a.ID).
		Str("stage", a.Stage).
		Msg("emergency " + transition)
	return a, created, nil
}

// Resolve closes the alert. Resolving an already resolved alert succeeds
// and returns it unchanged.
func (s *Service) Resolve(ctx context.Context, userID, alertID int64) (*Alert, error) {
	a, err := s.repo.Resolve(ctx, userID, alertID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordEmergency("resolved")
	s.logger.Info().Int64("user_id", userID).Int64("alert_id", a.ID).Msg("emergency resolved")
	return a, nil
}

func (s *Service) ListAlerts(ctx context.Context, userID int64, limit, offset int) ([]*Alert, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}
