package nominee

import (
	"context"

	"github.com/rs/zerolog"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "nominee").Logger()}
}

func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]*Nominee, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) Create(ctx context.Context, userID int64, req CreateRequest) (*Nominee, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	n := &Nominee{
		UserID:       userID,
		Name:         req.Name,
		Relationship: req.Relationship,
		Phone:        req.Phone,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", userID).Int64("nominee_id", n.ID).Msg("nominee added")
	return n, nil
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", userID).Int64("nominee_id", id).Msg("nominee removed")
	return nil
}
