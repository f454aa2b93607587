package identity

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumicare/lumi/internal/platform/apperr"
	"github.com/lumicare/lumi/internal/platform/auth"
	"github.com/lumicare/lumi/internal/platform/metrics"
)

type Service struct {
	users   UserRepository
	tokens  *auth.TokenManager
	otp     auth.OTPVerifier
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(users UserRepository, tokens *auth.TokenManager, otp auth.OTPVerifier, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		users:   users,
		tokens:  tokens,
		otp:     otp,
		metrics: m,
		logger:  logger.With().Str("component", "identity").Logger(),
		now:     time.Now,
	}
}

func (s *Service) CheckExists(ctx context.Context, phone string) (bool, error) {
	phone = normalizePhone(phone)
	if phone == "" {
		return false, apperr.Validation("phone is required")
	}
	return s.users.ExistsByPhone(ctx, phone)
}

// Register creates the user and returns a token for it. The phone check up
// front gives a clean error; the unique constraint covers concurrent signups.
func (s *Service) Register(ctx context.Context, p Profile) (*User, string, error) {
	p.normalize()
	if p.Phone == "" {
		return nil, "", apperr.Validation("phone is required")
	}
	if err := apperr.MaxLen("phone", p.Phone, maxPhoneLen); err != nil {
		return nil, "", err
	}
	if err := p.validate(s.now()); err != nil {
		return nil, "", err
	}

	exists, err := s.users.ExistsByPhone(ctx, p.Phone)
	if err != nil {
		return nil, "", err
	}
	if exists {
		s.metrics.RecordAuth("register_conflict")
		return nil, "", apperr.Conflict("phone number already registered")
	}

	u := p.toUser()
	if err := s.users.Create(ctx, u); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			s.metrics.RecordAuth("register_conflict")
		}
		return nil, "", err
	}

	token, err := s.tokens.Issue(u.ID, u.Phone)
	if err != nil {
		return nil, "", apperr.Internal(err, "issue token")
	}
	s.metrics.RecordAuth("register_ok")
	s.logger.Info().Int64("user_id", u.ID).Msg("user registered")
	return u, token, nil
}

// Login checks the one-time code before looking the phone up, so a wrong
// code never reveals whether the phone is registered.
func (s *Service) Login(ctx context.Context, phone, otp string) (string, error) {
	phone = normalizePhone(phone)
	if phone == "" {
		return "", apperr.Validation("phone is required")
	}
	if !s.otp.Verify(ctx, phone, otp) {
		s.metrics.RecordAuth("login_bad_otp")
		return "", apperr.Unauthorized("invalid OTP")
	}

	u, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.metrics.RecordAuth("login_unknown_phone")
			return "", apperr.NotFound("user not found, please register")
		}
		return "", err
	}

	token, err := s.tokens.Issue(u.ID, u.Phone)
	if err != nil {
		return "", apperr.Internal(err, "issue token")
	}
	s.metrics.RecordAuth("login_ok")
	s.logger.Debug().Int64("user_id", u.ID).Msg("user logged in")
	return token, nil
}

// Logout revokes the presented token. Other sessions of the user stay valid.
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return apperr.Unauthorized("not authenticated")
	}
	s.tokens.Revoke(claims)
	s.metrics.RecordAuth("logout")
	s.logger.Debug().Str("user", claims.Subject).Msg("token revoked")
	return nil
}

func (s *Service) Me(ctx context.Context, userID int64) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile replaces the mutable profile fields. A phone in p is ignored.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, p Profile) (*User, error) {
	p.normalize()
	if err := p.validate(s.now()); err != nil {
		return nil, err
	}
	u := p.toUser()
	u.ID = userID
	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
