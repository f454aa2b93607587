package medication

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lumicare/lumi/internal/platform/apperr"
	"github.com/lumicare/lumi/internal/platform/metrics"
	"github.com/lumicare/lumi/pkg/caldate"
)

type Service struct {
	medications MedicationRepository
	logs        LogRepository
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

func NewService(meds MedicationRepository, logs LogRepository, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		medications: meds,
		logs:        logs,
		metrics:     m,
		logger:      logger.With().Str("component", "medication").Logger(),
	}
}

// -- Medication --

func (s *Service) CreateMedication(ctx context.Context, userID int64, req CreateRequest) (*Medication, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	m := &Medication{
		UserID:        userID,
		Name:          req.Name,
		Dosage:        req.Dosage,
		ScheduledTime: req.ScheduledTime,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
	}
	if err := s.medications.Create(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", userID).Int64("medication_id", m.ID).Msg("medication created")
	return m, nil
}

func (s *Service) GetMedication(ctx context.Context, userID, id int64) (*Medication, error) {
	return s.medications.GetByID(ctx, userID, id)
}

func (s *Service) ListMedications(ctx context.Context, userID int64) ([]*Medication, error) {
	return s.medications.ListByUser(ctx, userID)
}

// -- Adherence logs --

// UpsertLog records the status of one medication on one date. Repeated
// submissions for the same date overwrite the previous status and taken_at.
func (s *Service) UpsertLog(ctx context.Context, userID, medicationID int64, req LogRequest) (*MedicationLog, bool, error) {
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if !validStatuses[status] {
		return nil, false, apperr.Validation("invalid status %q, expected taken, missed or pending", req.Status)
	}
	if req.Date.IsZero() {
		return nil, false, apperr.Validation("date is required")
	}

	m, err := s.medications.GetByID(ctx, userID, medicationID)
	if err != nil {
		return nil, false, err
	}
	if !m.Covers(req.Date) {
		return nil, false, apperr.Validation("date %s is outside the medication schedule", req.Date)
	}

	l := &MedicationLog{
		MedicationID: medicationID,
		Date:         req.Date,
		Status:       status,
		TakenAt:      req.TakenAt,
	}
	created, err := s.logs.Upsert(ctx, userID, l)
	if err != nil {
		return nil, false, err
	}

	s.metrics.RecordMedicationLog(created)
	s.logger.Info().
		Int64("user_id", userID).
		Int64("medication_id", medicationID).
		Str("date", l.Date.String()).
		Str("status", l.Status).
		Bool("created", created).
		Msg("medication log recorded")
	return l, created, nil
}

func validateRange(start, end caldate.Date) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Validation("start_date and end_date are required")
	}
	if start.After(end) {
		return apperr.Validation("start_date must not be after end_date")
	}
	return nil
}

func (s *Service) ListLogs(ctx context.Context, userID int64, start, end caldate.Date) ([]*MedicationLog, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	return s.logs.ListByUser(ctx, userID, start, end)
}

func (s *Service) AdherenceSummary(ctx context.Context, userID int64, start, end caldate.Date) (AdherenceSummary, error) {
	if err := validateRange(start, end); err != nil {
		return AdherenceSummary{}, err
	}
	counts, err := s.logs.CountByStatus(ctx, userID, start, end)
	if err != nil {
		return AdherenceSummary{}, err
	}
	return newSummary(start, end, counts), nil
}
