package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type teacherPreferenceRepo interface {
	GetByTeacher(ctx context.Context, teacherID string) (*models.TeacherPreference, error)
	Upsert(ctx context.Context, pref *models.TeacherPreference) error
}

type slotVerifier interface {
	Missing(ctx context.Context, ids []string) ([]string, error)
}

// TeacherPreferenceService handles blocked-slot preferences.
type TeacherPreferenceService struct {
	repo      teacherPreferenceRepo
	slots     slotVerifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherPreferenceService builds the service.
func NewTeacherPreferenceService(repo teacherPreferenceRepo, slots slotVerifier, validate *validator.Validate, logger *zap.Logger) *TeacherPreferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherPreferenceService{
		repo:      repo,
		slots:     slots,
		validator: validate,
		logger:    logger,
	}
}

// Get returns stored preferences; a teacher without a row has no blocked slots.
func (s *TeacherPreferenceService) Get(ctx context.Context, teacherID string) (*models.TeacherPreference, error) {
	if strings.TrimSpace(teacherID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}
	pref, err := s.repo.GetByTeacher(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.TeacherPreference{TeacherID: teacherID, BlockedSlotIDs: pq.StringArray{}}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher preferences")
	}
	return pref, nil
}

// Upsert replaces the blocked slots of a teacher after checking every slot exists.
func (s *TeacherPreferenceService) Upsert(ctx context.Context, teacherID string, req dto.UpsertTeacherPreferenceRequest) (*models.TeacherPreference, error) {
	if strings.TrimSpace(teacherID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preference payload")
	}

	blocked := dedupeStrings(req.BlockedSlotIDs)
	missing, err := s.slots.Missing(ctx, blocked)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown schedule slots: %s", strings.Join(missing, ", ")))
	}

	pref := &models.TeacherPreference{TeacherID: teacherID, BlockedSlotIDs: pq.StringArray(blocked)}
	if err := s.repo.Upsert(ctx, pref); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert teacher preferences")
	}
	s.logger.Info("teacher preferences updated", zap.String("teacher_id", teacherID), zap.Int("blocked_slots", len(blocked)))
	return pref, nil
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
