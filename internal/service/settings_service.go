package service

import (
	"context"

	"github.com/google/uuid"
	"kazi.app/attachmentportal/internal/dto"
	"kazi.app/attachmentportal/internal/model"
	"kazi.app/attachmentportal/internal/repository"
	"kazi.app/attachmentportal/pkg/apperror"
)

type SettingsService interface {
	Get(ctx context.Context) (*dto.SettingsResponse, error)
	// ToggleWindow opens or closes the application window. A closed window
	// blocks every submission regardless of slot availability.
	ToggleWindow(ctx context.Context, actorID uuid.UUID, open bool) (*dto.SettingsResponse, error)
	// ResizeSlots sets a department's total AND remaining counts to newTotal.
	// This is a full reset: reservations made before the resize are not
	// preserved in the remaining count.
	ResizeSlots(ctx context.Context, actorID uuid.UUID, input dto.ResizeSlotsInput) (*dto.SettingsResponse, error)
}

type settingsService struct {
	settingsRepo repository.SettingsRepository
}

func NewSettingsService(settingsRepo repository.SettingsRepository) SettingsService {
	return &settingsService{settingsRepo: settingsRepo}
}

func (s *settingsService) Get(ctx context.Context) (*dto.SettingsResponse, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewSettingsResponse(settings), nil
}

func (s *settingsService) ToggleWindow(ctx context.Context, actorID uuid.UUID, open bool) (*dto.SettingsResponse, error) {
	if err := s.settingsRepo.SetWindow(ctx, open, actorID); err != nil {
		return nil, err
	}

	return s.Get(ctx)
}

func (s *settingsService) ResizeSlots(ctx context.Context, actorID uuid.UUID, input dto.ResizeSlotsInput) (*dto.SettingsResponse, error) {
	dept := model.Department(input.Department)
	if !dept.Valid() {
		return nil, apperror.ErrInvalidDepartment
	}
	if input.TotalSlots == nil || *input.TotalSlots < 0 {
		return nil, apperror.ErrInvalidInput
	}

	if err := s.settingsRepo.ResizeSlots(ctx, dept, *input.TotalSlots, actorID); err != nil {
		return nil, err
	}

	return s.Get(ctx)
}
