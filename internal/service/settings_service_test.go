package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"kazi.app/attachmentportal/internal/dto"
	"kazi.app/attachmentportal/internal/model"
	"kazi.app/attachmentportal/internal/repository"
	"kazi.app/attachmentportal/pkg/apperror"
)

func intPtr(v int) *int { return &v }

func TestToggleWindow(t *testing.T) {
	db := setupTestDB(t)
	seedSettings(t, db, false, 0, 0, 0)
	svc := NewSettingsService(repository.NewSettingsRepository(db))
	admin := uuid.New()
	ctx := context.Background()

	resp, err := svc.ToggleWindow(ctx, admin, true)
	require.NoError(t, err)
	require.True(t, resp.WindowOpen)

	resp, err = svc.ToggleWindow(ctx, admin, false)
	require.NoError(t, err)
	require.False(t, resp.WindowOpen)
}

func TestResizeSlotsIsFullReset(t *testing.T) {
	db := setupTestDB(t)
	seedSettings(t, db, true, 5, 0, 0)
	repo := repository.NewSettingsRepository(db)
	svc := NewSettingsService(repo)
	ctx := context.Background()

	// Burn three of the five HR slots.
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.ReserveSlot(ctx, model.DepartmentHR))
	}

	resp, err := svc.ResizeSlots(ctx, uuid.New(), dto.ResizeSlotsInput{
		Department: "hr",
		TotalSlots: intPtr(10),
	})
	require.NoError(t, err)

	// Both counters reset; the three earlier reservations are forgotten.
	counts := resp.Departments[model.DepartmentHR]
	require.Equal(t, 10, counts.Total)
	require.Equal(t, 10, counts.Remaining)

	// Other departments are untouched.
	require.Equal(t, model.SlotCounts{}, resp.Departments[model.DepartmentICT])
}

func TestResizeSlotsRejectsBadInput(t *testing.T) {
	db := setupTestDB(t)
	seedSettings(t, db, true, 5, 5, 5)
	svc := NewSettingsService(repository.NewSettingsRepository(db))
	ctx := context.Background()

	_, err := svc.ResizeSlots(ctx, uuid.New(), dto.ResizeSlotsInput{
		Department: "finance",
		TotalSlots: intPtr(10),
	})
	require.ErrorIs(t, err, apperror.ErrInvalidDepartment)

	_, err = svc.ResizeSlots(ctx, uuid.New(), dto.ResizeSlotsInput{
		Department: "hr",
		TotalSlots: intPtr(-1),
	})
	require.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestReserveSlotStopsAtZero(t *testing.T) {
	db := setupTestDB(t)
	seedSettings(t, db, true, 0, 1, 0)
	repo := repository.NewSettingsRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.ReserveSlot(ctx, model.DepartmentICT))

	err := repo.ReserveSlot(ctx, model.DepartmentICT)
	require.ErrorIs(t, err, apperror.ErrNoSlotsRemaining)

	// The failed reservation never pushes the counter negative.
	var settings model.Settings
	require.NoError(t, db.First(&settings, model.SettingsID).Error)
	require.Equal(t, 0, settings.ICTRemainingSlots)
}
