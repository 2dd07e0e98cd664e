package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"kazi.app/attachmentportal/internal/model"
	"kazi.app/attachmentportal/pkg/apperror"
)

// slotColumns maps each department to its ledger columns. Keeping this as a
// fixed enum-keyed table means no column name is ever built from request input.
var slotColumns = map[model.Department]struct {
	total     string
	remaining string
}{
	model.DepartmentHR:       {total: "hr_total_slots", remaining: "hr_remaining_slots"},
	model.DepartmentICT:      {total: "ict_total_slots", remaining: "ict_remaining_slots"},
	model.DepartmentRegistry: {total: "registry_total_slots", remaining: "registry_remaining_slots"},
}

// notesColumns maps each department to its reviewer notes column on the
// applications table.
var notesColumns = map[model.Department]string{
	model.DepartmentHR:       "hr_notes",
	model.DepartmentICT:      "ict_notes",
	model.DepartmentRegistry: "registry_notes",
}

type SettingsRepository interface {
	Get(ctx context.Context) (*model.Settings, error)
	SetWindow(ctx context.Context, open bool, updatedBy uuid.UUID) error
	// ResizeSlots sets both the total and remaining counts of a department to
	// newTotal. In-flight reservations are not preserved.
	ResizeSlots(ctx context.Context, dept model.Department, newTotal int, updatedBy uuid.UUID) error
	// ReserveSlot decrements the department's remaining count only while it is
	// still positive; returns apperror.ErrNoSlotsRemaining otherwise.
	ReserveSlot(ctx context.Context, dept model.Department) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*model.Settings, error) {
	var settings model.Settings
	if err := r.db.WithContext(ctx).First(&settings, model.SettingsID).Error; err != nil {
		return nil, err
	}

	return &settings, nil
}

func (r *settingsRepository) SetWindow(ctx context.Context, open bool, updatedBy uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Settings{}).
		Where("id = ?", model.SettingsID).
		Updates(map[string]interface{}{
			"window_open":   open,
			"updated_by_id": updatedBy,
		}).Error
}

func (r *settingsRepository) ResizeSlots(ctx context.Context, dept model.Department, newTotal int, updatedBy uuid.UUID) error {
	cols, ok := slotColumns[dept]
	if !ok {
		return apperror.ErrInvalidDepartment
	}

	return r.db.WithContext(ctx).Model(&model.Settings{}).
		Where("id = ?", model.SettingsID).
		Updates(map[string]interface{}{
			cols.total:      newTotal,
			cols.remaining:  newTotal,
			"updated_by_id": updatedBy,
		}).Error
}

func (r *settingsRepository) ReserveSlot(ctx context.Context, dept model.Department) error {
	return reserveSlot(r.db.WithContext(ctx), dept)
}

// reserveSlot performs the atomic decrement-if-positive. It is split out so
// the application repository can compose it inside the accept transaction.
func reserveSlot(tx *gorm.DB, dept model.Department) error {
	cols, ok := slotColumns[dept]
	if !ok {
		return apperror.ErrInvalidDepartment
	}

	res := tx.Model(&model.Settings{}).
		Where(fmt.Sprintf("id = ? AND %s > 0", cols.remaining), model.SettingsID).
		UpdateColumn(cols.remaining, gorm.Expr(cols.remaining+" - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNoSlotsRemaining
	}

	return nil
}
