package model

import (
	"time"

	"github.com/google/uuid"
)

// SettingsID is the primary key of the single settings row.
const SettingsID uint = 1

// Settings is the singleton portal configuration: the application window flag
// and the per-department slot ledger. Remaining counts are decremented on
// acceptance only and are never refunded on rejection.
type Settings struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	WindowOpen bool `gorm:"not null;default:false" json:"window_open"`

	HRTotalSlots           int `gorm:"not null;default:0" json:"hr_total_slots"`
	HRRemainingSlots       int `gorm:"not null;default:0" json:"hr_remaining_slots"`
	ICTTotalSlots          int `gorm:"not null;default:0" json:"ict_total_slots"`
	ICTRemainingSlots      int `gorm:"not null;default:0" json:"ict_remaining_slots"`
	RegistryTotalSlots     int `gorm:"not null;default:0" json:"registry_total_slots"`
	RegistryRemainingSlots int `gorm:"not null;default:0" json:"registry_remaining_slots"`

	UpdatedByID *uuid.UUID `gorm:"type:uuid" json:"updated_by_id,omitempty"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// SlotCounts is the capacity snapshot for one department.
type SlotCounts struct {
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
}

// Slots returns the slot counts for the given department.
func (s *Settings) Slots(dept Department) SlotCounts {
	switch dept {
	case DepartmentHR:
		return SlotCounts{Total: s.HRTotalSlots, Remaining: s.HRRemainingSlots}
	case DepartmentICT:
		return SlotCounts{Total: s.ICTTotalSlots, Remaining: s.ICTRemainingSlots}
	case DepartmentRegistry:
		return SlotCounts{Total: s.RegistryTotalSlots, Remaining: s.RegistryRemainingSlots}
	}
	return SlotCounts{}
}
