package dto

import (
	"time"

	"kazi.app/attachmentportal/internal/model"
)

type UpdateWindowInput struct {
	Open *bool `json:"open" binding:"required"`
}

type ResizeSlotsInput struct {
	Department string `json:"department" binding:"required,oneof=hr ict registry"`
	TotalSlots *int   `json:"total_slots" binding:"required,min=0"`
}

type SettingsResponse struct {
	WindowOpen  bool                                  `json:"window_open"`
	Departments map[model.Department]model.SlotCounts `json:"departments"`
	UpdatedAt   time.Time                             `json:"updated_at"`
}

func NewSettingsResponse(s *model.Settings) *SettingsResponse {
	departments := make(map[model.Department]model.SlotCounts, 3)
	for _, dept := range model.Departments() {
		departments[dept] = s.Slots(dept)
	}

	return &SettingsResponse{
		WindowOpen:  s.WindowOpen,
		Departments: departments,
		UpdatedAt:   s.UpdatedAt,
	}
}
