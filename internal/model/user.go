package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type User struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string          `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string          `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string          `gorm:"size:255;not null" json:"-"`
	FullName     string          `gorm:"size:100;not null" json:"full_name"`
	Phone        *string         `gorm:"size:20" json:"phone,omitempty"`
	RoleID       *uint           `json:"role_id"`
	Role         Role            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"role"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	Profile      *StudentProfile `gorm:"constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// StudentProfile holds the attachment-specific details of a student account.
// AttachmentEnd is derived at registration: start date plus three months.
type StudentProfile struct {
	UserID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	Institution         string     `gorm:"size:150;not null" json:"institution"`
	Course              string     `gorm:"size:150;not null" json:"course"`
	YearOfStudy         int        `gorm:"not null" json:"year_of_study"`
	SideHustle          *string    `gorm:"type:text" json:"side_hustle,omitempty"`
	PreferredDepartment Department `gorm:"size:20;not null" json:"preferred_department"`
	AttachmentStart     *time.Time `json:"attachment_start,omitempty"`
	AttachmentEnd       *time.Time `json:"attachment_end,omitempty"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
