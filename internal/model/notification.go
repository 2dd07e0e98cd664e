package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationForwarded = "application_forwarded"
	NotificationAccepted  = "application_accepted"
	NotificationRejected  = "application_rejected"
)

// Notification records a lifecycle event on a student's application. It is
// persisted and, when redis is configured, also published to the recipient's
// websocket channel.
type Notification struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	ActorID       uuid.UUID `gorm:"type:uuid;not null" json:"actor_id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null" json:"application_id"`
	Type          string    `gorm:"size:50;not null" json:"type"`
	Message       string    `gorm:"type:text" json:"message"`
	IsRead        bool      `gorm:"default:false" json:"is_read"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`

	User  *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
