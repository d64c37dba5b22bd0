package models

import (
	"time"

	"safespace-chat/internal/crisis"
)

/** --------------------ENTITIES-------------------- */

// CrisisIncident is the durable record of a crisis alert. Only the alert
// preview is stored, never the full message.
type CrisisIncident struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Room         string    `gorm:"size:100;not null;index" json:"room"`
	MessageID    string    `gorm:"size:64;index" json:"messageId"`
	SenderID     string    `gorm:"size:100" json:"senderId"`
	Preview      string    `gorm:"size:255" json:"preview"`
	KeywordMatch bool      `json:"keywordMatch"`
	DetectedAt   time.Time `gorm:"not null;index" json:"detectedAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (CrisisIncident) TableName() string {
	return "crisis_incidents"
}

// NewCrisisIncident maps an alert onto its stored form.
func NewCrisisIncident(alert crisis.Alert) *CrisisIncident {
	return &CrisisIncident{
		Room:         alert.Room,
		MessageID:    alert.MessageID,
		SenderID:     alert.SenderID,
		Preview:      alert.Content,
		KeywordMatch: alert.Keyword,
		DetectedAt:   alert.Timestamp,
	}
}
