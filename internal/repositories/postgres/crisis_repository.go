package postgres

import (
	"context"
	"fmt"

	"safespace-chat/internal/crisis"
	"safespace-chat/internal/models"

	"gorm.io/gorm"
)

type CrisisRepository struct {
	db *gorm.DB
}

func NewCrisisRepository(db *gorm.DB) *CrisisRepository {
	return &CrisisRepository{db: db}
}

func (r *CrisisRepository) Create(ctx context.Context, incident *models.CrisisIncident) error {
	if err := r.db.WithContext(ctx).Create(incident).Error; err != nil {
		return fmt.Errorf("failed to store crisis incident: %w", err)
	}
	return nil
}

// ListRecent returns the newest incidents first.
func (r *CrisisRepository) ListRecent(ctx context.Context, limit int) ([]*models.CrisisIncident, error) {
	var incidents []*models.CrisisIncident
	err := r.db.WithContext(ctx).
		Order("detected_at DESC").
		Limit(limit).
		Find(&incidents).Error
	return incidents, err
}

func (r *CrisisRepository) CountByRoom(ctx context.Context, room string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CrisisIncident{}).Where("room = ?", room).Count(&count).Error
	return count, err
}

// AlertSink stores every published alert as an incident.
func (r *CrisisRepository) AlertSink() crisis.AlertSink {
	return crisis.AlertSinkFunc(func(ctx context.Context, alert crisis.Alert) error {
		return r.Create(ctx, models.NewCrisisIncident(alert))
	})
}
