package repository

import (
	"context"

	"intern_certify_v1/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityRepository is append-only: entries are never updated or deleted.
type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// ActivityFilter narrows List. A zero CoordinatorID lists every coordinator.
type ActivityFilter struct {
	CoordinatorID uint
	Limit         int
	Offset        int
}

// Record appends an entry for a coordinator action on an intern.
func (r *ActivityRepository) Record(ctx context.Context, coordinatorID uint, action string, intern *model.Intern, details map[string]any) (*model.ActivityLog, error) {
	entry := &model.ActivityLog{
		CoordinatorID: coordinatorID,
		Action:        action,
		InternID:      intern.ID,
		InternName:    intern.Name,
		InternCode:    intern.Code,
		Details:       datatypes.JSONMap(details),
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *ActivityRepository) List(ctx context.Context, filter ActivityFilter) ([]model.ActivityLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ActivityLog{})
	if filter.CoordinatorID != 0 {
		q = q.Where("coordinator_id = ?", filter.CoordinatorID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var logs []model.ActivityLog
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(filter.Offset).Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
