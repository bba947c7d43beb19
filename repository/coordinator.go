package repository

import (
	"context"
	"strings"
	"time"

	"intern_certify_v1/model"

	"gorm.io/gorm"
)

type CoordinatorRepository struct {
	db *gorm.DB
}

func NewCoordinatorRepository(db *gorm.DB) *CoordinatorRepository {
	return &CoordinatorRepository{db: db}
}

func (r *CoordinatorRepository) Create(ctx context.Context, c *model.Coordinator) error {
	c.Email = normalizeEmail(c.Email)
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *CoordinatorRepository) FindByID(ctx context.Context, id uint) (*model.Coordinator, error) {
	var c model.Coordinator
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *CoordinatorRepository) FindByEmail(ctx context.Context, email string) (*model.Coordinator, error) {
	var c model.Coordinator
	if err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *CoordinatorRepository) List(ctx context.Context) ([]model.Coordinator, error) {
	var list []model.Coordinator
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Update writes the given columns. Keys are column names.
func (r *CoordinatorRepository) Update(ctx context.Context, id uint, columns map[string]any) error {
	if email, ok := columns["email"].(string); ok {
		columns["email"] = normalizeEmail(email)
	}
	res := r.db.WithContext(ctx).Model(&model.Coordinator{}).Where("id = ?", id).Updates(columns)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a coordinator permanently. Coordinators that still own
// interns are refused with ErrInUse; nothing cascades.
func (r *CoordinatorRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&model.Intern{}).Where("coordinator_id = ?", id).Count(&owned).Error; err != nil {
			return err
		}
		if owned > 0 {
			return ErrInUse
		}
		res := tx.Unscoped().Delete(&model.Coordinator{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *CoordinatorRepository) TouchLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Coordinator{}).Where("id = ?", id).Update("last_login_at", at).Error
}

// SetPassword stores a new hash and clears the forced-change flag.
func (r *CoordinatorRepository) SetPassword(ctx context.Context, id uint, hash string) error {
	return r.Update(ctx, id, map[string]any{"password": hash, "must_change_password": false})
}

func (r *CoordinatorRepository) SetFCMToken(ctx context.Context, id uint, token string) error {
	return r.Update(ctx, id, map[string]any{"fcm_token": token})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
