package repository

import (
	"context"

	"intern_certify_v1/model"

	"gorm.io/gorm"
)

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var a model.Admin
	if err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *AdminRepository) FindByID(ctx context.Context, id uint) (*model.Admin, error) {
	var a model.Admin
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *AdminRepository) Create(ctx context.Context, a *model.Admin) error {
	a.Email = normalizeEmail(a.Email)
	return translate(r.db.WithContext(ctx).Create(a).Error)
}
