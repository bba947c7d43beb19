package repository

import (
	"context"

	"intern_certify_v1/model"

	"gorm.io/gorm"
)

type EmailTemplateRepository struct {
	db *gorm.DB
}

func NewEmailTemplateRepository(db *gorm.DB) *EmailTemplateRepository {
	return &EmailTemplateRepository{db: db}
}

func (r *EmailTemplateRepository) FindByKey(ctx context.Context, key string) (*model.EmailTemplate, error) {
	var t model.EmailTemplate
	err := r.db.WithContext(ctx).Where("template_key = ? AND active = ?", key, true).First(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// FindByType is the legacy lookup used when no keyed template exists.
func (r *EmailTemplateRepository) FindByType(ctx context.Context, typ string) (*model.EmailTemplate, error) {
	var t model.EmailTemplate
	err := r.db.WithContext(ctx).Where("type = ? AND active = ?", typ, true).Order("id ASC").First(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *EmailTemplateRepository) Create(ctx context.Context, t *model.EmailTemplate) error {
	return translate(r.db.WithContext(ctx).Create(t).Error)
}
