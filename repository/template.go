package repository

import (
	"context"

	"intern_certify_v1/model"

	"gorm.io/gorm"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create inserts a template. An active template replaces the current active
// one of the same type in the same transaction.
func (r *TemplateRepository) Create(ctx context.Context, t *model.CertificateTemplate) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.Active {
			if err := deactivateType(tx, t.Type, 0); err != nil {
				return err
			}
		}
		return tx.Create(t).Error
	})
	return translate(err)
}

// TemplatePatch carries a partial template update.
type TemplatePatch struct {
	Name   *string
	HTML   *string
	Type   *model.TemplateType
	Active *bool
}

func (r *TemplateRepository) Update(ctx context.Context, id uint, patch TemplatePatch) (*model.CertificateTemplate, error) {
	var updated model.CertificateTemplate
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&updated, id).Error; err != nil {
			return err
		}

		columns := map[string]any{}
		if patch.Name != nil {
			columns["name"] = *patch.Name
			updated.Name = *patch.Name
		}
		if patch.HTML != nil {
			columns["html"] = *patch.HTML
			updated.HTML = *patch.HTML
		}
		if patch.Type != nil {
			columns["type"] = *patch.Type
			updated.Type = *patch.Type
		}
		if patch.Active != nil {
			columns["active"] = *patch.Active
			updated.Active = *patch.Active
		}
		if len(columns) == 0 {
			return nil
		}

		if updated.Active {
			if err := deactivateType(tx, updated.Type, id); err != nil {
				return err
			}
		}
		return tx.Model(&model.CertificateTemplate{}).Where("id = ?", id).Updates(columns).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

// Activate makes the template the only active one of its type.
func (r *TemplateRepository) Activate(ctx context.Context, id uint) (*model.CertificateTemplate, error) {
	active := true
	return r.Update(ctx, id, TemplatePatch{Active: &active})
}

func deactivateType(tx *gorm.DB, t model.TemplateType, except uint) error {
	return tx.Model(&model.CertificateTemplate{}).
		Where("type = ? AND active = ? AND id <> ?", t, true, except).
		Update("active", false).Error
}

func (r *TemplateRepository) FindByID(ctx context.Context, id uint) (*model.CertificateTemplate, error) {
	var t model.CertificateTemplate
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// FindActive returns the active template of type t or ErrNotFound.
func (r *TemplateRepository) FindActive(ctx context.Context, t model.TemplateType) (*model.CertificateTemplate, error) {
	var tmpl model.CertificateTemplate
	err := r.db.WithContext(ctx).Where("type = ? AND active = ?", t, true).First(&tmpl).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tmpl, nil
}

// List returns all templates, optionally of a single type.
func (r *TemplateRepository) List(ctx context.Context, t model.TemplateType) ([]model.CertificateTemplate, error) {
	q := r.db.WithContext(ctx).Order("id ASC")
	if t != "" {
		q = q.Where("type = ?", t)
	}
	var list []model.CertificateTemplate
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *TemplateRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.CertificateTemplate{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
