package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"intern_certify_v1/model"

	"gorm.io/gorm"
)

// codeAttempts bounds how many sequence values Create burns when a code is
// already taken, which only happens on databases seeded before the counter.
const codeAttempts = 5

type InternRepository struct {
	db     *gorm.DB
	prefix string
}

func NewInternRepository(db *gorm.DB, codePrefix string) *InternRepository {
	return &InternRepository{db: db, prefix: codePrefix}
}

// InternFilter narrows List. Zero values match everything.
type InternFilter struct {
	Status        string
	CoordinatorID uint
}

// InternPatch carries the fields of a partial update. Nil fields are left alone.
type InternPatch struct {
	Name               *string
	Email              *string
	Role               *string
	Position           *string
	JoiningDate        *time.Time
	InternshipDuration *int
}

// Create assigns the next PREFIX-NNNN code and inserts the intern as active.
// A code is consumed even if the insert fails.
func (r *InternRepository) Create(ctx context.Context, intern *model.Intern) error {
	intern.Status = model.InternActive

	var err error
	for attempt := 0; attempt < codeAttempts; attempt++ {
		var code string
		code, err = r.nextCode(ctx)
		if err != nil {
			return fmt.Errorf("allocating intern code: %w", err)
		}
		intern.ID = 0
		intern.Code = code
		err = translate(r.db.WithContext(ctx).Create(intern).Error)
		if !errors.Is(err, ErrAlreadyExists) {
			return err
		}
	}
	return fmt.Errorf("allocating intern code: %w", err)
}

func (r *InternRepository) nextCode(ctx context.Context) (string, error) {
	var seq model.CodeSequence
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.CodeSequence{}).
			Where("prefix = ?", r.prefix).
			UpdateColumn("value", gorm.Expr("value + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&model.CodeSequence{Prefix: r.prefix, Value: 1}).Error; err != nil {
				return err
			}
		}
		return tx.First(&seq, "prefix = ?", r.prefix).Error
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", r.prefix, seq.Value), nil
}

func (r *InternRepository) FindByID(ctx context.Context, id uint) (*model.Intern, error) {
	var intern model.Intern
	if err := r.db.WithContext(ctx).First(&intern, id).Error; err != nil {
		return nil, translate(err)
	}
	return &intern, nil
}

// FindOwned returns the intern only when coordinatorID owns it, so other
// coordinators see ErrNotFound rather than a permission error.
func (r *InternRepository) FindOwned(ctx context.Context, id, coordinatorID uint) (*model.Intern, error) {
	var intern model.Intern
	err := r.db.WithContext(ctx).
		Where("id = ? AND coordinator_id = ?", id, coordinatorID).
		First(&intern).Error
	if err != nil {
		return nil, translate(err)
	}
	return &intern, nil
}

func (r *InternRepository) FindByCode(ctx context.Context, code string) (*model.Intern, error) {
	var intern model.Intern
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&intern).Error; err != nil {
		return nil, translate(err)
	}
	return &intern, nil
}

func (r *InternRepository) List(ctx context.Context, filter InternFilter) ([]model.Intern, error) {
	q := r.db.WithContext(ctx).Model(&model.Intern{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CoordinatorID != 0 {
		q = q.Where("coordinator_id = ?", filter.CoordinatorID)
	}

	var interns []model.Intern
	if err := q.Order("id DESC").Find(&interns).Error; err != nil {
		return nil, err
	}
	return interns, nil
}

// ListWithCoordinator is List with the owning coordinator preloaded.
func (r *InternRepository) ListWithCoordinator(ctx context.Context, filter InternFilter) ([]model.Intern, error) {
	q := r.db.WithContext(ctx).Preload("Coordinator")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CoordinatorID != 0 {
		q = q.Where("coordinator_id = ?", filter.CoordinatorID)
	}

	var interns []model.Intern
	if err := q.Order("id ASC").Find(&interns).Error; err != nil {
		return nil, err
	}
	return interns, nil
}

func (r *InternRepository) ListActive(ctx context.Context) ([]model.Intern, error) {
	return r.List(ctx, InternFilter{Status: model.InternActive})
}

// Update applies the fields of patch that differ from the stored values and
// reports what changed. An empty change list means nothing was written.
func (r *InternRepository) Update(ctx context.Context, intern *model.Intern, patch InternPatch) ([]model.FieldChange, error) {
	changes, columns := diffIntern(intern, patch)
	if len(changes) == 0 {
		return nil, nil
	}

	res := r.db.WithContext(ctx).Model(intern).Updates(columns)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	applyPatch(intern, patch)
	return changes, nil
}

func applyPatch(intern *model.Intern, patch InternPatch) {
	if patch.Name != nil {
		intern.Name = *patch.Name
	}
	if patch.Email != nil {
		intern.Email = *patch.Email
	}
	if patch.Role != nil {
		intern.Role = *patch.Role
	}
	if patch.Position != nil {
		intern.Position = *patch.Position
	}
	if patch.JoiningDate != nil {
		intern.JoiningDate = *patch.JoiningDate
	}
	if patch.InternshipDuration != nil {
		intern.InternshipDuration = *patch.InternshipDuration
	}
}

func diffIntern(intern *model.Intern, patch InternPatch) ([]model.FieldChange, map[string]any) {
	var changes []model.FieldChange
	columns := map[string]any{}

	str := func(field, column string, current string, next *string) {
		if next == nil || *next == current {
			return
		}
		changes = append(changes, model.FieldChange{Field: field, Old: current, New: *next})
		columns[column] = *next
	}
	str("name", "name", intern.Name, patch.Name)
	str("email", "email", intern.Email, patch.Email)
	str("role", "role", intern.Role, patch.Role)
	str("position", "position", intern.Position, patch.Position)

	if patch.JoiningDate != nil && !patch.JoiningDate.Equal(intern.JoiningDate) {
		changes = append(changes, model.FieldChange{
			Field: "joiningDate",
			Old:   intern.JoiningDate.UTC().Format("2006-01-02"),
			New:   patch.JoiningDate.UTC().Format("2006-01-02"),
		})
		columns["joining_date"] = *patch.JoiningDate
	}
	if patch.InternshipDuration != nil && *patch.InternshipDuration != intern.InternshipDuration {
		changes = append(changes, model.FieldChange{
			Field: "internshipDuration",
			Old:   intern.InternshipDuration,
			New:   *patch.InternshipDuration,
		})
		columns["internship_duration"] = *patch.InternshipDuration
	}
	return changes, columns
}

// Delete removes the intern row permanently.
func (r *InternRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Intern{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Transition moves an intern from one status to another only if it is still
// in the expected state. Completing stamps the completion date.
func (r *InternRepository) Transition(ctx context.Context, id uint, from, to string, at time.Time) error {
	if !model.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	columns := map[string]any{"status": to}
	if to == model.InternCompleted {
		columns["completion_date"] = at
	}

	res := r.db.WithContext(ctx).Model(&model.Intern{}).
		Where("id = ? AND status = ?", id, from).
		Updates(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: intern %d is no longer %s", ErrInvalidTransition, id, from)
	}
	return nil
}

// SetCertificatePath records the relative path of a freshly rendered certificate.
func (r *InternRepository) SetCertificatePath(ctx context.Context, id uint, kind model.CertificateKind, path string) error {
	column := "joining_certificate_path"
	if kind == model.CompletionKind {
		column = "completion_certificate_path"
	}
	return r.setColumn(ctx, id, column, path)
}

// SetCertificateURL records where an uploaded copy of the certificate lives.
func (r *InternRepository) SetCertificateURL(ctx context.Context, id uint, kind model.CertificateKind, url string) error {
	column := "joining_certificate_url"
	if kind == model.CompletionKind {
		column = "completion_certificate_url"
	}
	return r.setColumn(ctx, id, column, url)
}

func (r *InternRepository) setColumn(ctx context.Context, id uint, column, value string) error {
	res := r.db.WithContext(ctx).Model(&model.Intern{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByCoordinator is used to refuse deleting coordinators that still own interns.
func (r *InternRepository) CountByCoordinator(ctx context.Context, coordinatorID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Intern{}).Where("coordinator_id = ?", coordinatorID).Count(&n).Error
	return n, err
}
