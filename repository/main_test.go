package repository

import (
	"context"
	"testing"
	"time"

	"intern_certify_v1/internal/testdb"
	"intern_certify_v1/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	return testdb.New(t)
}

func seedCoordinator(t *testing.T, db *gorm.DB, email string) *model.Coordinator {
	t.Helper()
	c := &model.Coordinator{Name: "Coordinator", Email: email, Password: "hash", IsActive: true}
	require.NoError(t, NewCoordinatorRepository(db).Create(context.Background(), c))
	return c
}

func newIntern(coordinatorID uint, name string) *model.Intern {
	return &model.Intern{
		Name:               name,
		Email:              "intern@example.com",
		Role:               "Engineering",
		Position:           "Backend Intern",
		JoiningDate:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		InternshipDuration: 30,
		CoordinatorID:      coordinatorID,
	}
}
