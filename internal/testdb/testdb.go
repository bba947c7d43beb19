// Package testdb opens migrated in-memory SQLite databases for tests.
package testdb

import (
	"testing"

	"intern_certify_v1/middleware"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CodePrefix is the intern code prefix the test schema is seeded with.
const CodePrefix = "INT"

// New returns a private, fully migrated database that is closed when the test ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, middleware.MigrateDB(db, CodePrefix))
	return db
}
