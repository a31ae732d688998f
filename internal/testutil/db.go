// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"snsdso/internal/config"
	"snsdso/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLiteDB returns an isolated in-memory database with the SQL migrations applied.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(sqlite.Open(database.SQLiteDSN(name)))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every statement on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	schema := &config.Config{Env: "test", DBSchemaMode: database.SchemaModeSQL}
	require.NoError(t, database.ApplySchema(context.Background(), db, schema))
	return db
}
