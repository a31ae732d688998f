package database_test

import (
	"context"
	"fmt"
	"testing"

	"snsdso/internal/config"
	"snsdso/internal/database"
	"snsdso/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func emptySQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(sqlite.Open(database.SQLiteDSN(name)))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

var schemaTables = []string{"users", "posts", "likes", "comments", "follows", "sessions"}

func TestRunMigrations(t *testing.T) {
	db := emptySQLiteDB(t)
	ctx := context.Background()

	require.NoError(t, database.RunMigrations(ctx, db))
	for _, table := range schemaTables {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex("likes", "idx_likes_user_post"))
	assert.True(t, db.Migrator().HasIndex("follows", "idx_follows_pair"))

	var logs []database.MigrationLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, 1, logs[0].Version)
	assert.Equal(t, "init", logs[0].Name)
	assert.False(t, logs[0].AppliedAt.IsZero())

	// The second run finds nothing pending.
	require.NoError(t, db.Create(&models.User{Username: "alice", Email: "a@x.com", PasswordHash: "h"}).Error)
	require.NoError(t, database.RunMigrations(ctx, db))
	var count int64
	require.NoError(t, db.Model(&database.MigrationLog{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRunMigrationsRejectsUnknownVersions(t *testing.T) {
	db := emptySQLiteDB(t)
	ctx := context.Background()
	require.NoError(t, database.RunMigrations(ctx, db))
	require.NoError(t, db.Create(&database.MigrationLog{Version: 42, Name: "from_the_future"}).Error)

	err := database.RunMigrations(ctx, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0042")
}

func TestRollbackMigration(t *testing.T) {
	db := emptySQLiteDB(t)
	ctx := context.Background()
	require.NoError(t, database.RunMigrations(ctx, db))

	require.NoError(t, database.RollbackMigration(ctx, db, 1))
	for _, table := range schemaTables {
		assert.False(t, db.Migrator().HasTable(table), table)
	}
	assert.Error(t, database.RollbackMigration(ctx, db, 1), "already rolled back")
	assert.Error(t, database.RollbackMigration(ctx, db, 99), "unknown version")

	require.NoError(t, database.RunMigrations(ctx, db))
	assert.True(t, db.Migrator().HasTable("users"))
}

func TestGetSchemaStatus(t *testing.T) {
	db := emptySQLiteDB(t)
	ctx := context.Background()
	cfg := &config.Config{Env: "development", DBSchemaMode: database.SchemaModeSQL}

	status, err := database.GetSchemaStatus(ctx, db, cfg)
	require.NoError(t, err)
	assert.True(t, status.WillRunSQL)
	assert.False(t, status.WillRunAutoMigrate)
	assert.Empty(t, status.AppliedVersions)
	require.Len(t, status.PendingMigrations, 1)

	require.NoError(t, database.ApplySchema(ctx, db, cfg))
	status, err = database.GetSchemaStatus(ctx, db, cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, status.AppliedVersions)
	assert.Empty(t, status.PendingMigrations)

	status, err = database.GetSchemaStatus(ctx, db, &config.Config{DBSchemaMode: database.SchemaModeAuto})
	require.NoError(t, err)
	assert.False(t, status.WillRunSQL)
	assert.True(t, status.WillRunAutoMigrate)
}

func TestApplySchemaAutoMode(t *testing.T) {
	db := emptySQLiteDB(t)
	cfg := &config.Config{Env: "development", DBSchemaMode: database.SchemaModeAuto}

	require.NoError(t, database.ApplySchema(context.Background(), db, cfg))
	for _, table := range schemaTables {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.False(t, db.Migrator().HasTable(&database.MigrationLog{}), "auto mode keeps no migration log")
}

func TestApplySchemaRejectsUnknownMode(t *testing.T) {
	db := emptySQLiteDB(t)
	err := database.ApplySchema(context.Background(), db, &config.Config{DBSchemaMode: "yolo"})
	assert.Error(t, err)
}
