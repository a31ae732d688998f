package database

import (
	"testing"
	"testing/fstest"

	"snsdso/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	script := `-- users
CREATE TABLE a (id integer);
  -- indented comment
CREATE INDEX idx_a ON a (id);

`
	assert.Equal(t, []string{"CREATE TABLE a (id integer)", "CREATE INDEX idx_a ON a (id)"}, splitStatements(script))
	assert.Empty(t, splitStatements("-- nothing\n\n"))
}

func TestLoadMigrations(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"m/sqlite/0002_more.up.sql":   {Data: []byte("B")},
		"m/sqlite/0002_more.down.sql": {Data: []byte("b")},
		"m/sqlite/0001_init.up.sql":   {Data: []byte("A")},
		"m/sqlite/0001_init.down.sql": {Data: []byte("a")},
		"m/sqlite/README.md":          {Data: []byte("ignored")},
		"m/mysql/0001_init.up.sql":    {Data: []byte("M")},
		"m/mysql/0001_init.down.sql":  {Data: []byte("m")},
	}

	got, err := LoadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, got["sqlite"], 2)
	assert.Equal(t, Migration{Version: 1, Name: "init", UpScript: "A", DownScript: "a"}, got["sqlite"][0])
	assert.Equal(t, "0002_more", got["sqlite"][1].String())
	require.Len(t, got["mysql"], 1)
}

func TestLoadMigrations_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]fstest.MapFS{
		"missing down": {"m/sqlite/0001_init.up.sql": {Data: []byte("A")}},
		"bad version": {
			"m/sqlite/abc_init.up.sql":   {Data: []byte("A")},
			"m/sqlite/abc_init.down.sql": {Data: []byte("a")},
		},
		"bad name": {"m/sqlite/0001.up.sql": {Data: []byte("A")}},
		"duplicate version": {
			"m/sqlite/0001_a.up.sql":   {Data: []byte("A")},
			"m/sqlite/0001_a.down.sql": {Data: []byte("a")},
			"m/sqlite/1_b.up.sql":      {Data: []byte("B")},
			"m/sqlite/1_b.down.sql":    {Data: []byte("b")},
		},
	}
	for name, fsys := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadMigrations(fsys, "m")
			assert.Error(t, err)
		})
	}
}

func TestEmbeddedMigrationsCoverEveryDriver(t *testing.T) {
	t.Parallel()

	for _, dialect := range []string{"postgres", "mysql", "sqlite"} {
		ms, err := GetMigrations(dialect)
		require.NoError(t, err, dialect)
		require.NotEmpty(t, ms, dialect)
		assert.Equal(t, 1, ms[0].Version)
		assert.Equal(t, "init", ms[0].Name)
		for _, table := range []string{"users", "posts", "likes", "comments", "follows", "sessions"} {
			assert.Contains(t, ms[0].UpScript, "CREATE TABLE IF NOT EXISTS "+table+" (", dialect)
			assert.Contains(t, ms[0].DownScript, "DROP TABLE IF EXISTS "+table+";", dialect)
		}
	}

	_, err := GetMigrations("oracle")
	assert.Error(t, err)
}

func TestValidateAppliedVersions(t *testing.T) {
	t.Parallel()

	registered := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, registered))

	err := validateAppliedVersions([]int{1, 9, 7}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0007, 0009")
}

func TestSchemaPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      config.Config
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{"default is sql", config.Config{Env: "development"}, true, false, false},
		{"sql", config.Config{Env: "production", DBSchemaMode: "sql"}, true, false, false},
		{"auto in development", config.Config{Env: "development", DBSchemaMode: "auto"}, false, true, false},
		{"auto refused in production", config.Config{Env: "production", DBSchemaMode: "auto"}, false, false, true},
		{"auto allowed in production", config.Config{Env: "production", DBSchemaMode: "auto", DBAutoMigrateAllowDestructive: true}, false, true, false},
		{"hybrid in development", config.Config{Env: "development", DBSchemaMode: "hybrid"}, true, true, false},
		{"hybrid in production", config.Config{Env: "production", DBSchemaMode: " Hybrid "}, true, false, false},
		{"unknown", config.Config{DBSchemaMode: "yolo"}, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}
