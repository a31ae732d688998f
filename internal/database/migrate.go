package database

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Migration is one versioned schema step for a single SQL dialect.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
}

func (m *Migration) String() string {
	return fmt.Sprintf("%04d_%s", m.Version, m.Name)
}

//go:embed migrations/*/*.sql
var migrationFS embed.FS

var (
	registryOnce sync.Once
	registry     map[string][]Migration
	registryErr  error
)

// GetMigrations returns the migrations for dialect ("postgres", "mysql" or "sqlite") in version order.
func GetMigrations(dialect string) ([]Migration, error) {
	registryOnce.Do(func() {
		registry, registryErr = LoadMigrations(migrationFS, "migrations")
	})
	if registryErr != nil {
		return nil, registryErr
	}
	ms, ok := registry[dialect]
	if !ok {
		return nil, fmt.Errorf("no migrations for dialect %q", dialect)
	}
	return ms, nil
}

// GetMigrationByVersion returns nil when version is not registered for dialect.
func GetMigrationByVersion(dialect string, version int) (*Migration, error) {
	ms, err := GetMigrations(dialect)
	if err != nil {
		return nil, err
	}
	for i := range ms {
		if ms[i].Version == version {
			return &ms[i], nil
		}
	}
	return nil, nil
}

// LoadMigrations reads <root>/<dialect>/<version>_<name>.up.sql files and
// their .down.sql counterparts.
func LoadMigrations(fsys fs.FS, root string) (map[string][]Migration, error) {
	dirs, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	out := make(map[string][]Migration, len(dirs))
	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}
		dialect := dir.Name()
		dialectRoot := path.Join(root, dialect)
		entries, err := fs.ReadDir(fsys, dialectRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", dialectRoot, err)
		}

		seen := map[int]string{}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
				continue
			}
			base := strings.TrimSuffix(name, ".up.sql")
			parts := strings.SplitN(base, "_", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("migration %s/%s: want <version>_<name>.up.sql", dialect, name)
			}
			version, err := strconv.Atoi(parts[0])
			if err != nil {
				return nil, fmt.Errorf("migration %s/%s: bad version: %w", dialect, name, err)
			}
			if prev, dup := seen[version]; dup {
				return nil, fmt.Errorf("migration %s/%s: version %d already used by %s", dialect, name, version, prev)
			}
			seen[version] = name

			up, err := fs.ReadFile(fsys, path.Join(dialectRoot, name))
			if err != nil {
				return nil, fmt.Errorf("failed to read up migration %s: %w", name, err)
			}
			downName := base + ".down.sql"
			down, err := fs.ReadFile(fsys, path.Join(dialectRoot, downName))
			if err != nil {
				return nil, fmt.Errorf("failed to read down migration %s: %w", downName, err)
			}

			out[dialect] = append(out[dialect], Migration{
				Version:    version,
				Name:       parts[1],
				UpScript:   string(up),
				DownScript: string(down),
			})
		}

		sort.Slice(out[dialect], func(i, j int) bool {
			return out[dialect][i].Version < out[dialect][j].Version
		})
	}

	return out, nil
}

// splitStatements cuts a script on semicolons and drops "--" comment lines.
// Scripts must not contain semicolons inside literals.
func splitStatements(script string) []string {
	var b strings.Builder
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	var stmts []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
