// Package database handles database connections and schema setup.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"snsdso/internal/config"
	"snsdso/internal/middleware"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ErrUnavailable is returned while no connection could be established.
var ErrUnavailable = errors.New("database unavailable")

// Dialector builds the GORM dialector for the configured driver.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres, "":
		sslMode := cfg.DBSSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
			sslMode,
		)
		return postgres.Open(dsn), nil
	case config.DriverMySQL:
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBName,
		)
		return mysql.Open(dsn), nil
	case config.DriverSQLite:
		return sqlite.Open(SQLiteDSN(cfg.DBName)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// SQLiteDSN enables foreign key enforcement, which SQLite leaves off by default.
func SQLiteDSN(name string) string {
	if strings.Contains(name, "_foreign_keys") {
		return name
	}
	sep := "?"
	if strings.Contains(name, "?") {
		sep = "&"
	}
	return name + sep + "_foreign_keys=on"
}

// Open opens a GORM handle on dialector with the application's logger and error translation.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewSlogLogger(middleware.Logger),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// ConnectOptions controls what ConnectWithOptions does after dialing.
type ConnectOptions struct {
	ApplySchema bool
}

// Connect opens a database connection using the provided configuration and returns the gorm DB instance.
// Outside production the schema is brought up to date; production runs /init or cmd/migrate explicitly.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	return ConnectWithOptions(cfg, ConnectOptions{ApplySchema: !cfg.IsProduction()})
}

// ConnectWithOptions opens a database connection and optionally applies the schema.
func ConnectWithOptions(cfg *config.Config, opts ConnectOptions) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := Open(dialector)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := configurePool(db, cfg); err != nil {
		return nil, err
	}

	middleware.Logger.Info("Database connected successfully")

	if opts.ApplySchema {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := ApplySchema(ctx, db, cfg); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		middleware.Logger.Info("Database migration completed")
	}

	return db, nil
}

func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql DB: %w", err)
	}

	maxOpen := cfg.DBMaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.DBMaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	return nil
}

// Manager hands out the shared connection, dialing on first use.
// A failed dial is retried at most once per retry interval.
type Manager struct {
	cfg     *config.Config
	connect func(*config.Config) (*gorm.DB, error)
	retry   time.Duration

	mu          sync.Mutex
	db          *gorm.DB
	lastErr     error
	lastAttempt time.Time
}

// NewManager returns a manager that dials cfg lazily.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{cfg: cfg, connect: Connect, retry: 5 * time.Second}
}

// NewManagerWithDB wraps an already open connection.
func NewManagerWithDB(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// NewManagerWithConnector is used by tests to control dialing.
func NewManagerWithConnector(cfg *config.Config, connect func(*config.Config) (*gorm.DB, error), retry time.Duration) *Manager {
	return &Manager{cfg: cfg, connect: connect, retry: retry}
}

// Get returns the connection, dialing if none is open yet.
func (m *Manager) Get() (*gorm.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return m.db, nil
	}
	if m.connect == nil {
		return nil, ErrUnavailable
	}
	if m.lastErr != nil && time.Since(m.lastAttempt) < m.retry {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, m.lastErr)
	}

	m.lastAttempt = time.Now()
	db, err := m.connect(m.cfg)
	if err != nil {
		m.lastErr = err
		middleware.Logger.Warn("database connection attempt failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	m.db = db
	m.lastErr = nil
	return db, nil
}

// Current returns the open connection without dialing.
func (m *Manager) Current() *gorm.DB {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db
}

// Ping checks the open connection. It reports ErrUnavailable when none is open.
func (m *Manager) Ping(ctx context.Context) error {
	db := m.Current()
	if db == nil {
		return ErrUnavailable
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the open connection, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	m.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
