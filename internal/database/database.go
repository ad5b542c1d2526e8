package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/controlroom/internal/planner"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"
)

// ErrMissingURL is returned when no database url is configured.
var ErrMissingURL = errors.New("database url is required")

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	ConnMaxIdleTime time.Duration
}

// Dialect reports which driver a database url selects.
func Dialect(url string) string {
	lowered := strings.ToLower(strings.TrimSpace(url))
	if strings.HasPrefix(lowered, "postgres://") || strings.HasPrefix(lowered, "postgresql://") {
		return dialectPostgres
	}
	return dialectSQLite
}

// Open connects to the configured database and brings the schema up to date.
// Urls starting with postgres:// or postgresql:// use Postgres; anything else is a SQLite path.
func Open(url string, options Options, logger *zap.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrMissingURL
	}

	dialect := Dialect(url)
	var dialector gorm.Dialector
	switch dialect {
	case dialectPostgres:
		dialector = postgres.Open(url)
	default:
		dialector = sqlite.Open(url)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if dialect == dialectSQLite {
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	} else if options.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(options.MaxOpenConns)
	}
	if options.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(options.ConnMaxIdleTime)
	}

	if err := Migrate(db, logger); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info("database initialized", zap.String("dialect", dialect))
	return db, nil
}

// Migrate creates or updates every table and applies pending named migrations.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	models := append(planner.Models(), &migrationRecord{})
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return applyMigrations(db, logger)
}
