package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

type SQLiteService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewSQLiteService opens a SQLite database at path (a file path or a "file:" URI)
// with foreign keys enforced. SQLite allows one writer, so the pool is capped at one
// connection; callers inside a transaction must issue every query on that transaction.
func NewSQLiteService(logg *logger.Logger, path string) (*SQLiteService, error) {
	serviceLog := logg.With("service", "SQLiteService")

	dsn := path
	if !strings.Contains(dsn, "_foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_foreign_keys=1"
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	serviceLog.Debug("Opened SQLite", "path", path)
	return &SQLiteService{db: db, log: serviceLog}, nil
}

func (s *SQLiteService) DB() *gorm.DB { return s.db }

// Open picks the database backend by driver name ("postgres" or "sqlite").
func Open(logg *logger.Logger, driver, sqlitePath string) (*gorm.DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "postgres", "postgresql":
		svc, err := NewPostgresService(logg)
		if err != nil {
			return nil, err
		}
		return svc.DB(), nil
	case "sqlite", "sqlite3":
		svc, err := NewSQLiteService(logg, sqlitePath)
		if err != nil {
			return nil, err
		}
		return svc.DB(), nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}
}
