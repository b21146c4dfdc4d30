package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/arnavshah/walk-scheduler/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SlotRecord represents the slots table. The composite unique index on
// (slot_date, slot_time) is what rejects a second booking of the same slot.
type SlotRecord struct {
	ID        string  `gorm:"primaryKey;size:36"`
	Date      string  `gorm:"column:slot_date;size:10;not null;uniqueIndex:idx_slot_date_time,priority:1"`
	Time      string  `gorm:"column:slot_time;size:4;not null;uniqueIndex:idx_slot_date_time,priority:2"`
	Name      string  `gorm:"not null;index"`
	Contact   *string `gorm:"size:64"`
	Note      *string
	CreatedAt int64 `gorm:"autoCreateTime:milli;not null"`
}

// TableName implements the GORM tabler interface.
func (SlotRecord) TableName() string { return "slots" }

// ParticipantRecord represents the participants table
type ParticipantRecord struct {
	ID         uint    `gorm:"primaryKey"`
	Name       string  `gorm:"uniqueIndex;not null"`
	ColorIndex int     `gorm:"not null;index"`
	Contact    *string `gorm:"size:64"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName implements the GORM tabler interface.
func (ParticipantRecord) TableName() string { return "participants" }

// Open connects to postgres when DATABASE_URL is set and to the sqlite file
// at DATA_PATH otherwise, then migrates the schema.
func Open(cfg config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL != "" {
		db, err := gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.DatabaseURL,
			PreferSimpleProtocol: true,
		}), gormConfig(cfg.DBDebug))
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return db, Migrate(db)
	}

	dsn := cfg.DataPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_journal_mode=WAL"
	}
	return OpenSQLite(dsn, cfg.DBDebug)
}

// OpenSQLite opens and migrates a sqlite database. sqlite allows a single
// writer, so the pool is pinned to one connection and writers queue in
// database/sql rather than failing with SQLITE_BUSY.
func OpenSQLite(dsn string, debug bool) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(debug))
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, Migrate(db)
}

// Migrate creates or updates the tables and indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&SlotRecord{}, &ParticipantRecord{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Ping checks that the database answers within the context deadline.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormConfig(debug bool) *gorm.Config {
	level := logger.Silent
	if debug {
		level = logger.Info
	}
	return &gorm.Config{
		TranslateError: true,
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}
}

// IsUniqueViolation recognises duplicate key errors. gorm translates them
// when TranslateError is on; the message checks cover drivers that don't.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
