// Package journal persists committed ledger events to a SQL database so
// indexers and support tooling can query history without replaying state.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fracledger/core/events"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultListLimit = 100
	maxListLimit     = 1_000
)

// Entry is a single journaled event.
type Entry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Type       string    `gorm:"size:64;index;not null"`
	Module     string    `gorm:"size:32;index"`
	Account    string    `gorm:"size:96;index"`
	Attributes string    `gorm:"type:text;not null"`
	RecordedAt time.Time `gorm:"not null"`

	// RecordedNano orders and filters entries independently of how the
	// driver encodes timestamps.
	RecordedNano int64 `gorm:"index;not null"`
}

func (Entry) TableName() string { return "ledger_events" }

// Attrs decodes the stored attribute map.
func (e Entry) Attrs() (map[string]string, error) {
	out := make(map[string]string)
	if strings.TrimSpace(e.Attributes) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(e.Attributes), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Type    string
	Module  string
	Account string
	Since   time.Time
	Limit   int
}

// Journal writes ledger events through gorm.
type Journal struct {
	db     *gorm.DB
	logger *slog.Logger
	nowFn  func() time.Time
}

// Open connects to driver/dsn and migrates the schema.
func Open(driver, dsn string, logger *slog.Logger) (*Journal, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("journal: unsupported driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	return New(db, logger)
}

// New wraps an existing connection.
func New(db *gorm.DB, logger *slog.Logger) (*Journal, error) {
	if db == nil {
		return nil, errors.New("journal: database required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}
	return &Journal{db: db, logger: logger, nowFn: time.Now}, nil
}

// Emit records evt. Failures are logged; the ledger has already committed.
func (j *Journal) Emit(evt events.Event) {
	if j == nil || evt == nil {
		return
	}
	if _, err := j.Record(context.Background(), evt); err != nil {
		j.logger.Error("journal write failed",
			slog.String("component", "journal"),
			slog.String("event", evt.EventType()),
			slog.String("error", err.Error()))
	}
}

// Record stores evt and returns the persisted entry.
func (j *Journal) Record(ctx context.Context, evt events.Event) (*Entry, error) {
	envelope := events.Render(evt)
	attrs, err := json.Marshal(envelope.Attributes)
	if err != nil {
		return nil, err
	}
	now := j.nowFn().UTC()
	entry := &Entry{
		ID:           uuid.New(),
		Type:         envelope.Type,
		Module:       moduleOf(envelope.Type),
		Account:      accountOf(envelope.Attributes),
		Attributes:   string(attrs),
		RecordedAt:   now,
		RecordedNano: now.UnixNano(),
	}
	if err := j.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns matching entries oldest first.
func (j *Journal) List(ctx context.Context, filter Filter) ([]Entry, error) {
	query := j.db.WithContext(ctx).Model(&Entry{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Module != "" {
		query = query.Where("module = ?", filter.Module)
	}
	if filter.Account != "" {
		query = query.Where("account = ?", filter.Account)
	}
	if !filter.Since.IsZero() {
		query = query.Where("recorded_nano >= ?", filter.Since.UnixNano())
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	var out []Entry
	if err := query.Order("recorded_nano ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases the underlying connection pool.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// moduleOf takes the event type prefix, e.g. "stake" from "stake.created".
func moduleOf(eventType string) string {
	module, _, _ := strings.Cut(eventType, ".")
	return module
}

var accountKeys = []string{"owner", "recipient", "user", "referrer", "from"}

func accountOf(attrs map[string]string) string {
	for _, key := range accountKeys {
		if value := attrs[key]; value != "" {
			return value
		}
	}
	return ""
}
