// Package journal appends practice exchanges and dictionary lookups to Postgres.
package journal

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/lunabot/core/logger"
)

// Migrations holds the journal schema.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that holds the SQL files.
const MigrationsDir = "migrations"

// Kind tells what produced an entry.
type Kind string

const (
	KindChat       Kind = "chat"
	KindDictionary Kind = "dictionary"
)

// Entry is one journalled turn.
type Entry struct {
	ID          uuid.UUID `db:"id"`
	UserID      int64     `db:"user_id"`
	Kind        Kind      `db:"kind"`
	Level       string    `db:"level"`
	Topic       string    `db:"topic"`
	UserText    string    `db:"user_text"`
	Reply       string    `db:"reply"`
	Explanation string    `db:"explanation"`
	Corrected   string    `db:"corrected"`
	CreatedAt   time.Time `db:"created_at"`
}

// Recorder stores entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Noop discards entries. It is used when the database is disabled.
type Noop struct{}

// Record implements Recorder.
func (Noop) Record(context.Context, Entry) error { return nil }

const insertEntry = `INSERT INTO exchanges
	(id, user_id, kind, level, topic, user_text, reply, explanation, corrected, created_at)
VALUES
	(:id, :user_id, :kind, :level, :topic, :user_text, :reply, :explanation, :corrected, :created_at)`

// Postgres writes entries to the exchanges table.
type Postgres struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// Record inserts e, filling in the id and timestamp when missing.
func (p *Postgres) Record(ctx context.Context, e Entry) error {
	e = prepare(e, p.now())
	start := time.Now()
	if _, err := p.db.NamedExecContext(ctx, insertEntry, e); err != nil {
		logger.LogEvent(ctx, logger.Journal, slog.LevelError, "journal.record",
			slog.String("status", "fail"),
			slog.String("kind", string(e.Kind)),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return fmt.Errorf("journal: insert entry: %w", err)
	}
	logger.LogEvent(ctx, logger.Journal, slog.LevelDebug, "journal.record",
		slog.String("status", "ok"),
		slog.String("kind", string(e.Kind)),
		slog.String("entry_id", e.ID.String()),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func prepare(e Entry, now time.Time) Entry {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now.UTC()
	}
	e.UserText = strings.TrimSpace(e.UserText)
	e.Reply = strings.TrimSpace(e.Reply)
	return e
}
