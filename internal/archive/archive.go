// Package archive keeps a durable history of completed sessions. Each
// time the stats registry persists, the promoted session snapshot is
// appended here, giving the lifetime rollup an inspectable trail.
package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SessionRecord is one archived session.
type SessionRecord struct {
	ID           string
	RecordedAt   time.Time
	GamesPlayed  int64
	Kills        int64
	BestKills    int64
	BestLevel    int64
	LevelsGained int64
	TimeAlive    float64
	BestTime     float64
}

// Archive is a SQLite-backed session history.
type Archive struct {
	db *sql.DB
}

// Open creates or opens the archive database at the given path and
// applies the schema. The connection is configured for a single writer,
// which avoids SQLITE_BUSY under the engine's synchronous model.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect archive: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// RecordSession appends a session row. A zero ID is filled with a fresh
// UUIDv7 and a zero RecordedAt with the current UTC time; duplicate IDs
// are silently ignored for idempotency.
func (a *Archive) RecordSession(ctx context.Context, rec SessionRecord) (SessionRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.Must(uuid.NewV7()).String()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, recorded_at, games_played, kills, best_kills, best_level, levels_gained, time_alive, best_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.RecordedAt.Format(time.RFC3339Nano),
		rec.GamesPlayed,
		rec.Kills,
		rec.BestKills,
		rec.BestLevel,
		rec.LevelsGained,
		rec.TimeAlive,
		rec.BestTime,
	)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("record session: %w", err)
	}
	return rec, nil
}

// ListSessions returns archived sessions newest-first.
func (a *Archive) ListSessions(ctx context.Context) ([]SessionRecord, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, recorded_at, games_played, kills, best_kills, best_level, levels_gained, time_alive, best_time
		FROM sessions
		ORDER BY recorded_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var recordedAt string
		if err := rows.Scan(
			&rec.ID,
			&recordedAt,
			&rec.GamesPlayed,
			&rec.Kills,
			&rec.BestKills,
			&rec.BestLevel,
			&rec.LevelsGained,
			&rec.TimeAlive,
			&rec.BestTime,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", recordedAt, err)
		}
		rec.RecordedAt = ts
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}
