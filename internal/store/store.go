// Package store keeps ticker history in SQLite: one row per refresh cycle
// and one row per distinct headline seen from the backend.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/abhaya/internal/news"
	"github.com/ppiankov/abhaya/internal/ticker"
)

type Store struct {
	db     *sql.DB
	source string
}

// CycleRecord is a stored refresh cycle.
type CycleRecord struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Origin    ticker.Origin
	Source    string
	ItemCount int
	Error     string
}

// Item is a headline with the window in which the ticker displayed it.
type Item struct {
	news.Item
	FirstSeen time.Time
	LastSeen  time.Time
	SeenCount int
}

// OriginStats aggregates cycles that share an origin.
type OriginStats struct {
	Origin      ticker.Origin
	Cycles      int
	Failures    int
	Items       int
	AvgDuration time.Duration
	LastSeen    time.Time
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; the ticker and the HTTP server share this handle.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// WithSource tags recorded cycles with the fetcher name.
func (s *Store) WithSource(name string) *Store {
	s.source = name
	return s
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	return s.db.PingContext(ctx)
}

// RecordCycle stores one completed cycle. Items of cycles that carried
// backend data are upserted so repeated sightings extend last_seen.
func (s *Store) RecordCycle(ctx context.Context, c ticker.Cycle) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("cycle id is required")
	}
	if c.Started.IsZero() {
		return errors.New("cycle start is required")
	}
	if c.Origin == "" {
		return errors.New("cycle origin is required")
	}

	var errVal sql.NullString
	if c.Err != nil {
		errVal = sql.NullString{String: c.Err.Error(), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cycles (id, started_at, duration_ms, origin, source, item_count, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID,
		formatTime(c.Started),
		c.Duration.Milliseconds(),
		string(c.Origin),
		s.source,
		len(c.Items),
		errVal,
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert cycle: %w", err)
	}

	if carriesBackendData(c.Origin) {
		seen := formatTime(c.Started)
		for _, it := range c.Items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO items (id, title, category, url, created_at, priority, first_seen, last_seen)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					title = excluded.title,
					category = excluded.category,
					url = excluded.url,
					created_at = excluded.created_at,
					priority = excluded.priority,
					last_seen = excluded.last_seen,
					seen_count = items.seen_count + 1
			`,
				it.ID,
				it.Title,
				nullString(it.Category),
				nullString(it.URL),
				formatTime(it.CreatedAt),
				string(it.Priority),
				seen,
				seen,
			); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("upsert item %s: %w", it.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

// Cache hits replay items already recorded by an earlier cycle.
func carriesBackendData(o ticker.Origin) bool {
	return o == ticker.OriginNetwork || o == ticker.OriginPreload
}

// RecentItems returns headlines last seen at or after since, most recent
// first. A non-positive limit returns all of them.
func (s *Store) RecentItems(ctx context.Context, since time.Time, limit int) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	query := `
		SELECT id, title, category, url, created_at, priority, first_seen, last_seen, seen_count
		FROM items
		WHERE last_seen >= ?
		ORDER BY last_seen DESC, created_at DESC`
	args := []any{formatTime(since)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get recent items: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent items: %w", err)
	}
	return items, nil
}

// RecentCycles returns the latest cycles, newest first.
func (s *Store) RecentCycles(ctx context.Context, limit int) ([]CycleRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ms, origin, source, item_count, error
		FROM cycles
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent cycles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cycles []CycleRecord
	for rows.Next() {
		var (
			c          CycleRecord
			started    string
			durationMS int64
			origin     string
			errVal     sql.NullString
		)
		if err := rows.Scan(&c.ID, &started, &durationMS, &origin, &c.Source, &c.ItemCount, &errVal); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		c.StartedAt, err = parseTime(started)
		if err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		c.Duration = time.Duration(durationMS) * time.Millisecond
		c.Origin = ticker.Origin(origin)
		if errVal.Valid {
			c.Error = errVal.String
		}
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}
	return cycles, nil
}

// OriginStats returns per-origin aggregates for cycles started since the
// given time.
func (s *Store) OriginStats(ctx context.Context, since time.Time) ([]OriginStats, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT origin,
			COUNT(*) AS cycles,
			SUM(CASE WHEN error IS NOT NULL THEN 1 ELSE 0 END) AS failures,
			SUM(item_count) AS items,
			AVG(duration_ms) AS avg_ms,
			MAX(started_at) AS last_seen
		FROM cycles
		WHERE started_at >= ?
		GROUP BY origin
		ORDER BY cycles DESC, origin
	`, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("get origin stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []OriginStats
	for rows.Next() {
		var (
			st       OriginStats
			origin   string
			avgMS    float64
			lastSeen string
		)
		if err := rows.Scan(&origin, &st.Cycles, &st.Failures, &st.Items, &avgMS, &lastSeen); err != nil {
			return nil, fmt.Errorf("scan origin stats: %w", err)
		}
		st.Origin = ticker.Origin(origin)
		st.AvgDuration = time.Duration(avgMS * float64(time.Millisecond))
		st.LastSeen, err = parseTime(lastSeen)
		if err != nil {
			return nil, fmt.Errorf("parse last_seen: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate origin stats: %w", err)
	}
	return stats, nil
}

// PruneOld deletes cycles started and items last seen more than retainDays
// ago. Returns the number of rows removed.
func (s *Store) PruneOld(ctx context.Context, retainDays int) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if retainDays <= 0 {
		return 0, nil
	}

	cutoff := formatTime(time.Now().AddDate(0, 0, -retainDays))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin prune transaction: %w", err)
	}

	cycles, err := tx.ExecContext(ctx, "DELETE FROM cycles WHERE started_at < ?", cutoff)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prune old cycles: %w", err)
	}
	items, err := tx.ExecContext(ctx, "DELETE FROM items WHERE last_seen < ?", cutoff)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prune old items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}

	nc, _ := cycles.RowsAffected()
	ni, _ := items.RowsAffected()
	return nc + ni, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(scanner rowScanner) (Item, error) {
	var (
		it                  Item
		category, urlVal    sql.NullString
		createdAt, priority string
		firstSeen, lastSeen string
	)

	if err := scanner.Scan(
		&it.ID,
		&it.Title,
		&category,
		&urlVal,
		&createdAt,
		&priority,
		&firstSeen,
		&lastSeen,
		&it.SeenCount,
	); err != nil {
		return Item{}, fmt.Errorf("scan item: %w", err)
	}

	it.Category = category.String
	it.URL = urlVal.String
	it.Priority = news.Priority(priority)

	var err error
	if it.CreatedAt, err = parseTime(createdAt); err != nil {
		return Item{}, fmt.Errorf("parse created_at: %w", err)
	}
	if it.FirstSeen, err = parseTime(firstSeen); err != nil {
		return Item{}, fmt.Errorf("parse first_seen: %w", err)
	}
	if it.LastSeen, err = parseTime(lastSeen); err != nil {
		return Item{}, fmt.Errorf("parse last_seen: %w", err)
	}
	return it, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return time.Time{}.UTC().Format(time.RFC3339Nano)
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, value)
}
