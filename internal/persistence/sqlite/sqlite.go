// Package sqlite implements persistence.Database on an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"newscycle/internal/core"
	"newscycle/internal/persistence"
)

// ensure DB implements persistence.Database
var _ persistence.Database = (*DB)(nil)

const healthKey = "last_run"

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	image_url TEXT NOT NULL,
	source_urls TEXT NOT NULL,
	source_name TEXT NOT NULL,
	category TEXT NOT NULL,
	image_source TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles (created_at, id);

CREATE TABLE IF NOT EXISTS history (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	source_urls TEXT NOT NULL,
	origin TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_created_at ON history (created_at);

CREATE TABLE IF NOT EXISTS health_records (
	key TEXT PRIMARY KEY,
	record TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// DB is a SQLite-backed persistence.Database.
type DB struct {
	db       *sql.DB
	path     string
	articles *articleRepo
	history  *historyRepo
	health   *healthRepo
}

// New opens (creating if needed) the database at path. ":memory:" is accepted.
func New(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &DB{
		db:       db,
		path:     path,
		articles: &articleRepo{db: db},
		history:  &historyRepo{db: db},
		health:   &healthRepo{db: db},
	}, nil
}

func (d *DB) Articles() persistence.ArticleRepository { return d.articles }
func (d *DB) History() persistence.HistoryRepository  { return d.history }
func (d *DB) Health() persistence.HealthRepository    { return d.health }

func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DB) Close() error {
	return d.db.Close()
}

// deleteBatch removes ids from table in a single transaction.
func deleteBatch(ctx context.Context, db *sql.DB, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > persistence.MaxBatchSize {
		return persistence.ErrBatchTooLarge
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE id IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return tx.Commit()
}

func encodeURLs(urls []string) (string, error) {
	if urls == nil {
		urls = []string{}
	}
	b, err := json.Marshal(urls)
	return string(b), err
}

func decodeURLs(raw string) ([]string, error) {
	var urls []string
	if raw == "" {
		return urls, nil
	}
	err := json.Unmarshal([]byte(raw), &urls)
	return urls, err
}

type scanner interface {
	Scan(dest ...any) error
}

type articleRepo struct {
	db *sql.DB
}

const articleColumns = `id, title, body, image_url, source_urls, source_name, category, image_source, created_at`

func (r *articleRepo) Create(ctx context.Context, a *core.Article) error {
	urls, err := encodeURLs(a.SourceURLs)
	if err != nil {
		return fmt.Errorf("failed to encode source urls: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO articles (`+articleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Body, a.ImageURL, urls, a.SourceName, string(a.Category), a.ImageSource,
		persistence.FormatTime(a.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("article %s: %w", a.ID, persistence.ErrDuplicateID)
		}
		return fmt.Errorf("failed to insert article: %w", err)
	}
	return nil
}

func (r *articleRepo) Get(ctx context.Context, id string) (*core.Article, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return a, nil
}

func (r *articleRepo) ListOldestFirst(ctx context.Context) ([]core.Article, error) {
	return r.query(ctx, `SELECT `+articleColumns+` FROM articles ORDER BY created_at ASC, id ASC`)
}

func (r *articleRepo) ListRecent(ctx context.Context, limit int) ([]core.Article, error) {
	if limit <= 0 {
		return nil, nil
	}
	return r.query(ctx, `SELECT `+articleColumns+` FROM articles ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

func (r *articleRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}

func (r *articleRepo) DeleteBatch(ctx context.Context, ids []string) error {
	return deleteBatch(ctx, r.db, "articles", ids)
}

func (r *articleRepo) query(ctx context.Context, query string, args ...any) ([]core.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []core.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

func scanArticle(row scanner) (*core.Article, error) {
	var a core.Article
	var category, urls, created string
	if err := row.Scan(&a.ID, &a.Title, &a.Body, &a.ImageURL, &urls, &a.SourceName, &category, &a.ImageSource, &created); err != nil {
		return nil, err
	}

	var err error
	if a.SourceURLs, err = decodeURLs(urls); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = persistence.ParseTime(created); err != nil {
		return nil, err
	}
	a.Category = core.Category(category)
	return &a, nil
}

type historyRepo struct {
	db *sql.DB
}

const historyColumns = `id, title, source_urls, origin, created_at`

func (r *historyRepo) Add(ctx context.Context, e *core.HistoryEntry) error {
	urls, err := encodeURLs(e.SourceURLs)
	if err != nil {
		return fmt.Errorf("failed to encode source urls: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO history (`+historyColumns+`) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Title, urls, e.Origin, persistence.FormatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

func (r *historyRepo) Stream(ctx context.Context, fn func(core.HistoryEntry) error) error {
	rows, err := r.db.QueryContext(ctx, `SELECT `+historyColumns+` FROM history`)
	if err != nil {
		return fmt.Errorf("failed to scan history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return fmt.Errorf("failed to scan history entry: %w", err)
		}
		if err := fn(*e); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *historyRepo) ListRecent(ctx context.Context, limit int) ([]core.HistoryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+historyColumns+` FROM history ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []core.HistoryEntry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (r *historyRepo) ListOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM history WHERE created_at < ? ORDER BY created_at ASC`,
		persistence.FormatTime(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired history: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *historyRepo) DeleteBatch(ctx context.Context, ids []string) error {
	return deleteBatch(ctx, r.db, "history", ids)
}

func scanHistory(row scanner) (*core.HistoryEntry, error) {
	var e core.HistoryEntry
	var urls, created string
	if err := row.Scan(&e.ID, &e.Title, &urls, &e.Origin, &created); err != nil {
		return nil, err
	}

	var err error
	if e.SourceURLs, err = decodeURLs(urls); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = persistence.ParseTime(created); err != nil {
		return nil, err
	}
	return &e, nil
}

type healthRepo struct {
	db *sql.DB
}

func (r *healthRepo) Put(ctx context.Context, record *core.HealthRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode health record: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO health_records (key, record, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		healthKey, string(payload), persistence.FormatTime(record.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to write health record: %w", err)
	}
	return nil
}

func (r *healthRepo) Latest(ctx context.Context) (*core.HealthRecord, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT record FROM health_records WHERE key = ?`, healthKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read health record: %w", err)
	}

	var record core.HealthRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("failed to decode health record: %w", err)
	}
	return &record, nil
}
