// Package postgres implements persistence.Database on PostgreSQL via pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"newscycle/internal/core"
	"newscycle/internal/persistence"
)

// ensure DB implements persistence.Database
var _ persistence.Database = (*DB)(nil)

const healthKey = "last_run"

// DB is a pgx-backed persistence.Database.
type DB struct {
	pool     *pgxpool.Pool
	articles *articleRepo
	history  *historyRepo
	health   *healthRepo
}

// New connects, verifies the connection and applies pending migrations.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := NewMigrationManager(pool).Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &DB{
		pool:     pool,
		articles: &articleRepo{pool: pool},
		history:  &historyRepo{pool: pool},
		health:   &healthRepo{pool: pool},
	}, nil
}

func (d *DB) Articles() persistence.ArticleRepository { return d.articles }
func (d *DB) History() persistence.HistoryRepository  { return d.history }
func (d *DB) Health() persistence.HealthRepository    { return d.health }

func (d *DB) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

func (d *DB) Close() error {
	d.pool.Close()
	return nil
}

// deleteBatch queues one DELETE per id and sends them in a single round trip.
func deleteBatch(ctx context.Context, pool *pgxpool.Pool, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > persistence.MaxBatchSize {
		return persistence.ErrBatchTooLarge
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, id := range ids {
		batch.Queue("DELETE FROM "+table+" WHERE id = $1", id)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return tx.Commit(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type articleRepo struct {
	pool *pgxpool.Pool
}

const articleColumns = `id, title, body, image_url, source_urls, source_name, category, image_source, created_at`

func (r *articleRepo) Create(ctx context.Context, a *core.Article) error {
	urls := a.SourceURLs
	if urls == nil {
		urls = []string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO articles (`+articleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Title, a.Body, a.ImageURL, urls, a.SourceName, string(a.Category), a.ImageSource, a.CreatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("article %s: %w", a.ID, persistence.ErrDuplicateID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}
	return nil
}

func (r *articleRepo) Get(ctx context.Context, id string) (*core.Article, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	a, err := scanArticle(row)
	if errors.Is(err, pgx.ErrNoRows) {
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
	return r.query(ctx, `SELECT `+articleColumns+` FROM articles ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
}

func (r *articleRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}

func (r *articleRepo) DeleteBatch(ctx context.Context, ids []string) error {
	return deleteBatch(ctx, r.pool, "articles", ids)
}

func (r *articleRepo) query(ctx context.Context, sql string, args ...any) ([]core.Article, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
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

func scanArticle(row pgx.Row) (*core.Article, error) {
	var a core.Article
	var category string
	if err := row.Scan(&a.ID, &a.Title, &a.Body, &a.ImageURL, &a.SourceURLs, &a.SourceName, &category, &a.ImageSource, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Category = core.Category(category)
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

type historyRepo struct {
	pool *pgxpool.Pool
}

func (r *historyRepo) Add(ctx context.Context, e *core.HistoryEntry) error {
	urls := e.SourceURLs
	if urls == nil {
		urls = []string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO history (id, title, source_urls, origin, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.Title, urls, e.Origin, e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

func (r *historyRepo) Stream(ctx context.Context, fn func(core.HistoryEntry) error) error {
	rows, err := r.pool.Query(ctx, `SELECT id, title, source_urls, origin, created_at FROM history`)
	if err != nil {
		return fmt.Errorf("failed to scan history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e core.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Title, &e.SourceURLs, &e.Origin, &e.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		if err := fn(e); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *historyRepo) ListRecent(ctx context.Context, limit int) ([]core.HistoryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, source_urls, origin, created_at
		FROM history ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []core.HistoryEntry
	for rows.Next() {
		var e core.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Title, &e.SourceURLs, &e.Origin, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *historyRepo) ListOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM history WHERE created_at < $1 ORDER BY created_at ASC`, cutoff.UTC())
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
	return deleteBatch(ctx, r.pool, "history", ids)
}

type healthRepo struct {
	pool *pgxpool.Pool
}

func (r *healthRepo) Put(ctx context.Context, record *core.HealthRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode health record: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO health_records (key, record, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at`,
		healthKey, payload, record.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write health record: %w", err)
	}
	return nil
}

func (r *healthRepo) Latest(ctx context.Context) (*core.HealthRecord, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT record FROM health_records WHERE key = $1`, healthKey).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read health record: %w", err)
	}

	var record core.HealthRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("failed to decode health record: %w", err)
	}
	return &record, nil
}

// Migrations returns the schema migration manager for status reporting.
func (d *DB) Migrations() *MigrationManager {
	return NewMigrationManager(d.pool)
}
