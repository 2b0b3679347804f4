package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend persists records in PostgreSQL via pgx.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend connects to databaseURL and ensures the schema exists.
func NewPostgresBackend(ctx context.Context, databaseURL string) (*PostgresBackend, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresBackend{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			topic TEXT NOT NULL,
			content TEXT NOT NULL,
			importance INT NOT NULL,
			conversation_ref TEXT NOT NULL DEFAULT '',
			reasoning TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			recall_count INT NOT NULL DEFAULT 0,
			last_recalled TIMESTAMPTZ
		);`,
		`CREATE INDEX IF NOT EXISTS idx_memories_owner_created ON memories (owner, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_memories_owner_importance ON memories (owner, importance DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_memories_owner_topic ON memories (owner, topic);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

const recordColumns = `id, owner, topic, content, importance, conversation_ref, reasoning, created_at, updated_at, recall_count, last_recalled`

// Insert stores a new record.
func (b *PostgresBackend) Insert(ctx context.Context, rec *Record) error {
	var lastRecalled *time.Time
	if !rec.LastRecalled.IsZero() {
		lastRecalled = &rec.LastRecalled
	}

	_, err := b.pool.Exec(ctx,
		`INSERT INTO memories (`+recordColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID,
		rec.Owner,
		rec.Topic,
		rec.Content,
		rec.Importance,
		rec.ConversationRef,
		rec.Reasoning,
		rec.CreatedAt,
		rec.UpdatedAt,
		rec.RecallCount,
		lastRecalled,
	)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

// Get returns a record by ID, or nil when absent.
func (b *PostgresBackend) Get(ctx context.Context, owner, id string) (*Record, error) {
	row := b.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM memories WHERE owner=$1 AND id=$2`,
		owner, id,
	)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get memory: %w", err)
	}
	return rec, nil
}

// Delete removes a record. Missing rows are not an error.
func (b *PostgresBackend) Delete(ctx context.Context, owner, id string) error {
	_, err := b.pool.Exec(ctx,
		`DELETE FROM memories WHERE owner=$1 AND id=$2`,
		owner, id,
	)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	return nil
}

// List returns the owner's records in the given order.
func (b *PostgresBackend) List(ctx context.Context, owner string, order Order, limit int) ([]*Record, error) {
	orderBy := `created_at DESC`
	if order == OrderImportance {
		orderBy = `importance DESC, created_at DESC`
	}

	query := `SELECT ` + recordColumns + ` FROM memories WHERE owner=$1 ORDER BY ` + orderBy
	args := []any{owner}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListByTopic returns the owner's records under a topic, most recent first.
func (b *PostgresBackend) ListByTopic(ctx context.Context, owner, topic string, limit int) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM memories WHERE owner=$1 AND topic=$2 ORDER BY created_at DESC`
	args := []any{owner, topic}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list memories by topic: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// MarkRecalled increments the recall count and stamps the recall time.
func (b *PostgresBackend) MarkRecalled(ctx context.Context, owner, id string, at time.Time) error {
	_, err := b.pool.Exec(ctx,
		`UPDATE memories SET recall_count = recall_count + 1, last_recalled = $3, updated_at = $3
		 WHERE owner=$1 AND id=$2`,
		owner, id, at,
	)
	if err != nil {
		return fmt.Errorf("mark recalled: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var lastRecalled *time.Time
	err := row.Scan(
		&rec.ID,
		&rec.Owner,
		&rec.Topic,
		&rec.Content,
		&rec.Importance,
		&rec.ConversationRef,
		&rec.Reasoning,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.RecallCount,
		&lastRecalled,
	)
	if err != nil {
		return nil, err
	}
	if lastRecalled != nil {
		rec.LastRecalled = *lastRecalled
	}
	return &rec, nil
}

func collectRecords(rows pgx.Rows) ([]*Record, error) {
	var recs []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memory rows: %w", err)
	}
	return recs, nil
}
