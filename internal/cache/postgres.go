package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresCache persists generation results in a relational table, for
// multi-worker runs where the file cache would race on append.
type PostgresCache struct {
	db *sql.DB
}

// NewPostgres opens the database and ensures the results table exists.
func NewPostgres(dsn string) (*PostgresCache, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	c := &PostgresCache{db: db}
	if err := c.migrate(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *PostgresCache) migrate(ctx context.Context) error {
	// Advisory lock prevents concurrent migrations from parallel workers.
	const lockID = 727100921

	var acquired bool
	if err := c.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !acquired {
		// Another worker is migrating; give it a moment and move on.
		time.Sleep(2 * time.Second)
		return nil
	}
	defer func() {
		_, _ = c.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	_, err := c.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS generations (
			model      TEXT NOT NULL,
			dataset    TEXT NOT NULL,
			case_id    INT  NOT NULL,
			n_examples INT  NOT NULL,
			prompt     TEXT,
			output     TEXT,
			status     TEXT,
			created_at TIMESTAMPTZ DEFAULT now(),
			PRIMARY KEY (model, dataset, case_id, n_examples)
		)`)
	return err
}

// Get retrieves an entry by key. Returns nil if not found.
func (c *PostgresCache) Get(ctx context.Context, key Key) (*Entry, error) {
	entry := Entry{Key: key}
	row := c.db.QueryRowContext(ctx, `
		SELECT prompt, output, status, created_at
		FROM generations
		WHERE model=$1 AND dataset=$2 AND case_id=$3 AND n_examples=$4`,
		key.Model, key.Dataset, key.CaseID, key.NExamples)
	if err := row.Scan(&entry.Prompt, &entry.Output, &entry.Status, &entry.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read generation %s: %w", key, err)
	}
	return &entry, nil
}

// Set stores an entry, keeping the first write for a key.
func (c *PostgresCache) Set(ctx context.Context, entry *Entry) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO generations(model, dataset, case_id, n_examples, prompt, output, status, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (model, dataset, case_id, n_examples) DO NOTHING`,
		entry.Key.Model, entry.Key.Dataset, entry.Key.CaseID, entry.Key.NExamples,
		entry.Prompt, entry.Output, entry.Status, entry.CreatedAt)
	return err
}

// Close closes the database handle.
func (c *PostgresCache) Close() error {
	return c.db.Close()
}
