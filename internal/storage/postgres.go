package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const schema = `
	CREATE TABLE IF NOT EXISTS insight_results (
		id          UUID PRIMARY KEY,
		kind        TEXT NOT NULL,
		subject_id  TEXT NOT NULL,
		payload     JSONB NOT NULL,
		computed_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS insight_results_kind_subject_idx
		ON insight_results (kind, subject_id, computed_at DESC);
`

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	DSN    string
	Logger *zap.Logger
}

// NewPostgresStorage opens and pings a PostgreSQL connection.
func NewPostgresStorage(ctx context.Context, cfg *PostgresConfig) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected")

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// EnsureSchema creates the results table if it does not exist.
func (p *PostgresStorage) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Ping checks the connection. Used by the readiness probe.
func (p *PostgresStorage) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// StoreResult inserts one result row. The payload is stored as JSONB.
func (p *PostgresStorage) StoreResult(ctx context.Context, rec *Record) error {
	start := time.Now()
	defer func() {
		StoreDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	query := `
		INSERT INTO insight_results (id, kind, subject_id, payload, computed_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := p.db.ExecContext(ctx, query,
		rec.ID,
		string(rec.Kind),
		rec.SubjectID,
		string(rec.Payload),
		rec.ComputedAt,
	)
	if err != nil {
		ResultsStoredTotal.WithLabelValues(string(rec.Kind), "error").Inc()
		return fmt.Errorf("insert result: %w", err)
	}

	ResultsStoredTotal.WithLabelValues(string(rec.Kind), "ok").Inc()
	p.logger.Debug("result-stored",
		zap.String("result-id", rec.ID),
		zap.String("kind", string(rec.Kind)),
		zap.String("subject-id", rec.SubjectID))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
