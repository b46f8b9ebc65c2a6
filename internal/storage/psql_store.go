package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/workouttracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
)

const createWorkoutDataTableSQL = `
CREATE TABLE IF NOT EXISTS workout_data
(
    key        VARCHAR PRIMARY KEY,
    value      TEXT        NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// pgxConn is satisfied by *pgxpool.Pool.
type pgxConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PsqlStore is the remote sync record store, one row per key.
type PsqlStore struct {
	db pgxConn
}

func NewPsqlStore(db pgxConn) *PsqlStore {
	return &PsqlStore{
		db: db,
	}
}

// Migrate creates the records table if it does not exist.
func (s *PsqlStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createWorkoutDataTableSQL); err != nil {
		return fmt.Errorf("create workout_data table: %w", err)
	}
	return nil
}

func (s *PsqlStore) Get(ctx context.Context, key string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.psql.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))

	var value string
	err = s.db.QueryRow(ctx, `SELECT value FROM workout_data WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select [%s]: %w", key, err)
	}

	return value, nil
}

func (s *PsqlStore) Set(ctx context.Context, key, value string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.psql.set")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))

	_, err = s.db.Exec(
		ctx,
		`INSERT INTO workout_data (key, value, updated_at)
				VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at;`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("upsert [%s]: %w", key, err)
	}

	return nil
}

func (s *PsqlStore) Delete(ctx context.Context, key string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.psql.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))

	tag, err := s.db.Exec(ctx, `DELETE FROM workout_data WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete [%s]: %w", key, err)
	}
	span.SetAttributes(attribute.Int64("rows.affected", tag.RowsAffected()))

	return nil
}
