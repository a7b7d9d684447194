package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/agenda/internal/config"
	"github.com/Togather-Foundation/agenda/internal/metrics"
	"github.com/Togather-Foundation/agenda/internal/storage"
	"github.com/Togather-Foundation/agenda/internal/telemetry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = telemetry.GetTracer("github.com/Togather-Foundation/agenda/internal/storage/postgres")

// DB is the persistence gateway. Every statement goes through Query,
// QueryRow or Exec, which record metrics and turn driver failures into
// *storage.PersistenceError. pgx.ErrNoRows is passed through untouched.
type DB struct {
	pool *pgxpool.Pool
}

// Open creates the process-wide pool and verifies it with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConnections)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{pool: pool}, nil
}

// NewDB wraps an existing pool. The caller keeps ownership of it.
func NewDB(pool *pgxpool.Pool) (*DB, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres: pool cannot be nil")
	}
	return &DB{pool: pool}, nil
}

func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) Close() {
	db.pool.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	start := time.Now()
	err := db.pool.Ping(ctx)
	metrics.RecordQuery("ping", start, err)
	if err != nil {
		return wrapError("ping", err)
	}
	return nil
}

// Query runs a statement returning rows. Errors surfaced later by rows.Err
// should be passed through WrapRowsError with the same op.
func (db *DB) Query(ctx context.Context, op string, sql string, args ...any) (pgx.Rows, error) {
	ctx, span := startSpan(ctx, op)
	defer span.End()

	start := time.Now()
	rows, err := db.pool.Query(ctx, sql, args...)
	metrics.RecordQuery(op, start, err)
	if err != nil {
		markSpan(span, err)
		return nil, wrapError(op, err)
	}
	return rows, nil
}

// QueryRow runs a statement returning at most one row. The returned row
// reports errors from Scan.
func (db *DB) QueryRow(ctx context.Context, op string, sql string, args ...any) pgx.Row {
	ctx, span := startSpan(ctx, op)
	return &row{
		op:    op,
		start: time.Now(),
		span:  span,
		row:   db.pool.QueryRow(ctx, sql, args...),
	}
}

// Exec runs a statement and returns the number of affected rows.
func (db *DB) Exec(ctx context.Context, op string, sql string, args ...any) (int64, error) {
	ctx, span := startSpan(ctx, op)
	defer span.End()

	start := time.Now()
	tag, err := db.pool.Exec(ctx, sql, args...)
	metrics.RecordQuery(op, start, err)
	if err != nil {
		markSpan(span, err)
		return 0, wrapError(op, err)
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}

// WrapRowsError converts an error from iterating rows. It returns nil for a
// nil err.
func WrapRowsError(op string, err error) error {
	if err == nil {
		return nil
	}
	return wrapError(op, err)
}

type row struct {
	op    string
	start time.Time
	span  trace.Span
	row   pgx.Row
}

func (r *row) Scan(dest ...any) error {
	defer r.span.End()

	err := r.row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordQuery(r.op, r.start, nil)
		return err
	}
	metrics.RecordQuery(r.op, r.start, err)
	if err != nil {
		markSpan(r.span, err)
		return wrapError(r.op, err)
	}
	return nil
}

func wrapError(op string, err error) error {
	var existing *storage.PersistenceError
	if errors.As(err, &existing) {
		return err
	}

	out := &storage.PersistenceError{Op: op, Message: err.Error(), Err: err}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		out.Code = pgErr.Code
		out.Message = pgErr.Message
	}
	return out
}

func startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "db."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", op),
		),
	)
}

func markSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
