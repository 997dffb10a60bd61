package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/guardrail-ml/gce/pkg/gce"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements gce.RunRepository using PostgreSQL.
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) gce.RunRepository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) gce.RunRepository {
	return &Repository{db: pool}
}

func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("run already exists")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) CreateRun(ctx context.Context, run *gce.Run) error {
	bundle, err := json.Marshal(run.Bundle)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	verdict, err := json.Marshal(run.Verdict)
	if err != nil {
		return fmt.Errorf("marshal verdict: %w", err)
	}

	query := `
		INSERT INTO gce_runs (
			id, rule, label, backend, reason, bundle, verdict, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.Exec(ctx, query,
		run.ID, run.Bundle.Rule, string(run.Verdict.Label),
		run.Backend, run.Reason, bundle, verdict, run.CreatedAt)
	if err != nil {
		return r.handlePostgresError("create run", err)
	}

	return nil
}

func (r *Repository) GetRun(ctx context.Context, id uuid.UUID) (*gce.Run, error) {
	query := `
		SELECT id, backend, reason, bundle, verdict, created_at
		FROM gce_runs WHERE id = $1`

	run, err := scanRun(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, gce.ErrRunNotFound
		}
		return nil, r.handlePostgresError("get run", err)
	}

	return run, nil
}

func (r *Repository) ListRuns(ctx context.Context, req gce.ListRunsRequest) ([]*gce.Run, error) {
	query := `
		SELECT id, backend, reason, bundle, verdict, created_at
		FROM gce_runs
		WHERE ($1 = '' OR rule = $1)
		  AND ($2 = '' OR label = $2)
		ORDER BY created_at DESC, id`
	args := []interface{}{req.Rule, string(req.Label)}
	if req.Limit > 0 {
		query += ` LIMIT $3`
		args = append(args, req.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list runs", err)
	}
	defer rows.Close()

	var runs []*gce.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, r.handlePostgresError("list runs", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list runs", err)
	}

	return runs, nil
}

func (r *Repository) DeleteRun(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM gce_runs WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete run", err)
	}
	if tag.RowsAffected() == 0 {
		return gce.ErrRunNotFound
	}

	return nil
}

func scanRun(row pgx.Row) (*gce.Run, error) {
	var (
		run     gce.Run
		bundle  []byte
		verdict []byte
	)
	if err := row.Scan(&run.ID, &run.Backend, &run.Reason, &bundle, &verdict, &run.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(bundle, &run.Bundle); err != nil {
		return nil, fmt.Errorf("unmarshal bundle: %w", err)
	}
	if err := json.Unmarshal(verdict, &run.Verdict); err != nil {
		return nil, fmt.Errorf("unmarshal verdict: %w", err)
	}

	return &run, nil
}
