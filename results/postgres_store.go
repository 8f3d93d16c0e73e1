package results

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const defaultTableName = "simeval_results"

// PostgresStore implements Store using a PostgreSQL table.
type PostgresStore struct {
	db        *sql.DB
	tableName string
}

// NewPostgresStore creates a store that uses the given *sql.DB (driver "postgres").
// The table is created if it doesn't exist.
func NewPostgresStore(ctx context.Context, db *sql.DB, tableName string) (*PostgresStore, error) {
	if tableName == "" {
		tableName = defaultTableName
	}
	s := &PostgresStore{db: db, tableName: tableName}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("postgres store migrate: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	q := `CREATE TABLE IF NOT EXISTS ` + s.tableName + ` (
		id BIGSERIAL PRIMARY KEY,
		run_id TEXT NOT NULL DEFAULT '',
		evaluator TEXT NOT NULL DEFAULT '',
		precision TEXT NOT NULL DEFAULT '',
		epoch INT NOT NULL DEFAULT -1,
		steps INT NOT NULL DEFAULT -1,
		mse_cosine DOUBLE PRECISION NOT NULL,
		mse_euclidean DOUBLE PRECISION NOT NULL,
		mse_manhattan DOUBLE PRECISION NOT NULL,
		mse_dot DOUBLE PRECISION NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_` + s.tableName + `_evaluator ON ` + s.tableName + ` (evaluator, precision);
	CREATE INDEX IF NOT EXISTS idx_` + s.tableName + `_at ON ` + s.tableName + ` (at);`
	_, err := s.db.ExecContext(ctx, q)
	return err
}

// Record implements Store.
func (s *PostgresStore) Record(ctx context.Context, r Row) error {
	if r.At.IsZero() {
		r.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO `+s.tableName+` (run_id, evaluator, precision, epoch, steps, mse_cosine, mse_euclidean, mse_manhattan, mse_dot, score, at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.RunID, r.Evaluator, r.Precision, r.Epoch, r.Steps,
		r.MSECosine, r.MSEEuclidean, r.MSEManhattan, r.MSEDot, r.Score, r.At)
	return err
}

// Query implements Store. Rows come back oldest first.
func (s *PostgresStore) Query(ctx context.Context, q Query) ([]Row, error) {
	args := []interface{}{}
	where := "1=1"
	n := 1
	if q.Evaluator != "" {
		args = append(args, q.Evaluator)
		where += fmt.Sprintf(" AND evaluator = $%d", n)
		n++
	}
	if q.Precision != "" {
		args = append(args, q.Precision)
		where += fmt.Sprintf(" AND precision = $%d", n)
		n++
	}
	if !q.From.IsZero() {
		args = append(args, q.From)
		where += fmt.Sprintf(" AND at >= $%d", n)
		n++
	}
	if !q.To.IsZero() {
		args = append(args, q.To)
		where += fmt.Sprintf(" AND at <= $%d", n)
		n++
	}
	args = append(args, q.limit())
	query := `SELECT run_id, evaluator, precision, epoch, steps, mse_cosine, mse_euclidean, mse_manhattan, mse_dot, score, at
		FROM ` + s.tableName + `
		WHERE ` + where + `
		ORDER BY at ASC, id ASC
		LIMIT ` + fmt.Sprintf("$%d", n)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.RunID, &r.Evaluator, &r.Precision, &r.Epoch, &r.Steps,
			&r.MSECosine, &r.MSEEuclidean, &r.MSEManhattan, &r.MSEDot, &r.Score, &r.At); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
