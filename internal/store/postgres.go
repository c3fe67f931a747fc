package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/staffmeal/validation-service/internal/compare"
	"github.com/staffmeal/validation-service/internal/order"
	"github.com/staffmeal/validation-service/internal/record"
)

// PostgresStore persists validation records in a single append-only
// table. Order and comparison snapshots are stored as JSONB so the
// table survives catalog changes without migrations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the validation_records table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS validation_records (
			id BIGSERIAL PRIMARY KEY,
			order_id TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL DEFAULT now(),
			operator TEXT,
			source TEXT NOT NULL,
			is_complete BOOLEAN NOT NULL,
			expected_order_json JSONB NOT NULL,
			detected_order_json JSONB NOT NULL,
			comparison_result_json JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_validation_records_ts ON validation_records (ts);
		CREATE INDEX IF NOT EXISTS idx_validation_records_order_id ON validation_records (order_id);
	`)
	if err != nil {
		return &UnavailableError{Op: "ensure schema", Err: err}
	}
	return nil
}

// Append inserts the record and returns the store-assigned id. The
// record timestamp defaults to now() when zero.
func (s *PostgresStore) Append(ctx context.Context, rec *record.ValidationRecord) (int64, error) {
	expectedJSON, err := json.Marshal(rec.ExpectedOrder)
	if err != nil {
		return 0, fmt.Errorf("marshal expected order: %w", err)
	}
	detectedJSON, err := json.Marshal(rec.DetectedOrder)
	if err != nil {
		return 0, fmt.Errorf("marshal detected order: %w", err)
	}
	resultJSON, err := json.Marshal(rec.ComparisonResult)
	if err != nil {
		return 0, fmt.Errorf("marshal comparison result: %w", err)
	}

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	var operator *string
	if rec.Operator != "" {
		operator = &rec.Operator
	}

	var id int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO validation_records (
			order_id, ts, operator, source, is_complete,
			expected_order_json, detected_order_json, comparison_result_json
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, rec.OrderID, ts, operator, string(rec.ExpectedOrder.Source), rec.IsComplete,
		expectedJSON, detectedJSON, resultJSON).Scan(&id)
	if err != nil {
		return 0, &UnavailableError{Op: "append", Err: err}
	}
	return id, nil
}

// Query returns records matching the filter, newest first.
func (s *PostgresStore) Query(ctx context.Context, filter Filter) ([]record.ValidationRecord, error) {
	query := `
		SELECT id, order_id, ts, operator, is_complete,
		       expected_order_json, detected_order_json, comparison_result_json
		FROM validation_records
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.OrderID != "" {
		query += fmt.Sprintf(" AND order_id = $%d", argIdx)
		args = append(args, filter.OrderID)
		argIdx++
	}
	if filter.Operator != "" {
		query += fmt.Sprintf(" AND operator = $%d", argIdx)
		args = append(args, filter.Operator)
		argIdx++
	}
	if filter.Source != "" {
		query += fmt.Sprintf(" AND source = $%d", argIdx)
		args = append(args, string(filter.Source))
		argIdx++
	}
	if !filter.From.IsZero() {
		query += fmt.Sprintf(" AND ts >= $%d", argIdx)
		args = append(args, filter.From)
		argIdx++
	}
	if !filter.Until.IsZero() {
		query += fmt.Sprintf(" AND ts < $%d", argIdx)
		args = append(args, filter.Until)
		argIdx++
	}

	query += " ORDER BY ts DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &UnavailableError{Op: "query", Err: err}
	}
	defer rows.Close()

	records := make([]record.ValidationRecord, 0)
	for rows.Next() {
		var (
			rec          record.ValidationRecord
			operator     *string
			expectedJSON []byte
			detectedJSON []byte
			resultJSON   []byte
		)
		if err := rows.Scan(
			&rec.ID, &rec.OrderID, &rec.Timestamp, &operator, &rec.IsComplete,
			&expectedJSON, &detectedJSON, &resultJSON,
		); err != nil {
			return nil, &UnavailableError{Op: "query", Err: err}
		}
		if operator != nil {
			rec.Operator = *operator
		}

		var expected order.Order
		if err := json.Unmarshal(expectedJSON, &expected); err != nil {
			return nil, fmt.Errorf("unmarshal expected order for record %d: %w", rec.ID, err)
		}
		var detected order.Order
		if err := json.Unmarshal(detectedJSON, &detected); err != nil {
			return nil, fmt.Errorf("unmarshal detected order for record %d: %w", rec.ID, err)
		}
		var result compare.Result
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, fmt.Errorf("unmarshal comparison result for record %d: %w", rec.ID, err)
		}
		rec.ExpectedOrder = expected
		rec.DetectedOrder = detected
		rec.ComparisonResult = result
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, &UnavailableError{Op: "query", Err: rows.Err()}
	}

	return records, nil
}

// DeleteOlderThan removes records with a timestamp before the cutoff
// and returns the number of rows deleted. Used by the retention
// sweeper.
func (s *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM validation_records
		WHERE ts < $1
	`, cutoff)
	if err != nil {
		return 0, &UnavailableError{Op: "delete", Err: err}
	}
	return tag.RowsAffected(), nil
}
