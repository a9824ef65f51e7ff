package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresRepository persists audit records in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repository over db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	if db == nil {
		panic("audit: db cannot be nil")
	}
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Save(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO assessment_audit_records (
			id, user_id, scale_id, total_score, severity,
			tier, rigidity, reason, preview, flags, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		nullString(rec.ScaleID),
		rec.TotalScore,
		nullString(rec.Severity),
		rec.Tier,
		rec.Rigidity,
		rec.Reason,
		nullString(rec.Preview),
		rec.Flags,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: failed to save record: %w", err)
	}
	return nil
}

func (r *PostgresRepository) History(ctx context.Context, userID string, filter Filter) ([]Record, error) {
	query := `
		SELECT id, user_id, scale_id, total_score, severity,
			   tier, rigidity, reason, preview, flags, created_at
		FROM assessment_audit_records
		WHERE user_id = $1
	`
	args := []interface{}{userID}
	argIdx := 2

	if filter.ScaleID != "" {
		query += fmt.Sprintf(" AND scale_id = $%d", argIdx)
		args = append(args, filter.ScaleID)
		argIdx++
	}
	if filter.Tier != "" {
		query += fmt.Sprintf(" AND tier = $%d", argIdx)
		args = append(args, filter.Tier)
		argIdx++
	}
	if !filter.StartTime.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, filter.StartTime)
		argIdx++
	}
	if !filter.EndTime.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, filter.EndTime)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: failed to query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var scaleID, severity, preview sql.NullString
		err := rows.Scan(
			&rec.ID, &rec.UserID, &scaleID, &rec.TotalScore, &severity,
			&rec.Tier, &rec.Rigidity, &rec.Reason, &preview, &rec.Flags, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("audit: failed to scan record: %w", err)
		}
		rec.ScaleID = scaleID.String
		rec.Severity = severity.String
		rec.Preview = preview.String
		records = append(records, rec)
	}

	return records, nil
}

func (r *PostgresRepository) HasPriorRecord(ctx context.Context, userID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM assessment_audit_records WHERE user_id = $1)`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("audit: failed to check prior record: %w", err)
	}
	return exists, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
