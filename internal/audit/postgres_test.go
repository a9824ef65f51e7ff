package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresSave(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectExec(`INSERT INTO assessment_audit_records`).
		WithArgs(
			sqlmock.AnyArg(), "user-1", "phq9", 12, "moderate",
			"medium", 0.6, "medium_risk", sqlmock.AnyArg(), nil, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Save(context.Background(), Record{
		UserID:     "user-1",
		ScaleID:    "phq9",
		TotalScore: 12,
		Severity:   "moderate",
		Tier:       "medium",
		Rigidity:   0.6,
		Reason:     "medium_risk",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectExec(`INSERT INTO assessment_audit_records`).
		WillReturnError(assert.AnError)

	err = repo.Save(context.Background(), Record{UserID: "user-1", Tier: "low", Reason: "low_risk"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save record")
}

func TestPostgresHistory(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "scale_id", "total_score", "severity",
		"tier", "rigidity", "reason", "preview", "flags", "created_at",
	}).
		AddRow("rec-2", "user-1", "gad7", 16, "severe", "high", 1.0, "hard_lock", "If you are in", nil, now).
		AddRow("rec-1", "user-1", "gad7", 8, "mild", "low", 0.35, "low_risk", nil, nil, now.Add(-time.Hour))

	mock.ExpectQuery(`SELECT .+ FROM assessment_audit_records WHERE user_id = \$1 ORDER BY created_at DESC`).
		WithArgs("user-1").
		WillReturnRows(rows)

	records, err := repo.History(context.Background(), "user-1", Filter{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "rec-2", records[0].ID)
	assert.Equal(t, "high", records[0].Tier)
	assert.Equal(t, "If you are in", records[0].Preview)
	assert.Equal(t, "gad7", records[1].ScaleID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresHistoryFilters(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "scale_id", "total_score", "severity",
		"tier", "rigidity", "reason", "preview", "flags", "created_at",
	})

	mock.ExpectQuery(`SELECT .+ WHERE user_id = \$1 AND scale_id = \$2 AND tier = \$3 ORDER BY created_at DESC LIMIT 10`).
		WithArgs("user-1", "phq9", "high").
		WillReturnRows(rows)

	_, err = repo.History(context.Background(), "user-1", Filter{ScaleID: "phq9", Tier: "high", Limit: 10})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresHasPriorRecord(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.HasPriorRecord(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
