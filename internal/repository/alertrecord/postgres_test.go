package alertrecord

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	domain "github.com/safenetai/escalation/internal/domain/escalation"
)

func setupMockStore(t *testing.T) (sqlmock.Sqlmock, *PostgresStore) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return mock, NewPostgresStore(db)
}

func sampleRecord() *domain.AlertRecord {
	return domain.NewAlertRecord(&domain.CommittedEvent{
		ID:          "rec-1",
		Kind:        domain.RequestTypePanicAlert,
		Priority:    domain.PriorityUrgent,
		TriggeredBy: "volume_button",
		Subject: domain.SubjectContext{
			ResidentID:   "res-1",
			ResidentName: "Asha Kumar",
			FlatNumber:   "204",
			Phone:        "555-0142",
		},
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	})
}

func TestCreate(t *testing.T) {
	t.Parallel()

	mock, store := setupMockStore(t)
	record := sampleRecord()

	mock.ExpectExec(`INSERT INTO alert_records`).
		WithArgs(
			record.ID,
			string(record.RequestType),
			string(record.Status),
			string(record.Priority),
			sql.NullString{String: "res-1", Valid: true},
			record.Subject.ResidentName,
			record.Subject.FlatNumber,
			record.Subject.BuildingNumber,
			record.Subject.Block,
			record.Subject.Phone,
			record.TriggeredBy,
			record.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Create(context.Background(), record))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	t.Parallel()

	mock, store := setupMockStore(t)
	record := sampleRecord()

	rows := sqlmock.NewRows([]string{
		"id", "request_type", "status", "priority",
		"resident_id", "resident_name", "flat_number", "building_number", "block", "phone",
		"triggered_by", "created_at",
	}).AddRow(
		record.ID, string(record.RequestType), string(record.Status), string(record.Priority),
		"res-1", record.Subject.ResidentName, record.Subject.FlatNumber,
		record.Subject.BuildingNumber, record.Subject.Block, record.Subject.Phone,
		record.TriggeredBy, record.CreatedAt,
	)

	mock.ExpectQuery(`FROM alert_records WHERE id`).
		WithArgs(record.ID).
		WillReturnRows(rows)

	got, err := store.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, record, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	t.Parallel()

	mock, store := setupMockStore(t)

	mock.ExpectQuery(`FROM alert_records WHERE id`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecent(t *testing.T) {
	t.Parallel()

	mock, store := setupMockStore(t)
	record := sampleRecord()

	rows := sqlmock.NewRows([]string{
		"id", "request_type", "status", "priority",
		"resident_id", "resident_name", "flat_number", "building_number", "block", "phone",
		"triggered_by", "created_at",
	}).AddRow(
		record.ID, string(record.RequestType), string(record.Status), string(record.Priority),
		nil, record.Subject.ResidentName, record.Subject.FlatNumber,
		record.Subject.BuildingNumber, record.Subject.Block, record.Subject.Phone,
		record.TriggeredBy, record.CreatedAt,
	)

	mock.ExpectQuery(`FROM alert_records ORDER BY created_at DESC`).
		WithArgs(DefaultListLimit).
		WillReturnRows(rows)

	records, err := store.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Empty(t, records[0].Subject.ResidentID)
	require.NoError(t, mock.ExpectationsWereMet())
}
