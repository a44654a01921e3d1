package alertrecord

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/safenetai/escalation/internal/domain/escalation"
)

// Store defines persistence operations for alert records.
type Store interface {
	Create(ctx context.Context, record *domain.AlertRecord) error
	GetByID(ctx context.Context, id string) (*domain.AlertRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.AlertRecord, error)
}

// ErrNotFound is returned when no record exists for the requested id.
var ErrNotFound = errors.New("alert record not found")

// DefaultListLimit bounds ListRecent when the caller passes no limit.
const DefaultListLimit = 50

// PostgresStore persists alert records in a Postgres table.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a store bound to an open database handle.
// The handle is owned by the caller; the store never closes it.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const createQuery = `
	INSERT INTO alert_records (
		id,
		request_type,
		status,
		priority,
		resident_id,
		resident_name,
		flat_number,
		building_number,
		block,
		phone,
		triggered_by,
		created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// Create inserts the record. The id is the committed event id, so a retry
// of the same event collides on the primary key instead of duplicating.
func (s *PostgresStore) Create(ctx context.Context, record *domain.AlertRecord) error {
	_, err := s.db.ExecContext(ctx, createQuery,
		record.ID,
		string(record.RequestType),
		string(record.Status),
		string(record.Priority),
		nullableString(record.Subject.ResidentID),
		record.Subject.ResidentName,
		record.Subject.FlatNumber,
		record.Subject.BuildingNumber,
		record.Subject.Block,
		record.Subject.Phone,
		record.TriggeredBy,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert record: %w", err)
	}

	return nil
}

const selectColumns = `
	id,
	request_type,
	status,
	priority,
	resident_id,
	resident_name,
	flat_number,
	building_number,
	block,
	phone,
	triggered_by,
	created_at`

// GetByID fetches a single record.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*domain.AlertRecord, error) {
	query := `SELECT` + selectColumns + ` FROM alert_records WHERE id = $1`

	record, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("select alert record: %w", err)
	}

	return record, nil
}

// ListRecent returns the newest records first, up to limit.
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*domain.AlertRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT` + selectColumns + ` FROM alert_records ORDER BY created_at DESC LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select alert records: %w", err)
	}
	defer rows.Close()

	var records []*domain.AlertRecord

	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert record: %w", err)
		}

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert records: %w", err)
	}

	return records, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for the shared scan path.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.AlertRecord, error) {
	var (
		record      domain.AlertRecord
		requestType string
		status      string
		priority    string
		residentID  sql.NullString
	)

	err := row.Scan(
		&record.ID,
		&requestType,
		&status,
		&priority,
		&residentID,
		&record.Subject.ResidentName,
		&record.Subject.FlatNumber,
		&record.Subject.BuildingNumber,
		&record.Subject.Block,
		&record.Subject.Phone,
		&record.TriggeredBy,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.RequestType = domain.RequestType(requestType)
	record.Status = domain.RecordStatus(status)
	record.Priority = domain.Priority(priority)

	if residentID.Valid {
		record.Subject.ResidentID = residentID.String
	}

	return &record, nil
}

func nullableString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
