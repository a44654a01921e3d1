package inbox

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safenetai/escalation/internal/domain/notification"
)

// Store defines persistence operations for in-app notification records.
type Store interface {
	Create(ctx context.Context, record *notification.InboxRecord) error
}

// PostgresStore persists in-app notification records in Postgres.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a store bound to an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const createQuery = `
	INSERT INTO notifications (
		id,
		title,
		message,
		type,
		priority,
		route,
		to_role,
		to_uid,
		suppress_push,
		is_read,
		created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Create inserts the record.
func (s *PostgresStore) Create(ctx context.Context, record *notification.InboxRecord) error {
	_, err := s.db.ExecContext(ctx, createQuery,
		record.ID,
		record.Title,
		record.Message,
		record.Type,
		record.Priority,
		record.Route,
		string(record.ToRole),
		record.ToUID,
		record.SuppressPush,
		record.IsRead,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification record: %w", err)
	}

	return nil
}
