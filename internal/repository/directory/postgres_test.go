package directory

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/safenetai/escalation/internal/domain/notification"
)

func setupMockDirectory(t *testing.T) (sqlmock.Sqlmock, *PostgresDirectory) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return mock, NewPostgresDirectory(db)
}

func TestTokenByID(t *testing.T) {
	t.Parallel()

	mock, dir := setupMockDirectory(t)

	mock.ExpectQuery(`SELECT push_token FROM workers WHERE id`).
		WithArgs("w-1").
		WillReturnRows(sqlmock.NewRows([]string{"push_token"}).AddRow("token-w-1"))

	token, found, err := dir.TokenByID(context.Background(), notification.CategoryWorkers, "w-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "token-w-1", token)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenByIDMisses(t *testing.T) {
	t.Parallel()

	mock, dir := setupMockDirectory(t)

	// Unknown uid.
	mock.ExpectQuery(`SELECT push_token FROM residents WHERE id`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, found, err := dir.TokenByID(context.Background(), notification.CategoryResidents, "ghost")
	require.NoError(t, err)
	require.False(t, found)

	// Known uid without a registered token.
	mock.ExpectQuery(`SELECT push_token FROM residents WHERE id`).
		WithArgs("res-1").
		WillReturnRows(sqlmock.NewRows([]string{"push_token"}).AddRow(nil))

	_, found, err = dir.TokenByID(context.Background(), notification.CategoryResidents, "res-1")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenByIDUnknownCategory(t *testing.T) {
	t.Parallel()

	_, dir := setupMockDirectory(t)

	_, _, err := dir.TokenByID(context.Background(), notification.Category("pets"), "p-1")
	require.ErrorIs(t, err, ErrUnknownCategory)
}

func TestSecurityStaffIDs(t *testing.T) {
	t.Parallel()

	mock, dir := setupMockDirectory(t)

	mock.ExpectQuery(`FROM workers`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("guard-1").AddRow("guard-2"))

	ids, err := dir.SecurityStaffIDs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"guard-1", "guard-2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveByDevice(t *testing.T) {
	t.Parallel()

	mock, dir := setupMockDirectory(t)

	rows := sqlmock.NewRows([]string{"id", "name", "flat_number", "building_number", "block", "phone"}).
		AddRow("res-1", "Asha Kumar", "204", "7", "B", "555-0142")

	mock.ExpectQuery(`JOIN sensor_devices`).
		WithArgs("smoke-11").
		WillReturnRows(rows)

	subject, found, err := dir.ResolveByDevice(context.Background(), "smoke-11")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "res-1", subject.ResidentID)
	require.Equal(t, "204", subject.FlatNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveByUnitNotFound(t *testing.T) {
	t.Parallel()

	mock, dir := setupMockDirectory(t)

	mock.ExpectQuery(`FROM residents r`).
		WithArgs("999").
		WillReturnError(sql.ErrNoRows)

	subject, found, err := dir.ResolveByUnit(context.Background(), "999")
	require.NoError(t, err)
	require.False(t, found)
	require.Empty(t, subject.ResidentID)
	require.NoError(t, mock.ExpectationsWereMet())
}
