package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/safenetai/escalation/internal/domain/escalation"
	"github.com/safenetai/escalation/internal/domain/notification"
)

// Directory resolves people: push tokens per recipient category, the
// security staff roster, and occupant identity for devices and units.
type Directory interface {
	TokenByID(ctx context.Context, category notification.Category, uid string) (string, bool, error)
	SecurityStaffIDs(ctx context.Context) ([]string, error)
	ResolveByDevice(ctx context.Context, deviceID string) (domain.SubjectContext, bool, error)
	ResolveByUnit(ctx context.Context, unit string) (domain.SubjectContext, bool, error)
}

// ErrUnknownCategory is returned for a category with no backing table.
var ErrUnknownCategory = errors.New("unknown recipient category")

// tokenTables maps a recipient category onto the table carrying its tokens.
var tokenTables = map[notification.Category]string{
	notification.CategoryResidents:   "residents",
	notification.CategoryWorkers:     "workers",
	notification.CategoryAuthorities: "authorities",
}

// PostgresDirectory serves the directory out of Postgres.
type PostgresDirectory struct {
	db *sql.DB
}

var _ Directory = (*PostgresDirectory)(nil)

// NewPostgresDirectory creates a directory bound to an open database handle.
func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// TokenByID fetches the push token for a uid in one category. A person
// without a registered token reports (found=false) rather than an error.
func (d *PostgresDirectory) TokenByID(ctx context.Context, category notification.Category, uid string) (string, bool, error) {
	table, ok := tokenTables[category]
	if !ok {
		return "", false, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	query := fmt.Sprintf(`SELECT push_token FROM %s WHERE id = $1`, table)

	var token sql.NullString

	err := d.db.QueryRowContext(ctx, query, uid).Scan(&token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("select %s token: %w", category, err)
	}

	if !token.Valid || token.String == "" {
		return "", false, nil
	}

	return token.String, true, nil
}

const securityStaffQuery = `
	SELECT id
	FROM workers
	WHERE role ILIKE '%security%' OR role ILIKE '%guard%'
	ORDER BY id`

// SecurityStaffIDs lists the worker ids whose role marks them as security
// staff. The role match is deliberately loose; installations spell the
// role differently.
func (d *PostgresDirectory) SecurityStaffIDs(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, securityStaffQuery)
	if err != nil {
		return nil, fmt.Errorf("select security staff: %w", err)
	}
	defer rows.Close()

	var ids []string

	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan security staff id: %w", err)
		}

		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate security staff: %w", err)
	}

	return ids, nil
}

const occupantColumns = `
	r.id,
	r.name,
	r.flat_number,
	r.building_number,
	r.block,
	r.phone`

// ResolveByDevice resolves the resident a sensor device is registered to.
func (d *PostgresDirectory) ResolveByDevice(ctx context.Context, deviceID string) (domain.SubjectContext, bool, error) {
	query := `
		SELECT` + occupantColumns + `
		FROM residents r
		JOIN sensor_devices sd ON sd.resident_id = r.id
		WHERE sd.device_id = $1`

	return d.queryOccupant(ctx, query, deviceID)
}

// ResolveByUnit resolves the resident of a unit/flat by its number.
func (d *PostgresDirectory) ResolveByUnit(ctx context.Context, unit string) (domain.SubjectContext, bool, error) {
	query := `
		SELECT` + occupantColumns + `
		FROM residents r
		WHERE r.flat_number = $1`

	return d.queryOccupant(ctx, query, unit)
}

func (d *PostgresDirectory) queryOccupant(ctx context.Context, query, arg string) (domain.SubjectContext, bool, error) {
	var (
		subject        domain.SubjectContext
		name           sql.NullString
		flatNumber     sql.NullString
		buildingNumber sql.NullString
		block          sql.NullString
		phone          sql.NullString
	)

	err := d.db.QueryRowContext(ctx, query, arg).Scan(
		&subject.ResidentID,
		&name,
		&flatNumber,
		&buildingNumber,
		&block,
		&phone,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SubjectContext{}, false, nil
		}

		return domain.SubjectContext{}, false, fmt.Errorf("select occupant: %w", err)
	}

	subject.ResidentName = name.String
	subject.FlatNumber = flatNumber.String
	subject.BuildingNumber = buildingNumber.String
	subject.Block = block.String
	subject.Phone = phone.String

	return subject, true, nil
}
