package directory

import (
	"context"
	"database/sql"
	"fmt"

	id "distrack/pkg/domain"
)

// PostgresDirectory reads the portal's departments table.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) Exists(ctx context.Context, deptID id.DepartmentID) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM departments WHERE id = $1)`,
		deptID.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query department existence: %w", err)
	}
	return exists, nil
}
