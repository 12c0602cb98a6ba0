// Package identity answers authorization questions about actors: which
// department they belong to and whether their role is elevated. User
// management belongs to the wider portal.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	id "distrack/pkg/domain"
	"distrack/pkg/platform/sentinel"
)

// RoleDirector is the elevated role allowed to force completion past
// unresolved discrepancies.
const RoleDirector = "director"

// Member is one actor's affiliation.
type Member struct {
	DepartmentID id.DepartmentID
	Role         string
}

// InMemoryRegistry serves memberships from memory for tests and local dev.
type InMemoryRegistry struct {
	mu      sync.RWMutex
	members map[id.UserID]Member
}

func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{members: make(map[id.UserID]Member)}
}

// Add registers an actor's affiliation.
func (r *InMemoryRegistry) Add(actor id.UserID, member Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[actor] = member
}

func (r *InMemoryRegistry) DepartmentOf(_ context.Context, actor id.UserID) (id.DepartmentID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	member, ok := r.members[actor]
	if !ok {
		return id.DepartmentID{}, fmt.Errorf("user %s: %w", actor, sentinel.ErrNotFound)
	}
	return member.DepartmentID, nil
}

func (r *InMemoryRegistry) IsElevated(_ context.Context, actor id.UserID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	member, ok := r.members[actor]
	if !ok {
		return false, fmt.Errorf("user %s: %w", actor, sentinel.ErrNotFound)
	}
	return member.Role == RoleDirector, nil
}

// PostgresRegistry reads the portal's users table.
type PostgresRegistry struct {
	db *sql.DB
}

func NewPostgresRegistry(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

func (r *PostgresRegistry) DepartmentOf(ctx context.Context, actor id.UserID) (id.DepartmentID, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT department_id FROM users WHERE id = $1`,
		actor.String(),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return id.DepartmentID{}, fmt.Errorf("user %s: %w", actor, sentinel.ErrNotFound)
	}
	if err != nil {
		return id.DepartmentID{}, fmt.Errorf("query user department: %w", err)
	}
	return id.ParseDepartmentID(raw)
}

func (r *PostgresRegistry) IsElevated(ctx context.Context, actor id.UserID) (bool, error) {
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT role FROM users WHERE id = $1`,
		actor.String(),
	).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("user %s: %w", actor, sentinel.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("query user role: %w", err)
	}
	return role == RoleDirector, nil
}
