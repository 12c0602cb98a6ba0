// Package directory is the read-only department collaborator. Department
// CRUD belongs to the wider portal; the workflow only checks existence.
package directory

import (
	"context"
	"sync"

	id "distrack/pkg/domain"
)

// InMemoryDirectory serves departments from memory for tests and local dev.
type InMemoryDirectory struct {
	mu          sync.RWMutex
	departments map[id.DepartmentID]struct{}
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{departments: make(map[id.DepartmentID]struct{})}
}

// Add registers a department.
func (d *InMemoryDirectory) Add(deptID id.DepartmentID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.departments[deptID] = struct{}{}
}

func (d *InMemoryDirectory) Exists(_ context.Context, deptID id.DepartmentID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.departments[deptID]
	return ok, nil
}
