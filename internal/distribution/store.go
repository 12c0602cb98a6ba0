package distribution

import (
	"context"

	id "distrack/pkg/domain"
)

// Filter narrows List results.
type Filter struct {
	Status     *Status
	Department *id.DepartmentID // matches origin or destination
}

// Store persists distributions.
//
// Error contract: FindByID returns sentinel.ErrNotFound (wrapped) when the
// distribution does not exist. Update performs an optimistic version check
// and returns sentinel.ErrConflict when the row changed since it was read;
// callers must re-read and retry the whole operation, not the write alone.
type Store interface {
	Create(ctx context.Context, dist *Distribution) error
	FindByID(ctx context.Context, distID id.DistributionID) (*Distribution, error)
	List(ctx context.Context, filter Filter) ([]*Distribution, error)
	// Update writes status, discrepancy flag, timestamps, and the document
	// set, guarded by dist.Version. On success the stored version (and
	// dist.Version) is incremented.
	Update(ctx context.Context, dist *Distribution) error
	// Delete hard-removes the distribution row. Draft-only, enforced by the
	// service.
	Delete(ctx context.Context, distID id.DistributionID) error
}

// TypeStore reads distribution type reference data. Type CRUD lives in the
// external reference-data surface; the core never writes types.
type TypeStore interface {
	FindByID(ctx context.Context, typeID id.TypeID) (*Type, error)
}
