package history

import (
	"context"

	id "distrack/pkg/domain"
)

// Store persists history entries. Append runs under the caller's transaction
// so a transition and its trail commit or roll back together.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	// List returns a distribution's entries ordered by occurrence time.
	List(ctx context.Context, distID id.DistributionID) ([]Entry, error)
	// Purge removes a distribution's trail. Only legal during the hard
	// delete of a draft, after the trail has been copied to the audit sink.
	Purge(ctx context.Context, distID id.DistributionID) error
}
