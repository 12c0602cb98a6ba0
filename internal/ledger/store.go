package ledger

import (
	"context"
	"time"

	"distrack/internal/document"
	id "distrack/pkg/domain"
)

// Store persists verification entries.
//
// Error contract: methods return sentinel.ErrNotFound (wrapped) when a
// referenced entry does not exist, and wrapped infrastructure errors
// otherwise. RecordSide merges last-write-wins per document under the
// caller's transaction.
type Store interface {
	// Ensure creates an unverified entry for a newly attached document.
	Ensure(ctx context.Context, distID id.DistributionID, ref document.Ref, position int) error
	// Remove invalidates the entry for a detached document.
	Remove(ctx context.Context, distID id.DistributionID, ref document.Ref) error
	// RemoveByDistribution hard-deletes all entries, used only by the draft
	// delete transition.
	RemoveByDistribution(ctx context.Context, distID id.DistributionID) error
	// RecordSide merges a batch of verification items into one side of the
	// ledger. Every ref must have an existing entry.
	RecordSide(ctx context.Context, distID id.DistributionID, side Side, items []Item, actor id.UserID, at time.Time) error
	// ListByDistribution returns entries ordered by attach position.
	ListByDistribution(ctx context.Context, distID id.DistributionID) ([]Entry, error)
}
