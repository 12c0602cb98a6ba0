package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "distrack/pkg/domain"
)

func TestInMemoryStoreListOrdersByTime(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	distID := id.DistributionID(uuid.New())
	actor := id.UserID(uuid.New())
	base := time.Now()

	// Append out of order; List must come back time-ordered.
	require.NoError(t, store.Append(ctx, Entry{
		DistributionID: distID, Action: ActionSent, ActorID: actor, OccurredAt: base.Add(2 * time.Minute),
	}))
	require.NoError(t, store.Append(ctx, Entry{
		DistributionID: distID, Action: ActionCreated, ActorID: actor, OccurredAt: base,
	}))
	require.NoError(t, store.Append(ctx, Entry{
		DistributionID: distID, Action: ActionSenderVerified, ActorID: actor, OccurredAt: base.Add(time.Minute),
	}))

	// An unrelated distribution's entry must not leak in.
	require.NoError(t, store.Append(ctx, Entry{
		DistributionID: id.DistributionID(uuid.New()), Action: ActionCreated, ActorID: actor, OccurredAt: base,
	}))

	entries, err := store.List(ctx, distID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, ActionCreated, entries[0].Action)
	assert.Equal(t, ActionSenderVerified, entries[1].Action)
	assert.Equal(t, ActionSent, entries[2].Action)
}
