package advice

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distrack/internal/distribution"
	"distrack/internal/document"
	"distrack/internal/ledger"
	id "distrack/pkg/domain"
	"distrack/pkg/platform/sentinel"
)

func TestBuildProjectsAttachOrderAndSenderState(t *testing.T) {
	invoice := document.Ref{Kind: document.KindInvoice, ID: id.DocumentID(uuid.New())}
	extra := document.Ref{Kind: document.KindAdditionalDocument, ID: id.DocumentID(uuid.New())}

	dist := &distribution.Distribution{
		ID:            id.NewDistributionID(),
		Number:        "U0007/08.2026",
		OriginID:      id.DepartmentID(uuid.New()),
		DestinationID: id.DepartmentID(uuid.New()),
		Documents:     []document.Ref{invoice, extra},
	}
	typ := &distribution.Type{Code: "U", Name: "Urgent"}
	entries := []ledger.Entry{
		{Ref: extra, Position: 1, Sender: ledger.SideRecord{Verified: true, Status: ledger.StatusDamaged, Notes: "water stain"}},
		{Ref: invoice, Position: 0, Sender: ledger.SideRecord{Verified: true, Status: ledger.StatusOK}},
	}
	at := time.Now()

	adv := Build(dist, typ, entries, at)

	assert.Equal(t, dist.Number, adv.Number)
	assert.Equal(t, "U", adv.TypeCode)
	assert.Equal(t, at, adv.GeneratedAt)
	require.Len(t, adv.Documents, 2)
	// Document order follows attach order, not ledger order.
	assert.Equal(t, invoice.ID.String(), adv.Documents[0].DocumentID)
	assert.Equal(t, ledger.StatusOK, adv.Documents[0].SenderStatus)
	assert.Equal(t, extra.ID.String(), adv.Documents[1].DocumentID)
	assert.Equal(t, ledger.StatusDamaged, adv.Documents[1].SenderStatus)
	assert.Equal(t, "water stain", adv.Documents[1].Notes)
}

func TestInMemoryStoreSnapshotIsWriteOnce(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	distID := id.NewDistributionID()

	adv := Advice{DistributionID: distID.String(), Number: "U0001/08.2026", GeneratedAt: time.Now()}
	require.NoError(t, store.Save(ctx, adv))

	// A second save must not overwrite the legal record.
	again := adv
	again.Number = "tampered"
	require.ErrorIs(t, store.Save(ctx, again), sentinel.ErrConflict)

	got, err := store.FindByDistribution(ctx, distID)
	require.NoError(t, err)
	assert.Equal(t, "U0001/08.2026", got.Number)
}

func TestInMemoryStoreNotFound(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.FindByDistribution(context.Background(), id.NewDistributionID())
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}
