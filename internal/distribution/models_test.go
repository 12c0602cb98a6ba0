package distribution

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"distrack/internal/document"
	id "distrack/pkg/domain"
)

func TestStatusCanAdvanceTo(t *testing.T) {
	all := []Status{
		StatusDraft, StatusVerifiedSender, StatusSent,
		StatusReceived, StatusVerifiedReceiver, StatusCompleted,
	}

	legal := map[Status]Status{
		StatusDraft:            StatusVerifiedSender,
		StatusVerifiedSender:   StatusSent,
		StatusSent:             StatusReceived,
		StatusReceived:         StatusVerifiedReceiver,
		StatusVerifiedReceiver: StatusCompleted,
	}

	// Only the single legal edge from each state is permitted; every other
	// pair, including self-transitions, must be rejected.
	for _, from := range all {
		for _, to := range all {
			want := legal[from] == to
			assert.Equal(t, want, from.CanAdvanceTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusDraft.Terminal())
	assert.False(t, StatusVerifiedReceiver.Terminal())
}

func TestHasDocument(t *testing.T) {
	ref := document.Ref{Kind: document.KindInvoice, ID: id.DocumentID(uuid.New())}
	other := document.Ref{Kind: document.KindAdditionalDocument, ID: ref.ID}

	dist := &Distribution{Documents: []document.Ref{ref}}
	assert.True(t, dist.HasDocument(ref))
	assert.False(t, dist.HasDocument(other), "kind is part of document identity")
}
