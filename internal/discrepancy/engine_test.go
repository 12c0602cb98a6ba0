package discrepancy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"distrack/internal/document"
	"distrack/internal/ledger"
	id "distrack/pkg/domain"
)

func entry(ref document.Ref, senderStatus, receiverStatus ledger.Status, receiverVerified bool) ledger.Entry {
	e := ledger.Entry{Ref: ref}
	if senderStatus != "" {
		e.Sender = ledger.SideRecord{Verified: true, Status: senderStatus}
	}
	if receiverVerified {
		e.Receiver = ledger.SideRecord{Verified: true, Status: receiverStatus}
	}
	return e
}

func newRef(kind document.Kind) document.Ref {
	return document.Ref{Kind: kind, ID: id.DocumentID(uuid.New())}
}

func TestEvaluate(t *testing.T) {
	invoice := newRef(document.KindInvoice)
	extra := newRef(document.KindAdditionalDocument)

	tests := []struct {
		name         string
		entries      []ledger.Entry
		receiverDone bool
		want         []document.Ref
	}{
		{
			name: "both sides ok is clean",
			entries: []ledger.Entry{
				entry(invoice, ledger.StatusOK, ledger.StatusOK, true),
			},
			receiverDone: true,
			want:         nil,
		},
		{
			name: "receiver missing is discrepant regardless of sender",
			entries: []ledger.Entry{
				entry(invoice, ledger.StatusMissing, ledger.StatusMissing, true),
			},
			receiverDone: true,
			want:         []document.Ref{invoice},
		},
		{
			name: "receiver damaged is discrepant",
			entries: []ledger.Entry{
				entry(invoice, ledger.StatusOK, ledger.StatusDamaged, true),
			},
			receiverDone: true,
			want:         []document.Ref{invoice},
		},
		{
			name: "sender and receiver disagree",
			entries: []ledger.Entry{
				entry(invoice, ledger.StatusDamaged, ledger.StatusOK, true),
			},
			receiverDone: true,
			want:         []document.Ref{invoice},
		},
		{
			name: "unverified on receipt after receiver verification",
			entries: []ledger.Entry{
				entry(invoice, ledger.StatusOK, "", false),
			},
			receiverDone: true,
			want:         []document.Ref{invoice},
		},
		{
			name: "unverified before receiver verification is pending, not discrepant",
			entries: []ledger.Entry{
				entry(invoice, ledger.StatusOK, "", false),
			},
			receiverDone: false,
			want:         nil,
		},
		{
			name: "mixed bundle flags only the bad document",
			entries: []ledger.Entry{
				entry(invoice, ledger.StatusOK, ledger.StatusOK, true),
				entry(extra, ledger.StatusOK, ledger.StatusMissing, true),
			},
			receiverDone: true,
			want:         []document.Ref{extra},
		},
		{
			name:         "empty ledger is clean",
			entries:      nil,
			receiverDone: true,
			want:         nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.entries, tt.receiverDone)
			assert.Equal(t, tt.want, got.Discrepant)
			assert.Equal(t, len(tt.want) > 0, got.HasDiscrepancies)
		})
	}
}
