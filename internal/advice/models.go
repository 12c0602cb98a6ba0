// Package advice produces the transmittal advice: the immutable snapshot of
// a distribution captured at send time, used as the legal hand-off record.
// Repeated reads return the stored snapshot, never a recomputation from live
// data, so the printed advice always matches what was handed over.
package advice

import (
	"context"
	"time"

	"distrack/internal/distribution"
	"distrack/internal/document"
	"distrack/internal/ledger"
	id "distrack/pkg/domain"
)

// Document is one line of the advice: the reference plus the sender's
// verified condition at send time.
type Document struct {
	Kind         document.Kind `json:"kind"`
	DocumentID   string        `json:"document_id"`
	SenderStatus ledger.Status `json:"sender_status"`
	Notes        string        `json:"notes,omitempty"`
}

// Advice is the send-time snapshot of a distribution.
type Advice struct {
	DistributionID string     `json:"distribution_id"`
	Number         string     `json:"number"`
	TypeCode       string     `json:"type_code"`
	TypeName       string     `json:"type_name"`
	OriginID       string     `json:"origin_id"`
	DestinationID  string     `json:"destination_id"`
	Documents      []Document `json:"documents"`
	GeneratedAt    time.Time  `json:"generated_at"`
}

// Build projects a distribution and its ledger into an advice. Pure; the
// caller persists the result inside the send transaction.
func Build(dist *distribution.Distribution, typ *distribution.Type, entries []ledger.Entry, at time.Time) Advice {
	byRef := make(map[document.Ref]ledger.Entry, len(entries))
	for _, e := range entries {
		byRef[e.Ref] = e
	}

	docs := make([]Document, 0, len(dist.Documents))
	for _, ref := range dist.Documents {
		doc := Document{Kind: ref.Kind, DocumentID: ref.ID.String()}
		if entry, ok := byRef[ref]; ok && entry.Sender.Verified {
			doc.SenderStatus = entry.Sender.Status
			doc.Notes = entry.Sender.Notes
		}
		docs = append(docs, doc)
	}

	return Advice{
		DistributionID: dist.ID.String(),
		Number:         dist.Number,
		TypeCode:       typ.Code,
		TypeName:       typ.Name,
		OriginID:       dist.OriginID.String(),
		DestinationID:  dist.DestinationID.String(),
		Documents:      docs,
		GeneratedAt:    at,
	}
}

// Store persists advices. Save runs inside the send transaction;
// FindByDistribution returns sentinel.ErrNotFound (wrapped) when no advice
// has been generated yet.
type Store interface {
	Save(ctx context.Context, adv Advice) error
	FindByDistribution(ctx context.Context, distID id.DistributionID) (Advice, error)
}
