package httptransport

import (
	"time"

	"distrack/internal/discrepancy"
	"distrack/internal/distribution"
	"distrack/internal/history"
	"distrack/internal/ledger"
)

type distributionResponse struct {
	ID               string   `json:"id"`
	Number           string   `json:"number"`
	TypeID           string   `json:"type_id"`
	OriginID         string   `json:"origin_id"`
	DestinationID    string   `json:"destination_id"`
	Status           string   `json:"status"`
	HasDiscrepancies bool     `json:"has_discrepancies"`
	CreatedBy        string   `json:"created_by"`
	Documents        []docRef `json:"documents"`

	CreatedAt          time.Time  `json:"created_at"`
	SenderVerifiedAt   *time.Time `json:"sender_verified_at,omitempty"`
	SentAt             *time.Time `json:"sent_at,omitempty"`
	ReceivedAt         *time.Time `json:"received_at,omitempty"`
	ReceiverVerifiedAt *time.Time `json:"receiver_verified_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

type docRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

func toDistributionResponse(d *distribution.Distribution) distributionResponse {
	docs := make([]docRef, 0, len(d.Documents))
	for _, ref := range d.Documents {
		docs = append(docs, docRef{Kind: string(ref.Kind), ID: ref.ID.String()})
	}
	return distributionResponse{
		ID:                 d.ID.String(),
		Number:             d.Number,
		TypeID:             d.TypeID.String(),
		OriginID:           d.OriginID.String(),
		DestinationID:      d.DestinationID.String(),
		Status:             string(d.Status),
		HasDiscrepancies:   d.HasDiscrepancies,
		CreatedBy:          d.CreatedBy.String(),
		Documents:          docs,
		CreatedAt:          d.CreatedAt,
		SenderVerifiedAt:   d.SenderVerifiedAt,
		SentAt:             d.SentAt,
		ReceivedAt:         d.ReceivedAt,
		ReceiverVerifiedAt: d.ReceiverVerifiedAt,
		CompletedAt:        d.CompletedAt,
	}
}

type listResponse struct {
	Distributions []distributionResponse `json:"distributions"`
}

type sideRecordResponse struct {
	Verified   bool       `json:"verified"`
	Status     string     `json:"status,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	VerifiedBy string     `json:"verified_by,omitempty"`
}

type entryResponse struct {
	Document docRef             `json:"document"`
	Sender   sideRecordResponse `json:"sender"`
	Receiver sideRecordResponse `json:"receiver"`
}

func toSideRecordResponse(rec ledger.SideRecord) sideRecordResponse {
	out := sideRecordResponse{Verified: rec.Verified}
	if rec.Verified {
		out.Status = string(rec.Status)
		out.Notes = rec.Notes
		at := rec.VerifiedAt
		out.VerifiedAt = &at
		out.VerifiedBy = rec.VerifiedBy.String()
	}
	return out
}

type entriesResponse struct {
	Entries          []entryResponse `json:"entries"`
	Documents        int             `json:"documents"`
	SenderVerified   int             `json:"sender_verified"`
	ReceiverVerified int             `json:"receiver_verified"`
}

func toEntriesResponse(entries []ledger.Entry) entriesResponse {
	summary := ledger.Summarize(entries)
	out := entriesResponse{
		Entries:          make([]entryResponse, 0, len(entries)),
		Documents:        summary.Documents,
		SenderVerified:   summary.SenderVerified,
		ReceiverVerified: summary.ReceiverVerified,
	}
	for _, entry := range entries {
		out.Entries = append(out.Entries, entryResponse{
			Document: docRef{Kind: string(entry.Ref.Kind), ID: entry.Ref.ID.String()},
			Sender:   toSideRecordResponse(entry.Sender),
			Receiver: toSideRecordResponse(entry.Receiver),
		})
	}
	return out
}

type summaryResponse struct {
	Documents        int `json:"documents"`
	SenderVerified   int `json:"sender_verified"`
	ReceiverVerified int `json:"receiver_verified"`
}

func toSummaryResponse(s ledger.Summary) summaryResponse {
	return summaryResponse{
		Documents:        s.Documents,
		SenderVerified:   s.SenderVerified,
		ReceiverVerified: s.ReceiverVerified,
	}
}

type historyEntryResponse struct {
	Action     string    `json:"action"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Detail     string    `json:"detail,omitempty"`
}

type historyResponse struct {
	Entries []historyEntryResponse `json:"entries"`
}

func toHistoryResponse(entries []history.Entry) historyResponse {
	out := historyResponse{Entries: make([]historyEntryResponse, 0, len(entries))}
	for _, entry := range entries {
		out.Entries = append(out.Entries, historyEntryResponse{
			Action:     string(entry.Action),
			ActorID:    entry.ActorID.String(),
			OccurredAt: entry.OccurredAt,
			Detail:     entry.Detail,
		})
	}
	return out
}

type discrepancyResponse struct {
	HasDiscrepancies bool     `json:"has_discrepancies"`
	Discrepant       []docRef `json:"discrepant"`
}

func toDiscrepancyResponse(result discrepancy.Result) discrepancyResponse {
	out := discrepancyResponse{
		HasDiscrepancies: result.HasDiscrepancies,
		Discrepant:       make([]docRef, 0, len(result.Discrepant)),
	}
	for _, ref := range result.Discrepant {
		out.Discrepant = append(out.Discrepant, docRef{Kind: string(ref.Kind), ID: ref.ID.String()})
	}
	return out
}
