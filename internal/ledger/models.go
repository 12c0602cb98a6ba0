// Package ledger keeps the per-distribution, per-document verification
// record. Sender and receiver sides are independent sub-records; each side is
// merged last-write-wins per document.
package ledger

import (
	"time"

	"distrack/internal/document"
	id "distrack/pkg/domain"
	dErrors "distrack/pkg/domain-errors"
)

// Status is the physical condition a verifier asserts for a document.
type Status string

const (
	StatusOK      Status = "ok"
	StatusMissing Status = "missing"
	StatusDamaged Status = "damaged"
)

// ParseStatus validates a wire-level verification status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOK, StatusMissing, StatusDamaged:
		return Status(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown verification status %q", s)
	}
}

// Side identifies which party recorded a verification.
type Side string

const (
	SideSender   Side = "sender"
	SideReceiver Side = "receiver"
)

// SideRecord is one party's verification of one document.
type SideRecord struct {
	Verified   bool
	Status     Status
	Notes      string
	VerifiedAt time.Time
	VerifiedBy id.UserID
}

// Entry is the ledger row for one attached document. Position preserves the
// attach order so reads come back in the order the bundle was assembled.
type Entry struct {
	DistributionID id.DistributionID
	Ref            document.Ref
	Position       int
	Sender         SideRecord
	Receiver       SideRecord
}

// Item is one document's verification input within a batch call.
type Item struct {
	Ref    document.Ref
	Status Status
	Notes  string
}

// Summary aggregates ledger progress after a verification call.
type Summary struct {
	Documents        int
	SenderVerified   int
	ReceiverVerified int
}

// Summarize computes verification progress over a distribution's entries.
func Summarize(entries []Entry) Summary {
	s := Summary{Documents: len(entries)}
	for _, e := range entries {
		if e.Sender.Verified {
			s.SenderVerified++
		}
		if e.Receiver.Verified {
			s.ReceiverVerified++
		}
	}
	return s
}
