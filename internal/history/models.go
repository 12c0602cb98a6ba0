// Package history is the append-only trail of everything that happened to a
// distribution: every transition and every verification call, with actor and
// timestamp. Entries are never mutated or deleted; the hard delete of a draft
// distribution copies its trail to the notification sink first.
package history

import (
	"time"

	id "distrack/pkg/domain"
)

// Action names what happened. One entry per transition and per verification
// call (batched per request, not per document).
type Action string

const (
	ActionCreated           Action = "created"
	ActionDocumentsAttached Action = "documents_attached"
	ActionDocumentsDetached Action = "documents_detached"

	// Recorded actions cover partial verification batches saved before the
	// matching transition fires.
	ActionSenderVerificationRecorded   Action = "sender_verification_recorded"
	ActionReceiverVerificationRecorded Action = "receiver_verification_recorded"

	ActionSenderVerified    Action = "sender_verified"
	ActionSent              Action = "sent"
	ActionReceived          Action = "received"
	ActionReceiverVerified  Action = "receiver_verified"
	ActionCompleted         Action = "completed"
	ActionDeleted           Action = "deleted"
)

// Entry is one append-only history record.
type Entry struct {
	DistributionID id.DistributionID
	Action         Action
	ActorID        id.UserID
	OccurredAt     time.Time
	Detail         string
}
