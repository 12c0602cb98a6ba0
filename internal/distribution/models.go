// Package distribution holds the Distribution aggregate: a tracked hand-off
// of a document bundle from an origin department to a destination department.
// The status field is owned by the state machine in the service subpackage;
// nothing else writes it.
package distribution

import (
	"time"

	"distrack/internal/document"
	id "distrack/pkg/domain"
)

// Status is the lifecycle state of a distribution.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusVerifiedSender   Status = "verified_sender"
	StatusSent             Status = "sent"
	StatusReceived         Status = "received"
	StatusVerifiedReceiver Status = "verified_receiver"
	StatusCompleted        Status = "completed"
)

// next maps each status to its single legal successor. Draft additionally
// permits deletion, which is handled separately because it destroys the row.
var next = map[Status]Status{
	StatusDraft:            StatusVerifiedSender,
	StatusVerifiedSender:   StatusSent,
	StatusSent:             StatusReceived,
	StatusReceived:         StatusVerifiedReceiver,
	StatusVerifiedReceiver: StatusCompleted,
}

// CanAdvanceTo reports whether target is the legal successor of s. Any other
// jump, including re-entering the current status, is an invalid transition.
func (s Status) CanAdvanceTo(target Status) bool {
	return next[s] == target
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	_, ok := next[s]
	return !ok
}

// Type is the reference data a distribution is classified by. The code is a
// single character used as the distribution number prefix. Types are managed
// by an external CRUD surface; the core only reads them.
type Type struct {
	ID       id.TypeID
	Code     string
	Name     string
	Priority int    // 1 (highest) to 10
	Color    string // hex RGB, e.g. "#1b6fc2"
}

// Distribution is the aggregate root. Documents is the ordered set of unique
// attached references; Version backs the optimistic lock on the row.
//
// Lifecycle timestamps are each set exactly once, by the matching transition,
// and never cleared. They are monotonically non-decreasing in declaration
// order; a timestamp is non-nil iff its transition has occurred.
type Distribution struct {
	ID               id.DistributionID
	Number           string
	TypeID           id.TypeID
	OriginID         id.DepartmentID
	DestinationID    id.DepartmentID
	Status           Status
	HasDiscrepancies bool
	CreatedBy        id.UserID
	Version          int
	Documents        []document.Ref

	CreatedAt          time.Time
	SenderVerifiedAt   *time.Time
	SentAt             *time.Time
	ReceivedAt         *time.Time
	ReceiverVerifiedAt *time.Time
	CompletedAt        *time.Time
}

// HasDocument reports whether ref is currently attached.
func (d *Distribution) HasDocument(ref document.Ref) bool {
	for _, attached := range d.Documents {
		if attached == ref {
			return true
		}
	}
	return false
}
