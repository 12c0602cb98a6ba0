// Package document defines the closed reference type for the two document
// kinds a distribution can carry, and the resolver that validates references
// against the authoritative document store.
package document

import (
	"fmt"

	id "distrack/pkg/domain"
	dErrors "distrack/pkg/domain-errors"
)

// Kind discriminates the tagged union of attachable documents. The set is
// closed: the workflow matches exhaustively on it.
type Kind string

const (
	KindInvoice            Kind = "invoice"
	KindAdditionalDocument Kind = "additional_document"
)

// ParseKind validates a wire-level kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindInvoice, KindAdditionalDocument:
		return Kind(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown document kind %q", s)
	}
}

// Ref is a typed reference to a document attached to a distribution. Two refs
// are equal iff kind and id match; Ref is comparable so it can key maps.
type Ref struct {
	Kind Kind
	ID   id.DocumentID
}

// Key renders a stable composite key, used for ledger keying and logging.
func (r Ref) Key() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

func (r Ref) String() string { return r.Key() }
