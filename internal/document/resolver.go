package document

import (
	"context"

	id "distrack/pkg/domain"
	dErrors "distrack/pkg/domain-errors"
)

// Store is the authoritative document collaborator. The resolver does not own
// document records; it only asks whether a reference points at a real one.
type Store interface {
	Exists(ctx context.Context, kind Kind, docID id.DocumentID) (bool, error)
}

// Resolver turns (kind, id) pairs into validated Refs.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve validates the kind and confirms the document exists. Unresolvable
// references surface as CodeNotFound so callers can distinguish a bad
// reference from an infrastructure failure.
func (r *Resolver) Resolve(ctx context.Context, kind Kind, docID id.DocumentID) (Ref, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return Ref{}, err
	}
	if docID.IsNil() {
		return Ref{}, dErrors.New(dErrors.CodeValidation, "document id must not be nil")
	}
	exists, err := r.store.Exists(ctx, kind, docID)
	if err != nil {
		return Ref{}, dErrors.Wrap(err, dErrors.CodeInternal, "resolve document reference")
	}
	if !exists {
		return Ref{}, dErrors.Newf(dErrors.CodeNotFound, "%s %s does not exist", kind, docID)
	}
	return Ref{Kind: kind, ID: docID}, nil
}
