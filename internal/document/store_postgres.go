package document

import (
	"context"
	"fmt"

	id "distrack/pkg/domain"
	txcontext "distrack/pkg/platform/tx"
)

// PostgresStore checks references against the portal's document tables.
type PostgresStore struct {
	db txcontext.Querier
}

func NewPostgresStore(db txcontext.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// table maps a kind to its authoritative table. The kind set is closed, so
// this switch is exhaustive.
func table(kind Kind) string {
	switch kind {
	case KindInvoice:
		return "invoices"
	default:
		return "additional_documents"
	}
}

func (s *PostgresStore) Exists(ctx context.Context, kind Kind, docID id.DocumentID) (bool, error) {
	q := txcontext.Resolve(ctx, s.db)
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table(kind))
	if err := q.QueryRowContext(ctx, query, docID.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("query %s existence: %w", kind, err)
	}
	return exists, nil
}
