package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"distrack/internal/document"
	id "distrack/pkg/domain"
	"distrack/pkg/platform/sentinel"
	txcontext "distrack/pkg/platform/tx"
)

// PostgresStore persists verification entries in the verification_entries
// table. All mutations go through the caller's transaction when one is in
// context, which is how the state machine keeps ledger writes atomic with
// status changes.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) q(ctx context.Context) txcontext.Querier {
	return txcontext.Resolve(ctx, s.db)
}

func (s *PostgresStore) Ensure(ctx context.Context, distID id.DistributionID, ref document.Ref, position int) error {
	query := `
		INSERT INTO verification_entries (distribution_id, doc_kind, doc_id, position)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.q(ctx).ExecContext(ctx, query, uuid.UUID(distID), string(ref.Kind), uuid.UUID(ref.ID), position)
	if err != nil {
		return fmt.Errorf("insert verification entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, distID id.DistributionID, ref document.Ref) error {
	query := `
		DELETE FROM verification_entries
		WHERE distribution_id = $1 AND doc_kind = $2 AND doc_id = $3
	`
	res, err := s.q(ctx).ExecContext(ctx, query, uuid.UUID(distID), string(ref.Kind), uuid.UUID(ref.ID))
	if err != nil {
		return fmt.Errorf("delete verification entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete verification entry: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("entry for %s: %w", ref, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) RemoveByDistribution(ctx context.Context, distID id.DistributionID) error {
	query := `DELETE FROM verification_entries WHERE distribution_id = $1`
	if _, err := s.q(ctx).ExecContext(ctx, query, uuid.UUID(distID)); err != nil {
		return fmt.Errorf("delete verification entries: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordSide(ctx context.Context, distID id.DistributionID, side Side, items []Item, actor id.UserID, at time.Time) error {
	var query string
	switch side {
	case SideSender:
		query = `
			UPDATE verification_entries
			SET sender_verified = TRUE,
			    sender_status = $4,
			    sender_notes = $5,
			    sender_verified_at = $6,
			    sender_verified_by = $7
			WHERE distribution_id = $1 AND doc_kind = $2 AND doc_id = $3
		`
	case SideReceiver:
		query = `
			UPDATE verification_entries
			SET receiver_verified = TRUE,
			    receiver_status = $4,
			    receiver_notes = $5,
			    receiver_verified_at = $6,
			    receiver_verified_by = $7
			WHERE distribution_id = $1 AND doc_kind = $2 AND doc_id = $3
		`
	default:
		return fmt.Errorf("unknown ledger side %q: %w", side, sentinel.ErrInvalidState)
	}

	for _, item := range items {
		res, err := s.q(ctx).ExecContext(ctx, query,
			uuid.UUID(distID),
			string(item.Ref.Kind),
			uuid.UUID(item.Ref.ID),
			string(item.Status),
			item.Notes,
			at,
			uuid.UUID(actor),
		)
		if err != nil {
			return fmt.Errorf("record %s verification: %w", side, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("record %s verification: %w", side, err)
		}
		if affected == 0 {
			// Rolls back the whole batch via the surrounding transaction.
			return fmt.Errorf("entry for %s: %w", item.Ref, sentinel.ErrNotFound)
		}
	}
	return nil
}

func (s *PostgresStore) ListByDistribution(ctx context.Context, distID id.DistributionID) ([]Entry, error) {
	query := `
		SELECT doc_kind, doc_id, position,
		       sender_verified, sender_status, sender_notes, sender_verified_at, sender_verified_by,
		       receiver_verified, receiver_status, receiver_notes, receiver_verified_at, receiver_verified_by
		FROM verification_entries
		WHERE distribution_id = $1
		ORDER BY position ASC
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(distID))
	if err != nil {
		return nil, fmt.Errorf("query verification entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry    Entry
			kind     string
			docID    uuid.UUID
			sender   sideColumns
			receiver sideColumns
		)
		err := rows.Scan(
			&kind, &docID, &entry.Position,
			&sender.verified, &sender.status, &sender.notes, &sender.verifiedAt, &sender.verifiedBy,
			&receiver.verified, &receiver.status, &receiver.notes, &receiver.verifiedAt, &receiver.verifiedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("scan verification entry: %w", err)
		}
		entry.DistributionID = distID
		entry.Ref = document.Ref{Kind: document.Kind(kind), ID: id.DocumentID(docID)}
		entry.Sender = sender.toRecord()
		entry.Receiver = receiver.toRecord()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification entries: %w", err)
	}
	return entries, nil
}

// sideColumns holds the nullable columns of one verification side.
type sideColumns struct {
	verified   bool
	status     sql.NullString
	notes      sql.NullString
	verifiedAt sql.NullTime
	verifiedBy *uuid.UUID
}

func (c sideColumns) toRecord() SideRecord {
	record := SideRecord{
		Verified: c.verified,
		Status:   Status(c.status.String),
		Notes:    c.notes.String,
	}
	if c.verifiedAt.Valid {
		record.VerifiedAt = c.verifiedAt.Time
	}
	if c.verifiedBy != nil {
		record.VerifiedBy = id.UserID(*c.verifiedBy)
	}
	return record
}
