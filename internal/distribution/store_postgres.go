package distribution

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

// PostgresStore persists distributions in the distributions and
// distribution_documents tables. Mutations run under the caller's context
// transaction; the version column backs the optimistic lock that serializes
// transitions on one distribution.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) q(ctx context.Context) txcontext.Querier {
	return txcontext.Resolve(ctx, s.db)
}

func (s *PostgresStore) Create(ctx context.Context, dist *Distribution) error {
	dist.Version = 1
	query := `
		INSERT INTO distributions (
			id, number, type_id, origin_id, destination_id, status,
			has_discrepancies, created_by, version, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(dist.ID),
		dist.Number,
		uuid.UUID(dist.TypeID),
		uuid.UUID(dist.OriginID),
		uuid.UUID(dist.DestinationID),
		string(dist.Status),
		dist.HasDiscrepancies,
		uuid.UUID(dist.CreatedBy),
		dist.Version,
		dist.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert distribution: %w", err)
	}
	return s.replaceDocuments(ctx, dist)
}

func (s *PostgresStore) FindByID(ctx context.Context, distID id.DistributionID) (*Distribution, error) {
	query := `
		SELECT id, number, type_id, origin_id, destination_id, status,
		       has_discrepancies, created_by, version, created_at,
		       sender_verified_at, sent_at, received_at, receiver_verified_at, completed_at
		FROM distributions
		WHERE id = $1
	`
	dist, err := scanDistribution(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(distID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("distribution %s: %w", distID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("query distribution: %w", err)
	}
	if err := s.loadDocuments(ctx, dist); err != nil {
		return nil, err
	}
	return dist, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*Distribution, error) {
	query := `
		SELECT id, number, type_id, origin_id, destination_id, status,
		       has_discrepancies, created_by, version, created_at,
		       sender_verified_at, sent_at, received_at, receiver_verified_at, completed_at
		FROM distributions
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::uuid IS NULL OR origin_id = $2 OR destination_id = $2)
		ORDER BY created_at ASC
	`
	var statusArg any
	if filter.Status != nil {
		statusArg = string(*filter.Status)
	}
	var deptArg any
	if filter.Department != nil {
		deptArg = uuid.UUID(*filter.Department)
	}

	rows, err := s.q(ctx).QueryContext(ctx, query, statusArg, deptArg)
	if err != nil {
		return nil, fmt.Errorf("query distributions: %w", err)
	}
	defer rows.Close()

	var out []*Distribution
	for rows.Next() {
		dist, err := scanDistribution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan distribution: %w", err)
		}
		out = append(out, dist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distributions: %w", err)
	}
	for _, dist := range out {
		if err := s.loadDocuments(ctx, dist); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, dist *Distribution) error {
	query := `
		UPDATE distributions
		SET status = $3,
		    has_discrepancies = $4,
		    sender_verified_at = $5,
		    sent_at = $6,
		    received_at = $7,
		    receiver_verified_at = $8,
		    completed_at = $9,
		    version = version + 1
		WHERE id = $1 AND version = $2
	`
	res, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(dist.ID),
		dist.Version,
		string(dist.Status),
		dist.HasDiscrepancies,
		dist.SenderVerifiedAt,
		dist.SentAt,
		dist.ReceivedAt,
		dist.ReceiverVerifiedAt,
		dist.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update distribution: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update distribution: %w", err)
	}
	if affected == 0 {
		// Distinguish a lost race from a vanished row.
		var exists bool
		err := s.q(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM distributions WHERE id = $1)`, uuid.UUID(dist.ID),
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("update distribution: %w", err)
		}
		if !exists {
			return fmt.Errorf("distribution %s: %w", dist.ID, sentinel.ErrNotFound)
		}
		return fmt.Errorf("distribution %s version %d: %w", dist.ID, dist.Version, sentinel.ErrConflict)
	}
	dist.Version++
	return s.replaceDocuments(ctx, dist)
}

func (s *PostgresStore) Delete(ctx context.Context, distID id.DistributionID) error {
	if _, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM distribution_documents WHERE distribution_id = $1`, uuid.UUID(distID)); err != nil {
		return fmt.Errorf("delete distribution documents: %w", err)
	}
	res, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM distributions WHERE id = $1`, uuid.UUID(distID))
	if err != nil {
		return fmt.Errorf("delete distribution: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete distribution: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("distribution %s: %w", distID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) replaceDocuments(ctx context.Context, dist *Distribution) error {
	if _, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM distribution_documents WHERE distribution_id = $1`, uuid.UUID(dist.ID)); err != nil {
		return fmt.Errorf("clear distribution documents: %w", err)
	}
	query := `
		INSERT INTO distribution_documents (distribution_id, doc_kind, doc_id, position)
		VALUES ($1, $2, $3, $4)
	`
	for pos, ref := range dist.Documents {
		if _, err := s.q(ctx).ExecContext(ctx, query,
			uuid.UUID(dist.ID), string(ref.Kind), uuid.UUID(ref.ID), pos); err != nil {
			return fmt.Errorf("insert distribution document: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) loadDocuments(ctx context.Context, dist *Distribution) error {
	query := `
		SELECT doc_kind, doc_id
		FROM distribution_documents
		WHERE distribution_id = $1
		ORDER BY position ASC
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(dist.ID))
	if err != nil {
		return fmt.Errorf("query distribution documents: %w", err)
	}
	defer rows.Close()

	dist.Documents = nil
	for rows.Next() {
		var (
			kind  string
			docID uuid.UUID
		)
		if err := rows.Scan(&kind, &docID); err != nil {
			return fmt.Errorf("scan distribution document: %w", err)
		}
		dist.Documents = append(dist.Documents, document.Ref{
			Kind: document.Kind(kind),
			ID:   id.DocumentID(docID),
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate distribution documents: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDistribution(row rowScanner) (*Distribution, error) {
	var (
		dist                                   Distribution
		distID, typeID, origin, dest, creator  uuid.UUID
		status                                 string
		senderAt, sentAt, recvAt, rvAt, doneAt sql.NullTime
	)
	err := row.Scan(
		&distID, &dist.Number, &typeID, &origin, &dest, &status,
		&dist.HasDiscrepancies, &creator, &dist.Version, &dist.CreatedAt,
		&senderAt, &sentAt, &recvAt, &rvAt, &doneAt,
	)
	if err != nil {
		return nil, err
	}
	dist.ID = id.DistributionID(distID)
	dist.TypeID = id.TypeID(typeID)
	dist.OriginID = id.DepartmentID(origin)
	dist.DestinationID = id.DepartmentID(dest)
	dist.CreatedBy = id.UserID(creator)
	dist.Status = Status(status)
	dist.SenderVerifiedAt = nullableTime(senderAt)
	dist.SentAt = nullableTime(sentAt)
	dist.ReceivedAt = nullableTime(recvAt)
	dist.ReceiverVerifiedAt = nullableTime(rvAt)
	dist.CompletedAt = nullableTime(doneAt)
	return &dist, nil
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

// PostgresTypeStore reads distribution types from the distribution_types
// table maintained by the reference-data service.
type PostgresTypeStore struct {
	db *sql.DB
}

func NewPostgresTypeStore(db *sql.DB) *PostgresTypeStore {
	return &PostgresTypeStore{db: db}
}

func (s *PostgresTypeStore) FindByID(ctx context.Context, typeID id.TypeID) (*Type, error) {
	query := `
		SELECT id, code, name, priority, color
		FROM distribution_types
		WHERE id = $1
	`
	var (
		t   Type
		tid uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(typeID)).Scan(&tid, &t.Code, &t.Name, &t.Priority, &t.Color)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("distribution type %s: %w", typeID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("query distribution type: %w", err)
	}
	t.ID = id.TypeID(tid)
	return &t, nil
}
