package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "distrack/pkg/domain"
	txcontext "distrack/pkg/platform/tx"
)

// PostgresStore persists history entries in the distribution_history table.
// The table carries no UPDATE or DELETE path; rows only accumulate.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) q(ctx context.Context) txcontext.Querier {
	return txcontext.Resolve(ctx, s.db)
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO distribution_history (id, distribution_id, action, actor_id, occurred_at, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.New(),
		uuid.UUID(entry.DistributionID),
		string(entry.Action),
		uuid.UUID(entry.ActorID),
		entry.OccurredAt,
		entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Purge(ctx context.Context, distID id.DistributionID) error {
	query := `DELETE FROM distribution_history WHERE distribution_id = $1`
	if _, err := s.q(ctx).ExecContext(ctx, query, uuid.UUID(distID)); err != nil {
		return fmt.Errorf("purge history entries: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, distID id.DistributionID) ([]Entry, error) {
	query := `
		SELECT action, actor_id, occurred_at, detail
		FROM distribution_history
		WHERE distribution_id = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(distID))
	if err != nil {
		return nil, fmt.Errorf("query history entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry   Entry
			action  string
			actorID uuid.UUID
		)
		if err := rows.Scan(&action, &actorID, &entry.OccurredAt, &entry.Detail); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entry.DistributionID = distID
		entry.Action = Action(action)
		entry.ActorID = id.UserID(actorID)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history entries: %w", err)
	}
	return entries, nil
}
