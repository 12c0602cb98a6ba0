package advice

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "distrack/pkg/domain"
	"distrack/pkg/platform/sentinel"
	txcontext "distrack/pkg/platform/tx"
)

// PostgresStore persists advices as JSON snapshots in transmittal_advices.
// The payload column is written once at send time and never updated, which
// is what makes the advice a trustworthy hand-off record.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) q(ctx context.Context) txcontext.Querier {
	return txcontext.Resolve(ctx, s.db)
}

func (s *PostgresStore) Save(ctx context.Context, adv Advice) error {
	payload, err := json.Marshal(adv)
	if err != nil {
		return fmt.Errorf("marshal advice: %w", err)
	}
	distID, err := uuid.Parse(adv.DistributionID)
	if err != nil {
		return fmt.Errorf("parse advice distribution id: %w", err)
	}
	query := `
		INSERT INTO transmittal_advices (distribution_id, number, generated_at, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (distribution_id) DO NOTHING
	`
	res, err := s.q(ctx).ExecContext(ctx, query, distID, adv.Number, adv.GeneratedAt, payload)
	if err != nil {
		return fmt.Errorf("insert advice: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert advice: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("advice for distribution %s already generated: %w", adv.DistributionID, sentinel.ErrConflict)
	}
	return nil
}

func (s *PostgresStore) FindByDistribution(ctx context.Context, distID id.DistributionID) (Advice, error) {
	var payload []byte
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT payload FROM transmittal_advices WHERE distribution_id = $1`, uuid.UUID(distID),
	).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return Advice{}, fmt.Errorf("advice for distribution %s: %w", distID, sentinel.ErrNotFound)
		}
		return Advice{}, fmt.Errorf("query advice: %w", err)
	}
	var adv Advice
	if err := json.Unmarshal(payload, &adv); err != nil {
		return Advice{}, fmt.Errorf("unmarshal advice: %w", err)
	}
	return adv, nil
}
