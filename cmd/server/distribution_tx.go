package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "distrack/pkg/domain-errors"
	txcontext "distrack/pkg/platform/tx"
)

const defaultDistributionTxTimeout = 5 * time.Second

// distributionPostgresTx runs one workflow operation inside a SQL
// transaction. The transaction travels through the context so every store the
// closure touches joins it; the distribution row's version column does the
// per-distribution serialization.
type distributionPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newDistributionPostgresTx(db *sql.DB, timeout time.Duration) *distributionPostgresTx {
	return &distributionPostgresTx{db: db, timeout: timeout}
}

func (t *distributionPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultDistributionTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	return tx.Commit()
}
