package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"wallet-flows/internal/domain"
	"wallet-flows/internal/domain/model"
	"wallet-flows/internal/domain/ports/repository"
)

var _ repository.LoginAttemptRepository = (*loginAttemptRepo)(nil)

type loginAttemptRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewLoginAttemptRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *loginAttemptRepo {
	return &loginAttemptRepo{pool: pool, tm: tm}
}

// Record writes the audit row and the per-wallet failure aggregate in one
// transaction, so the aggregate can never drift from the trail.
func (r *loginAttemptRepo) Record(ctx context.Context, attempt *model.LoginAttempt) error {
	if attempt == nil {
		return domain.ErrInvalidArgument
	}
	return r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const insert = `
INSERT INTO login_attempts (id, wallet_guid, outcome, two_fa_type, created_at)
VALUES ($1,$2,$3,$4,$5);`
		if _, err := execSQL(ctx, r.pool, tx, insert, attempt.ID, attempt.WalletGUID, attempt.Outcome, attempt.TwoFAType, attempt.CreatedAt); err != nil {
			if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
				return err
			}
			return domain.ErrOperationFailed
		}

		const upsert = `
INSERT INTO login_attempt_stats (wallet_guid, consecutive_failures, last_outcome, updated_at)
VALUES ($1, CASE WHEN $2 = 'succeeded' THEN 0 ELSE 1 END, $2, $3)
ON CONFLICT (wallet_guid) DO UPDATE SET
  consecutive_failures = CASE WHEN $2 = 'succeeded' THEN 0 ELSE login_attempt_stats.consecutive_failures + 1 END,
  last_outcome = $2,
  updated_at = $3;`
		if _, err := execSQL(ctx, r.pool, tx, upsert, attempt.WalletGUID, attempt.Outcome, attempt.CreatedAt); err != nil {
			if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
				return err
			}
			return domain.ErrOperationFailed
		}
		return nil
	})
}

func (r *loginAttemptRepo) CountFailuresSince(ctx context.Context, walletGUID string, since time.Time) (int, error) {
	const q = `
SELECT COUNT(*) FROM login_attempts
WHERE wallet_guid = $1 AND outcome <> 'succeeded' AND created_at >= $2;`
	row, err := pickRow(ctx, r.pool, nil, q, walletGUID, since)
	if err != nil {
		return 0, err
	}
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return count, nil
}

// PruneOlderThan drops audit rows past the retention window.
func (r *loginAttemptRepo) PruneOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	const q = `DELETE FROM login_attempts WHERE created_at < $1;`
	cmd, err := execSQL(ctx, r.pool, nil, q, time.Now().Add(-retention))
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return int(cmd.RowsAffected()), nil
}
