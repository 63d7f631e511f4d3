package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle via `tx`. Keeps use-case
// interfaces clean of transaction types; the concrete type of `tx` is
// infra-defined (pgx.Tx for Postgres). Repositories MUST gracefully accept
// a nil handle (non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
