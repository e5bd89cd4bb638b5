package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Alturino/checkout/internal/constants"
)

type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// ExecTx runs fn inside one transaction. The transaction commits only when
// fn returns nil and is rolled back on any error.
func ExecTx(
	c context.Context,
	db TxBeginner,
	opts pgx.TxOptions,
	fn func(*Queries) error,
) (err error) {
	logger := zerolog.Ctx(c).With().Str(constants.KeyTag, "repository ExecTx").Logger()

	logger = logger.With().Str(constants.KeyProcess, "initializing transaction").Logger()
	logger.Trace().Msg("initializing transaction")
	tx, err := db.BeginTx(c, opts)
	if err != nil {
		return fmt.Errorf("failed initializing transaction with error=%w", err)
	}
	logger.Trace().Msg("initialized transaction")
	defer func() {
		logger := logger.With().Str(constants.KeyProcess, "rolling back transaction").Logger()
		rollbackErr := tx.Rollback(c)
		if rollbackErr != nil {
			if errors.Is(rollbackErr, pgx.ErrTxClosed) {
				return
			}
			rollbackErr = fmt.Errorf("failed rolling back transaction with error=%w", rollbackErr)
			logger.Error().Err(rollbackErr).Msg(rollbackErr.Error())
			err = errors.Join(err, rollbackErr)
			return
		}
		logger.Trace().Msg("rolled back transaction")
	}()

	if err = fn(New(tx)); err != nil {
		return err
	}

	logger = logger.With().Str(constants.KeyProcess, "committing transaction").Logger()
	logger.Trace().Msg("committing transaction")
	if err = tx.Commit(c); err != nil {
		return fmt.Errorf("failed committing transaction with error=%w", err)
	}
	logger.Trace().Msg("committed transaction")
	return nil
}
