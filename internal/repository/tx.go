package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/agristore/storefront-api/internal/database"
)

// asSqlxTx unwraps the transaction handle handed down by the service layer.
// Production code always passes the *sqlx.Tx created by database.BeginTx;
// test doubles never reach a real repository.
func asSqlxTx(tx database.Tx) (*sqlx.Tx, error) {
	sqlTx, ok := tx.(*sqlx.Tx)

	if !ok {
		return nil, fmt.Errorf("%w: unexpected transaction type %T", ErrDatabase, tx)
	}

	return sqlTx, nil
}
