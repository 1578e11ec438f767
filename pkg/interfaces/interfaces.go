package interfaces

import "github.com/jackc/pgx/v5"

type UoW interface {
	Begin() (pgx.Tx, error)
	GetTx() pgx.Tx
	Commit() error
	Rollback() error
}
