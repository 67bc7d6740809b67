package store

import "database/sql"

// querier is satisfied by *sql.DB and *sql.Tx. Stores normally run against
// the DB; multi-entity operations bind them to one transaction via WithTx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}
