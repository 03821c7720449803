// Package repomanager provides a factory for SQL-backed repositories so
// services can obtain them bound either to the pool or to a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/dbx"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/repositories/accounts"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/repositories/sessions"
)

// RepositoryManager hands out repositories bound to the given DBTX
// (*sql.DB for plain calls, *sql.Tx inside dbx.WithTx).
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
