package repomanager

import (
	"context"
	"database/sql"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/dbx"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/migrations"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/repositories/accounts"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/repositories/sessions"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager is a stateless factory for the Postgres
// repository implementations.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager constructs the factory.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

// RunMigrations applies the embedded goose migrations to the database.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
