package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/common"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/dbx"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, session *models.RefreshSession) error {
	query := `
		INSERT INTO refresh_sessions (id, account_id, token, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query,
		session.ID, session.AccountID, session.Token, session.ExpiresAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindValid(ctx context.Context, token string) (*models.RefreshSession, error) {
	query := `
		SELECT id, account_id, token, expires_at, created_at, updated_at
		FROM refresh_sessions
		WHERE token = $1 AND expires_at > now()
	`
	session := &models.RefreshSession{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&session.ID, &session.AccountID, &session.Token,
		&session.ExpiresAt, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return session, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, token string) (int64, error) {
	query := `
		DELETE FROM refresh_sessions
		WHERE token = $1
	`
	return r.execCount(ctx, query, token)
}

func (r *PostgresRepository) DeleteAllForAccount(ctx context.Context, accountID string) (int64, error) {
	query := `
		DELETE FROM refresh_sessions
		WHERE account_id = $1
	`
	return r.execCount(ctx, query, accountID)
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM refresh_sessions
		WHERE expires_at <= now()
	`
	return r.execCount(ctx, query)
}

func (r *PostgresRepository) execCount(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected, nil
}
