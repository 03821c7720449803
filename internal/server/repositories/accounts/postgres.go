package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/common"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/dbx"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const accountColumns = `id, email, name, avatar_url, password_hash, role,
		generations_used, generations_limit, subscription_expires_at,
		google_id, reset_token, reset_token_expires_at, created_at, updated_at`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (id, email, name, avatar_url, password_hash, role,
			generations_limit, google_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		account.ID, account.Email, account.Name, account.AvatarURL,
		account.PasswordHash, account.Role, account.GenerationsLimit,
		account.GoogleID,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrEmailTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE google_id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, googleID))
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id, name, avatarURL string) error {
	query := `
		UPDATE accounts SET name = $2, avatar_url = $3, updated_at = now()
		WHERE id = $1
	`
	return r.execExpectingRow(ctx, query, id, name, avatarURL)
}

func (r *PostgresRepository) LinkGoogleID(ctx context.Context, id, googleID string) error {
	query := `
		UPDATE accounts SET google_id = $2, updated_at = now()
		WHERE id = $1
	`
	return r.execExpectingRow(ctx, query, id, googleID)
}

func (r *PostgresRepository) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	query := `
		UPDATE accounts SET reset_token = $2, reset_token_expires_at = $3, updated_at = now()
		WHERE id = $1
	`
	return r.execExpectingRow(ctx, query, id, token, expiresAt)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE accounts SET password_hash = $2, reset_token = NULL,
			reset_token_expires_at = NULL, updated_at = now()
		WHERE id = $1
	`
	return r.execExpectingRow(ctx, query, id, passwordHash)
}

func (r *PostgresRepository) IncrementGenerationsUsed(ctx context.Context, id string) (int64, error) {
	query := `
		UPDATE accounts SET generations_used = generations_used + 1, updated_at = now()
		WHERE id = $1
		RETURNING generations_used
	`
	var used int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&used); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return used, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID, &account.Email, &account.Name, &account.AvatarURL,
		&account.PasswordHash, &account.Role, &account.GenerationsUsed,
		&account.GenerationsLimit, &account.SubscriptionExpiresAt,
		&account.GoogleID, &account.ResetToken, &account.ResetTokenExpiresAt,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
