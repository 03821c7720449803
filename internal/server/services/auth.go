package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/common"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/logging"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/auth"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/config"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/models"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// MinPasswordLen is the minimum accepted password length, enforced before
// hashing on registration and reset.
const MinPasswordLen = 12

// resetMailAttempts bounds delivery retries for reset links.
const resetMailAttempts = 3

// AuthResult bundles everything a successful authentication hands to the
// transport layer: the account, a short-lived access token for the JSON
// body, and the refresh-session + CSRF values destined for cookies.
type AuthResult struct {
	Account          *models.Account
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
	CSRFToken        string
}

// AuthService orchestrates the credential flows: registration, login,
// refresh rotation, logout, and the password-reset loop. It owns no state
// beyond its collaborators.
type AuthService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	sessions *SessionStore
	csrf     *CSRFGuard
	signer   *auth.Signer
	hasher   *auth.Hasher
	mailer   ResetMailer
	log      logging.Logger

	accessTTL     time.Duration
	publicBaseURL string
	defaultLimit  int64
}

func NewAuthService(db *sql.DB, repos repomanager.RepositoryManager, sessions *SessionStore,
	csrf *CSRFGuard, signer *auth.Signer, hasher *auth.Hasher, mailer ResetMailer,
	log logging.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		db:            db,
		repos:         repos,
		sessions:      sessions,
		csrf:          csrf,
		signer:        signer,
		hasher:        hasher,
		mailer:        mailer,
		log:           log,
		accessTTL:     cfg.AccessTokenValidityDuration,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		defaultLimit:  cfg.DefaultGenerationsLimit,
	}
}

// NormalizeEmail lowercases and trims an email address. Every lookup and
// every stored value goes through this, so case variants of one address
// always land on the same account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", common.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email address", common.ErrValidation)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return common.ErrPasswordTooShort
	}
	return nil
}

// Register creates an account and logs it in. The email conflict surfaces
// as common.ErrEmailTaken straight from the repository.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	account, err := s.repos.Accounts(s.db).Create(ctx, &models.Account{
		ID:               uuid.NewString(),
		Email:            email,
		Name:             name,
		PasswordHash:     hash,
		Role:             models.RoleUser,
		GenerationsLimit: s.defaultLimit,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "account registered", "account_id", account.ID)
	return s.IssueCredentials(ctx, account)
}

// Login authenticates by email and password. Unknown email, an account
// without a password (third-party sign-in only), and a wrong password all
// return the same common.ErrUnauthorized, so the response cannot be used to
// probe which addresses are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)

	account, err := s.repos.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}
	if account.PasswordHash == "" {
		return nil, common.ErrUnauthorized
	}
	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, common.ErrUnauthorized
	}

	return s.IssueCredentials(ctx, account)
}

// IssueCredentials mints the full credential set for an already
// authenticated account: access token, refresh session, and a fresh CSRF
// token. The OAuth bridge reuses this after a provider sign-in.
func (s *AuthService) IssueCredentials(ctx context.Context, account *models.Account) (*AuthResult, error) {
	accessToken, err := s.signer.Issue(auth.TokenKindAccess, account.ID, account.Email, string(account.Role), s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}

	session, err := s.sessions.Create(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	csrfToken, err := s.csrf.Generate()
	if err != nil {
		return nil, fmt.Errorf("generating csrf token: %w", err)
	}

	return &AuthResult{
		Account:          account,
		AccessToken:      accessToken,
		RefreshToken:     session.Token,
		RefreshExpiresAt: session.ExpiresAt,
		CSRFToken:        csrfToken,
	}, nil
}

// Refresh consumes the presented refresh token, rotates the session, and
// mints a new credential set. Stale, expired, and replayed tokens all fail
// with common.ErrReauthRequired.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, common.ErrReauthRequired
	}

	session, err := s.sessions.Rotate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	account, err := s.repos.Accounts(s.db).GetByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrReauthRequired
		}
		return nil, err
	}

	accessToken, err := s.signer.Issue(auth.TokenKindAccess, account.ID, account.Email, string(account.Role), s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}

	csrfToken, err := s.csrf.Generate()
	if err != nil {
		return nil, fmt.Errorf("generating csrf token: %w", err)
	}

	return &AuthResult{
		Account:          account,
		AccessToken:      accessToken,
		RefreshToken:     session.Token,
		RefreshExpiresAt: session.ExpiresAt,
		CSRFToken:        csrfToken,
	}, nil
}

// Logout revokes the session best-effort: an unknown token or a storage
// error is logged and swallowed, the client side is cleared regardless.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if _, err := s.sessions.Revoke(ctx, refreshToken); err != nil {
		s.log.Warn(ctx, "logout revocation failed", "error", err)
	}
}

// LogoutAll revokes every session of the account.
func (s *AuthService) LogoutAll(ctx context.Context, accountID string) (int64, error) {
	return s.sessions.RevokeAll(ctx, accountID)
}

// VerifyAccess validates a bearer token and returns its claims.
func (s *AuthService) VerifyAccess(tokenString string) (*auth.Claims, error) {
	return s.signer.Verify(tokenString, auth.TokenKindAccess)
}

// Me resolves the current account from an access token.
func (s *AuthService) Me(ctx context.Context, accessToken string) (*models.Account, error) {
	claims, err := s.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}
	return s.repos.Accounts(s.db).GetByID(ctx, claims.Subject)
}

// ForgotPassword issues a reset token for the account, records it on the
// account row, and delivers the link. An unknown email returns
// common.ErrNotFound, which the transport layer hides behind the generic
// acknowledgement. Delivery is retried a bounded number of times and
// surfaces common.ErrExternalService when exhausted.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	account, err := s.repos.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.signer.Issue(auth.TokenKindReset, account.ID, account.Email, string(account.Role), auth.PasswordResetTTL)
	if err != nil {
		return fmt.Errorf("signing reset token: %w", err)
	}

	expiresAt := time.Now().Add(auth.PasswordResetTTL)
	if err := s.repos.Accounts(s.db).SetResetToken(ctx, account.ID, token, expiresAt); err != nil {
		return err
	}

	link := s.publicBaseURL + "/reset-password?token=" + token

	backoff := retry.WithMaxRetries(resetMailAttempts-1, retry.NewConstant(time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.mailer.SendResetLink(ctx, account.Email, link); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		s.log.Error(ctx, "reset link delivery failed", "account_id", account.ID, "error", err)
		return fmt.Errorf("%w: reset link delivery", common.ErrExternalService)
	}

	s.log.Info(ctx, "reset link sent", "account_id", account.ID)
	return nil
}

// ValidateResetToken checks a reset token without consuming it: signature,
// expiry, kind, and the cross-check against the token stored on the account
// row. A token superseded by a newer one, or already spent by a completed
// reset, fails the cross-check.
func (s *AuthService) ValidateResetToken(ctx context.Context, token string) (*models.Account, error) {
	claims, err := s.signer.Verify(token, auth.TokenKindReset)
	if err != nil {
		return nil, err
	}

	account, err := s.repos.Accounts(s.db).GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}

	if account.ResetToken == nil || *account.ResetToken != token {
		return nil, common.ErrInvalidToken
	}
	if account.ResetTokenExpiresAt == nil || !account.ResetTokenExpiresAt.After(time.Now()) {
		return nil, common.ErrTokenExpired
	}

	return account, nil
}

// ResetPassword sets a new password for the account the token belongs to.
// The stored reset token is cleared in the same statement, so the token is
// single-use. Outstanding refresh sessions are left alone.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	account, err := s.ValidateResetToken(ctx, token)
	if err != nil {
		return err
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.repos.Accounts(s.db).UpdatePassword(ctx, account.ID, hash); err != nil {
		return err
	}

	s.log.Info(ctx, "password reset completed", "account_id", account.ID)
	return nil
}

// ConsumeGeneration enforces the usage quota and bumps the counter. Admins
// and accounts with an active subscription are not limited.
func (s *AuthService) ConsumeGeneration(ctx context.Context, accountID string) (int64, error) {
	repo := s.repos.Accounts(s.db)

	account, err := repo.GetByID(ctx, accountID)
	if err != nil {
		return 0, err
	}

	unlimited := account.Role == models.RoleAdmin || account.HasActiveSubscription(time.Now())
	if !unlimited && account.GenerationsUsed >= account.GenerationsLimit {
		return account.GenerationsUsed, common.ErrQuotaExceeded
	}

	return repo.IncrementGenerationsUsed(ctx, accountID)
}
