package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/common"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/logging"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/randx"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/models"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/repositories/oauthstates"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// oauthStateBytes is the entropy of the sign-in anti-forgery nonce.
const oauthStateBytes = 32

// OAuthService bridges third-party sign-in to local accounts: it guards the
// round trip with single-use state nonces and maps a provider identity onto
// an account, linking or creating one as needed.
type OAuthService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	states oauthstates.Repository
	auth   *AuthService
	log    logging.Logger

	stateTTL     time.Duration
	defaultLimit int64
}

func NewOAuthService(db *sql.DB, repos repomanager.RepositoryManager, states oauthstates.Repository,
	authSvc *AuthService, log logging.Logger, stateTTL time.Duration, defaultLimit int64) *OAuthService {
	return &OAuthService{
		db:           db,
		repos:        repos,
		states:       states,
		auth:         authSvc,
		log:          log,
		stateTTL:     stateTTL,
		defaultLimit: defaultLimit,
	}
}

// BeginState mints a nonce for the provider round trip and persists it with
// a short TTL.
func (s *OAuthService) BeginState(ctx context.Context) (string, error) {
	state, err := randx.URLString(oauthStateBytes)
	if err != nil {
		return "", fmt.Errorf("generating oauth state: %w", err)
	}
	if err := s.states.Save(ctx, state, s.stateTTL); err != nil {
		return "", err
	}
	return state, nil
}

// ValidateState consumes the nonce. It reports true exactly once per value;
// expired, unknown, and replayed states all fail.
func (s *OAuthService) ValidateState(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	return s.states.Consume(ctx, state)
}

// SignIn maps a provider-vouched identity to an account and mints the full
// credential set. Three shapes:
//   - the provider id is already linked: sign in to that account;
//   - the email exists without a linked id: link and sign in;
//   - the email exists linked to a DIFFERENT provider id: refuse;
//   - nothing matches: create an account with no password.
func (s *OAuthService) SignIn(ctx context.Context, ident ExternalIdentity) (*AuthResult, error) {
	if ident.ProviderID == "" || ident.Email == "" {
		return nil, fmt.Errorf("%w: incomplete provider identity", common.ErrValidation)
	}
	email := NormalizeEmail(ident.Email)

	repo := s.repos.Accounts(s.db)

	account, err := repo.GetByGoogleID(ctx, ident.ProviderID)
	if err == nil {
		return s.auth.IssueCredentials(ctx, account)
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	account, err = repo.GetByEmail(ctx, email)
	if err == nil {
		if account.GoogleID != nil && *account.GoogleID != ident.ProviderID {
			// Same email vouched for by a different provider subject; do not
			// silently take over the account.
			return nil, common.ErrUnauthorized
		}
		if err := repo.LinkGoogleID(ctx, account.ID, ident.ProviderID); err != nil {
			return nil, err
		}
		account.GoogleID = &ident.ProviderID
		s.log.Info(ctx, "external identity linked", "account_id", account.ID)
		return s.auth.IssueCredentials(ctx, account)
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	account, err = repo.Create(ctx, &models.Account{
		ID:               uuid.NewString(),
		Email:            email,
		Name:             ident.Name,
		AvatarURL:        ident.AvatarURL,
		Role:             models.RoleUser,
		GenerationsLimit: s.defaultLimit,
		GoogleID:         &ident.ProviderID,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "account created via external sign-in", "account_id", account.ID)
	return s.auth.IssueCredentials(ctx, account)
}
