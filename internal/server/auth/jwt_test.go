package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/common"
)

func TestSigner_IssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	s := NewSigner([]byte("super-secret"))

	tok, err := s.Issue(TokenKindAccess, "acc-123", "a@x.com", "user", time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := s.Verify(tok, TokenKindAccess)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.Subject != "acc-123" || claims.Email != "a@x.com" || claims.Role != "user" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestSigner_Verify_Expired(t *testing.T) {
	t.Parallel()

	s := NewSigner([]byte("secret"))

	tok, err := s.Issue(TokenKindAccess, "acc-1", "a@x.com", "user", -1*time.Second)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = s.Verify(tok, TokenKindAccess)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("want common.ErrTokenExpired, got %v", err)
	}
}

func TestSigner_Verify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewSigner([]byte("right-secret")).Issue(TokenKindAccess, "acc-2", "a@x.com", "user", time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = NewSigner([]byte("wrong-secret")).Verify(tok, TokenKindAccess)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want common.ErrInvalidToken, got %v", err)
	}
}

func TestSigner_Verify_KindMismatch(t *testing.T) {
	t.Parallel()

	s := NewSigner([]byte("secret"))

	// A reset token must not pass where an access token is expected.
	tok, err := s.Issue(TokenKindReset, "acc-3", "a@x.com", "user", PasswordResetTTL)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := s.Verify(tok, TokenKindAccess); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want common.ErrInvalidToken for kind mismatch, got %v", err)
	}
	if _, err := s.Verify(tok, TokenKindReset); err != nil {
		t.Fatalf("reset verification should succeed, got %v", err)
	}
}

func TestSigner_Verify_Garbage(t *testing.T) {
	t.Parallel()

	s := NewSigner([]byte("secret"))
	if _, err := s.Verify("not-a-token", TokenKindAccess); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want common.ErrInvalidToken, got %v", err)
	}
}
