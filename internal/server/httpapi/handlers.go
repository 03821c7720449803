package httpapi

import (
	"errors"
	"net/http"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/common"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/models"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/services"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// accountView is the public shape of an account. The password hash and the
// reset-token fields never leave the server.
type accountView struct {
	ID                    string  `json:"id"`
	Email                 string  `json:"email"`
	Name                  string  `json:"name"`
	AvatarURL             string  `json:"avatar_url,omitempty"`
	Role                  string  `json:"role"`
	GenerationsUsed       int64   `json:"generations_used"`
	GenerationsLimit      int64   `json:"generations_limit"`
	SubscriptionExpiresAt *string `json:"subscription_expires_at,omitempty"`
}

func toAccountView(a *models.Account) accountView {
	v := accountView{
		ID:               a.ID,
		Email:            a.Email,
		Name:             a.Name,
		AvatarURL:        a.AvatarURL,
		Role:             string(a.Role),
		GenerationsUsed:  a.GenerationsUsed,
		GenerationsLimit: a.GenerationsLimit,
	}
	if a.SubscriptionExpiresAt != nil {
		ts := a.SubscriptionExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		v.SubscriptionExpiresAt = &ts
	}
	return v
}

// writeCredentials sets the auth cookies and returns the access token plus
// the account in the body. The refresh token travels only in its cookie.
func (s *Server) writeCredentials(c *gin.Context, status int, res *services.AuthResult) {
	s.setAuthCookies(c, res)
	c.JSON(status, gin.H{
		"access_token": res.AccessToken,
		"user":         toAccountView(res.Account),
	})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	res, err := s.auth.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeCredentials(c, http.StatusCreated, res)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	res, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeCredentials(c, http.StatusOK, res)
}

func (s *Server) handleRefresh(c *gin.Context) {
	token, err := c.Cookie(RefreshCookieName)
	if err != nil {
		s.writeError(c, common.ErrReauthRequired)
		return
	}

	res, err := s.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeCredentials(c, http.StatusOK, res)
}

func (s *Server) handleLogout(c *gin.Context) {
	if token, err := c.Cookie(RefreshCookieName); err == nil {
		s.auth.Logout(c.Request.Context(), token)
	}
	s.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleLogoutAll(c *gin.Context) {
	claims := s.mustClaims(c)
	if claims == nil {
		return
	}

	n, err := s.auth.LogoutAll(c.Request.Context(), claims.Subject)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"revoked_sessions": n})
}

func (s *Server) handleForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	err := s.auth.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		s.writeError(c, err)
		return
	}

	// Identical response whether or not the address exists.
	c.JSON(http.StatusOK, gin.H{
		"message": "if this email is registered, a reset link has been sent",
	})
}

func (s *Server) handleValidateResetToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	account, err := s.auth.ValidateResetToken(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrTokenExpired) {
			c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": err.Error()})
			return
		}
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true, "email": account.Email})
}

func (s *Server) handleResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token and password are required"})
		return
	}

	if err := s.auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func (s *Server) handleOAuthBegin(c *gin.Context) {
	state, err := s.oauth.BeginState(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, s.exchanger.AuthURL(state))
}

func (s *Server) handleOAuthCallback(c *gin.Context) {
	ok, err := s.oauth.ValidateState(c.Request.Context(), c.Query("state"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired sign-in state"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code is required"})
		return
	}

	ident, err := s.exchanger.Exchange(c.Request.Context(), code)
	if err != nil {
		s.log.Warn(c.Request.Context(), "provider code exchange failed", "error", err)
		s.writeError(c, common.ErrExternalService)
		return
	}

	res, err := s.oauth.SignIn(c.Request.Context(), *ident)
	if err != nil {
		s.writeError(c, err)
		return
	}

	// The browser lands back on the front end with the cookies set; the SPA
	// then calls refresh to obtain its access token.
	s.setAuthCookies(c, res)
	c.Redirect(http.StatusTemporaryRedirect, s.publicBaseURL+"/auth/callback")
}

func (s *Server) handleMe(c *gin.Context) {
	account, err := s.auth.Me(c.Request.Context(), bearerToken(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toAccountView(account)})
}
