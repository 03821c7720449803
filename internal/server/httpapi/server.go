package httpapi

import (
	"context"
	"time"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/logging"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/config"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/services"
	"github.com/gin-gonic/gin"
)

// IdentityExchanger completes the provider round trip: it builds the
// consent URL for a state value and exchanges the callback code for a
// verified identity. The concrete implementation (Google OAuth client)
// lives outside this subsystem.
type IdentityExchanger interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*services.ExternalIdentity, error)
}

// Server wires the auth services into a gin engine.
type Server struct {
	engine    *gin.Engine
	auth      *services.AuthService
	oauth     *services.OAuthService
	csrf      *services.CSRFGuard
	settings  services.Settings
	exchanger IdentityExchanger
	log       logging.Logger

	cookieSecure  bool
	refreshTTL    time.Duration
	publicBaseURL string
}

func NewServer(authSvc *services.AuthService, oauthSvc *services.OAuthService,
	csrf *services.CSRFGuard, settings services.Settings, exchanger IdentityExchanger,
	log logging.Logger, cfg *config.Config) *Server {

	s := &Server{
		auth:          authSvc,
		oauth:         oauthSvc,
		csrf:          csrf,
		settings:      settings,
		exchanger:     exchanger,
		log:           log,
		cookieSecure:  cfg.CookieSecure,
		refreshTTL:    cfg.RefreshSessionValidityDuration,
		publicBaseURL: cfg.PublicBaseURL,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.maintenanceGate())

	api := engine.Group("/api")
	{
		a := api.Group("/auth")
		a.POST("/register", s.handleRegister)
		a.POST("/login", s.handleLogin)
		a.POST("/refresh", s.requireCSRF(), s.handleRefresh)
		a.POST("/logout", s.requireCSRF(), s.handleLogout)
		a.POST("/logout-all", s.requireAuth(), s.requireCSRF(), s.handleLogoutAll)

		a.POST("/password/forgot", s.handleForgotPassword)
		a.GET("/password/validate", s.handleValidateResetToken)
		a.POST("/password/reset", s.handleResetPassword)

		a.GET("/oauth/google", s.handleOAuthBegin)
		a.GET("/oauth/google/callback", s.handleOAuthCallback)

		api.GET("/me", s.requireAuth(), s.handleMe)
	}

	s.engine = engine
	return s
}

// Handler exposes the engine for the HTTP server and for tests.
func (s *Server) Handler() *gin.Engine {
	return s.engine
}
