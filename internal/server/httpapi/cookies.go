// Package httpapi is the gin transport of the auth server: route wiring,
// the auth cookie contract, CSRF enforcement, and error-to-status mapping.
package httpapi

import (
	"net/http"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/services"
	"github.com/gin-gonic/gin"
)

const (
	// RefreshCookieName carries the opaque refresh-session token. HttpOnly:
	// scripts never see it.
	RefreshCookieName = "refresh_token"

	// CSRFCookieName mirrors the CSRF token. Deliberately JS-readable so the
	// front end can echo it in the request header.
	CSRFCookieName = "csrf_token"

	// CSRFHeaderName is the header the double-submit check compares against
	// the cookie.
	CSRFHeaderName = "X-CSRF-Token"
)

// setAuthCookies installs the refresh and CSRF cookies from a fresh
// credential set. Both share the session lifetime; SameSite=Strict keeps
// browsers from attaching them to cross-site requests in the first place.
func (s *Server) setAuthCookies(c *gin.Context, res *services.AuthResult) {
	maxAge := int(s.refreshTTL.Seconds())

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookieName, res.RefreshToken, maxAge, "/", "", s.cookieSecure, true)
	c.SetCookie(CSRFCookieName, res.CSRFToken, maxAge, "/", "", s.cookieSecure, false)
}

// clearAuthCookies expires both cookies. Done on logout and whenever a
// refresh fails with re-authenticate, so the client does not keep replaying
// a dead token.
func (s *Server) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookieName, "", -1, "/", "", s.cookieSecure, true)
	c.SetCookie(CSRFCookieName, "", -1, "/", "", s.cookieSecure, false)
}
