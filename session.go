package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"contexto/internal/game"
)

var errSessionMismatch = fmt.Errorf("%w: session id mismatch", game.ErrValidation)

// sessionIDFrom resolves the caller's session id from the X-Session-Id header,
// the JSON body, or the session cookie, in that order. A header and body that
// disagree are rejected rather than guessed between.
func (app *App) sessionIDFrom(c *gin.Context, bodyID string) (string, error) {
	headerID := strings.TrimSpace(c.GetHeader(SessionHeaderName))
	bodyID = strings.TrimSpace(bodyID)
	if headerID != "" && bodyID != "" && headerID != bodyID {
		return "", errSessionMismatch
	}
	id := lo.CoalesceOrEmpty(headerID, bodyID)
	if id == "" {
		if cookie, err := c.Cookie(SessionCookieName); err == nil {
			id = strings.TrimSpace(cookie)
		}
	}
	if id == "" {
		return "", game.ErrMissingSession
	}
	return id, nil
}

// setSessionCookie stores the session id so browser clients echo it back.
func (app *App) setSessionCookie(c *gin.Context, sessionID string) {
	c.SetSameSite(http.SameSiteStrictMode)
	secure := app.Config.IsProduction
	c.SetCookie(SessionCookieName, sessionID, int(app.Config.CookieMaxAge.Seconds()), "/", "", secure, true)
	c.Header(SessionHeaderName, sessionID)
}
