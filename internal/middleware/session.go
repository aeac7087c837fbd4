package middleware

import (
	"net/http"
	"strings"
	"time"

	"leave-review/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "sid"

	sessionCookieMaxAge = int(30 * 24 * time.Hour / time.Second)
)

// Session resolves the reviewer session from the X-Session-ID header or the
// sid cookie. A request carrying neither gets a fresh id, returned in both
// the cookie and the header.
func Session(secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := strings.TrimSpace(c.GetHeader(SessionHeader))
		if sid == "" {
			if cookie, err := c.Cookie(SessionCookie); err == nil {
				sid = strings.TrimSpace(cookie)
			}
		}
		if sid == "" {
			sid = uuid.New().String()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, sid, sessionCookieMaxAge, "/", "", secureCookie, true)
		}
		c.Header(SessionHeader, sid)
		c.Set("session_id", sid)

		ctx := contextutil.WithSessionID(c.Request.Context(), sid)
		ctx = contextutil.WithLogger(ctx, contextutil.GetLogger(ctx, nil).With(zap.String("session_id", sid)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
