package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chethana369/Auto-resume-checker/internal/shared/server/respond"
)

const (
	sessionIDKey = "sessionId"

	// SessionHeader lets API clients pick their session explicitly.
	SessionHeader = "X-Session-Id"
	// SessionCookie carries the session for browsers.
	SessionCookie = "rr_session"

	maxSessionIDLen = 128
)

// SessionOptions controls the cookie issued for new sessions.
type SessionOptions struct {
	TTL    time.Duration
	Secure bool
}

// Session resolves the caller's session from the X-Session-Id header, then the session cookie,
// and issues a new session cookie when neither is present.
func Session(opts SessionOptions) gin.HandlerFunc {
	maxAge := int(opts.TTL / time.Second)
	if maxAge <= 0 {
		maxAge = int((24 * time.Hour) / time.Second)
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		if header := strings.TrimSpace(c.GetHeader(SessionHeader)); header != "" {
			if !validSessionID(header) {
				respond.Error(c, http.StatusBadRequest, "invalid_session", "X-Session-Id must be 1-128 characters of [A-Za-z0-9_-]", nil)
				return
			}
			setSession(c, header)
			c.Next()
			return
		}

		id := ""
		if cookie, err := c.Cookie(SessionCookie); err == nil && validSessionID(cookie) {
			id = cookie
		}
		if id == "" {
			id = uuid.NewString()
		}
		// Refresh the cookie so its lifetime follows activity.
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, id, maxAge, "/", "", opts.Secure, true)
		setSession(c, id)
		c.Next()
	}
}

func setSession(c *gin.Context, id string) {
	c.Set(sessionIDKey, id)
	c.Writer.Header().Set(SessionHeader, id)
}

// SessionIDFromContext fetches the session ID set by the Session middleware.
func SessionIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(sessionIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

func validSessionID(id string) bool {
	if id == "" || len(id) > maxSessionIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
