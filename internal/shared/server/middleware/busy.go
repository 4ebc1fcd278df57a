package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/chethana369/Auto-resume-checker/internal/shared/server/respond"
)

// SessionGuard tracks sessions that have a mutating request in flight.
type SessionGuard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

// NewSessionGuard constructs an empty SessionGuard.
func NewSessionGuard() *SessionGuard {
	return &SessionGuard{busy: make(map[string]struct{})}
}

// Acquire marks sessionID busy. It reports false when the session is already busy.
func (g *SessionGuard) Acquire(sessionID string) bool {
	if g == nil {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.busy[sessionID]; ok {
		return false
	}
	g.busy[sessionID] = struct{}{}
	return true
}

// Release clears the busy mark for sessionID.
func (g *SessionGuard) Release(sessionID string) {
	if g == nil {
		return
	}
	g.mu.Lock()
	delete(g.busy, sessionID)
	g.mu.Unlock()
}

// Exclusive rejects a request with 409 while another guarded request of the same session runs.
func Exclusive(g *SessionGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := SessionIDFromContext(c)
		if sessionID == "" {
			sessionID = c.ClientIP()
		}
		if !g.Acquire(sessionID) {
			c.Header("Retry-After", "1")
			respond.Error(c, http.StatusConflict, "session_busy", "another request for this session is still running", nil)
			return
		}
		defer g.Release(sessionID)
		c.Next()
	}
}
