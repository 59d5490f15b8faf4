package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hoka-shop/storefront/pkg/toast"
)

type sessionKey struct{}

// SessionID returns the visitor session attached by the session middleware.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// requestSession returns the session ID carried by the request cookie, or ""
// when the cookie is missing or not a UUID.
func requestSession(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	parsed, err := uuid.Parse(c.Value)
	if err != nil {
		return ""
	}
	return parsed.String()
}

// withSession ensures every request carries a session ID, issuing a new
// session cookie when the visitor has none or presents a malformed one.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := requestSession(r)
		if id == "" {
			id = uuid.NewString()
			opts := s.config.Cookie
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    id,
				Path:     opts.Path,
				Domain:   opts.Domain,
				MaxAge:   opts.MaxAge,
				Secure:   opts.Secure,
				HttpOnly: true,
				SameSite: opts.SameSite,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
	})
}

// visitor is the in-memory state of one session.
type visitor struct {
	toasts   *toast.Store
	lastSeen time.Time
}

// visitors holds the toast stores of live sessions.
type visitors struct {
	mu      sync.Mutex
	byID    map[string]*visitor
	newFunc func(id string) *toast.Store
	now     func() time.Time

	// connected reports sessions the sweep must keep regardless of lastSeen.
	connected func(id string) bool
}

func newVisitors(newFunc func(id string) *toast.Store) *visitors {
	return &visitors{
		byID:    make(map[string]*visitor),
		newFunc: newFunc,
		now:     time.Now,
	}
}

// toasts returns the toast store of session id, creating it on first use.
func (v *visitors) toasts(id string) *toast.Store {
	v.mu.Lock()
	defer v.mu.Unlock()

	vis, ok := v.byID[id]
	if !ok {
		vis = &visitor{toasts: v.newFunc(id)}
		v.byID[id] = vis
	}
	vis.lastSeen = v.now()
	return vis.toasts
}

// sweep drops sessions idle for longer than idle and returns how many.
// Sessions with a live connection are never idle.
func (v *visitors) sweep(idle time.Duration) int {
	cutoff := v.now().Add(-idle)

	v.mu.Lock()
	var expired []*visitor
	for id, vis := range v.byID {
		if v.connected != nil && v.connected(id) {
			continue
		}
		if vis.lastSeen.Before(cutoff) {
			expired = append(expired, vis)
			delete(v.byID, id)
		}
	}
	v.mu.Unlock()

	for _, vis := range expired {
		vis.toasts.Close()
	}
	return len(expired)
}

// closeAll stops every pending toast timer.
func (v *visitors) closeAll() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, vis := range v.byID {
		vis.toasts.Close()
		delete(v.byID, id)
	}
}

func (v *visitors) len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.byID)
}
