// Package session holds per-browser UI state: the item being edited and the
// last completed order awaiting a printed bill.
package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/tiffin/internal/ledger"
)

// CookieName carries the session id.
const CookieName = "tiffin_session"

const (
	// DefaultIdleTimeout matches the cookie lifetime. A session unused for
	// longer is forgotten.
	DefaultIdleTimeout = 30 * 24 * time.Hour

	// sweepInterval bounds how often Ensure scans for idle sessions.
	sweepInterval = time.Minute
)

// Session is the UI state of one browser.
type Session struct {
	ID uuid.UUID

	mu            sync.Mutex
	lastSeen      time.Time
	editingItemID int
	currentOrder  *ledger.Order
	flash         string
}

// StartEditing marks id as the item open in the edit form. Zero means a new item.
func (s *Session) StartEditing(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editingItemID = id
}

// EditingItemID returns the item open in the edit form, or 0.
func (s *Session) EditingItemID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editingItemID
}

// StopEditing is called when the item form closes.
func (s *Session) StopEditing() {
	s.StartEditing(0)
}

// SetCurrentOrder remembers the order just checked out.
func (s *Session) SetCurrentOrder(o ledger.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentOrder = &o
}

// CurrentOrder returns the order awaiting a printed bill, if any.
func (s *Session) CurrentOrder() *ledger.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentOrder == nil {
		return nil
	}
	o := *s.currentOrder
	return &o
}

// ClearCurrentOrder is called once the bill has been printed.
func (s *Session) ClearCurrentOrder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentOrder = nil
}

// Flash queues a one-shot message for the next render.
func (s *Session) Flash(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flash = msg
}

// TakeFlash returns and clears the queued message.
func (s *Session) TakeFlash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.flash
	s.flash = ""
	return msg
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithIdleTimeout sets how long an unused session is kept.
func WithIdleTimeout(d time.Duration) RegistryOption {
	return func(reg *Registry) { reg.idleTimeout = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) RegistryOption {
	return func(reg *Registry) { reg.now = now }
}

// Registry maps session cookies to sessions. Sessions idle for longer than
// the idle timeout are evicted as new ones are created.
type Registry struct {
	mu          sync.Mutex
	sessions    map[uuid.UUID]*Session
	idleTimeout time.Duration
	lastSweep   time.Time
	now         func() time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	reg := &Registry{
		sessions:    make(map[uuid.UUID]*Session),
		idleTimeout: DefaultIdleTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

// Get returns the session named by r's cookie, or nil.
func (reg *Registry) Get(r *http.Request) *Session {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return nil
	}
	reg.mu.Lock()
	s := reg.sessions[id]
	reg.mu.Unlock()
	if s == nil {
		return nil
	}
	now := reg.now()
	if s.idleSince(now) > reg.idleTimeout {
		return nil
	}
	s.touch(now)
	return s
}

// Ensure returns the request's session, creating one and setting its cookie
// when the request carries none.
func (reg *Registry) Ensure(w http.ResponseWriter, r *http.Request) *Session {
	if s := reg.Get(r); s != nil {
		return s
	}

	now := reg.now()
	s := &Session{ID: uuid.New(), lastSeen: now}
	reg.mu.Lock()
	reg.sweep(now)
	reg.sessions[s.ID] = s
	reg.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(reg.idleTimeout),
	})
	return s
}

// sweep drops idle sessions, at most once per sweepInterval. Callers hold reg.mu.
func (reg *Registry) sweep(now time.Time) {
	if now.Sub(reg.lastSweep) < sweepInterval {
		return
	}
	reg.lastSweep = now
	for id, s := range reg.sessions {
		if s.idleSince(now) > reg.idleTimeout {
			delete(reg.sessions, id)
		}
	}
}

// Len reports how many sessions are tracked.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.sessions)
}
