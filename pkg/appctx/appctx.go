// Package appctx holds the process-wide state shared by every view: the color
// theme and the signed-in session. It is created once at startup, initialized
// explicitly and passed to whoever needs it.
package appctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/ports"
)

// Theme names accepted by SetTheme
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// refreshWindow is how close to expiry a session is refreshed
const refreshWindow = 2 * time.Minute

// ErrAuthDisabled is returned by session operations when no identity provider is configured
var ErrAuthDisabled = errors.New("no identity provider configured (set auth_url and auth_anon_key)")

// Event tells subscribers what changed
type Event int

const (
	EventTheme Event = iota
	EventSession
)

func (e Event) String() string {
	if e == EventTheme {
		return "theme"
	}
	return "session"
}

// Context is the shared theme and session state
type Context struct {
	mu          sync.RWMutex
	theme       string
	session     *domain.Session
	initialized bool

	auth  ports.Authenticator
	store ports.SessionStore

	subMu       sync.Mutex
	subscribers map[int]func(Event)
	nextSubID   int

	now func() time.Time
}

// New creates a Context. auth and store may be nil when sign-in is not configured.
func New(theme string, auth ports.Authenticator, store ports.SessionStore) *Context {
	if !validTheme(theme) {
		theme = ThemeAuto
	}
	return &Context{
		theme:       theme,
		auth:        auth,
		store:       store,
		subscribers: make(map[int]func(Event)),
		now:         time.Now,
	}
}

// Init loads the persisted session and refreshes it when it is about to expire.
// A session that cannot be refreshed is dropped, which signs the user out.
func (c *Context) Init(ctx context.Context) error {
	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}

	session, err := c.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil
	}

	now := c.now()
	if c.auth != nil && session.NeedsRefresh(now, refreshWindow) {
		refreshed, err := c.auth.Refresh(ctx, session.RefreshToken)
		if err != nil {
			slog.Warn("session_refresh_failed", "error", err)
			if !session.Valid(now) {
				return c.clearSession()
			}
		} else {
			session = refreshed
			if err := c.store.Save(session); err != nil {
				slog.Warn("session_save_failed", "error", err)
			}
		}
	}

	if !session.Valid(now) {
		return c.clearSession()
	}

	c.setSession(session)
	return nil
}

// Initialized reports whether Init ran
func (c *Context) Initialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

// Theme returns the current theme name
func (c *Context) Theme() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.theme
}

// SetTheme switches the theme and notifies subscribers
func (c *Context) SetTheme(theme string) error {
	if !validTheme(theme) {
		return fmt.Errorf("invalid theme %q (valid: auto, dark, light)", theme)
	}
	c.mu.Lock()
	changed := c.theme != theme
	c.theme = theme
	c.mu.Unlock()

	if changed {
		c.notify(EventTheme)
	}
	return nil
}

// ToggleTheme flips between dark and light and returns the new theme
func (c *Context) ToggleTheme() string {
	next := ThemeDark
	if c.Theme() == ThemeDark {
		next = ThemeLight
	}
	_ = c.SetTheme(next)
	return next
}

// Session returns a copy of the current session, nil when signed out
func (c *Context) Session() *domain.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// SignedIn reports whether a valid session is present
func (c *Context) SignedIn() bool {
	return c.Session().Valid(c.now())
}

// Token is the API client's token source. Empty when signed out.
func (c *Context) Token() string {
	s := c.Session()
	if !s.Valid(c.now()) {
		return ""
	}
	return s.AccessToken
}

// AuthEnabled reports whether sign-in operations are available
func (c *Context) AuthEnabled() bool {
	return c.auth != nil
}

// SignIn authenticates and persists the new session
func (c *Context) SignIn(ctx context.Context, email, password string) error {
	if c.auth == nil {
		return ErrAuthDisabled
	}
	session, err := c.auth.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	return c.adopt(session)
}

// SignUp registers a new account. confirm is true when the provider requires an
// email confirmation before the first sign-in.
func (c *Context) SignUp(ctx context.Context, email, password string) (confirm bool, err error) {
	if c.auth == nil {
		return false, ErrAuthDisabled
	}
	session, err := c.auth.SignUp(ctx, email, password)
	if err != nil {
		return false, err
	}
	if session == nil {
		return true, nil
	}
	return false, c.adopt(session)
}

// SignOut revokes the session at the provider and forgets it locally. The local
// session is cleared even when the provider call fails.
func (c *Context) SignOut(ctx context.Context) error {
	session := c.Session()
	if session == nil {
		return nil
	}

	var remoteErr error
	if c.auth != nil {
		remoteErr = c.auth.SignOut(ctx, session)
		if remoteErr != nil {
			slog.Warn("remote_sign_out_failed", "error", remoteErr)
		}
	}

	if err := c.clearSession(); err != nil {
		return err
	}
	return remoteErr
}

// Subscribe registers fn for change notifications and returns the function that
// removes it. fn runs synchronously on the goroutine that made the change.
func (c *Context) Subscribe(fn func(Event)) func() {
	c.subMu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subscribers, id)
		c.subMu.Unlock()
	}
}

func (c *Context) notify(e Event) {
	c.subMu.Lock()
	fns := make([]func(Event), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

func (c *Context) adopt(session *domain.Session) error {
	if c.store != nil {
		if err := c.store.Save(session); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
	}
	c.setSession(session)
	return nil
}

func (c *Context) setSession(session *domain.Session) {
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	c.notify(EventSession)
}

func (c *Context) clearSession() error {
	c.mu.Lock()
	had := c.session != nil
	c.session = nil
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
	}
	if had {
		c.notify(EventSession)
	}
	return nil
}

func validTheme(theme string) bool {
	switch theme {
	case ThemeAuto, ThemeDark, ThemeLight:
		return true
	}
	return false
}
