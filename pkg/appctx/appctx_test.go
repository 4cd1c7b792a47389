package appctx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeAuth struct {
	signIn     *domain.Session
	signUp     *domain.Session
	refreshed  *domain.Session
	err        error
	refreshErr error
	signOutErr error
	signedOut  bool
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	return f.signIn, f.err
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	return f.signUp, f.err
}

func (f *fakeAuth) SignOut(ctx context.Context, session *domain.Session) error {
	f.signedOut = true
	return f.signOutErr
}

func (f *fakeAuth) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	return f.refreshed, f.refreshErr
}

type memStore struct {
	session *domain.Session
	saves   int
	cleared bool
}

func (m *memStore) Load() (*domain.Session, error) { return m.session, nil }
func (m *memStore) Save(s *domain.Session) error   { m.session = s; m.saves++; return nil }
func (m *memStore) Clear() error                   { m.session = nil; m.cleared = true; return nil }

func newTestContext(auth *fakeAuth, store *memStore) *Context {
	c := New(ThemeDark, auth, store)
	c.now = func() time.Time { return testNow }
	return c
}

func session(token string, expires time.Time) *domain.Session {
	return &domain.Session{AccessToken: token, RefreshToken: "r-" + token, ExpiresAt: expires, Email: "ada@example.com"}
}

func TestInit_LoadsSession(t *testing.T) {
	store := &memStore{session: session("tok", testNow.Add(time.Hour))}
	c := newTestContext(&fakeAuth{}, store)

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if !c.Initialized() {
		t.Error("Initialized() = false after Init")
	}
	if c.Token() != "tok" {
		t.Errorf("Token() = %q, want tok", c.Token())
	}
}

func TestInit_RefreshesNearExpiry(t *testing.T) {
	store := &memStore{session: session("old", testNow.Add(30*time.Second))}
	auth := &fakeAuth{refreshed: session("new", testNow.Add(time.Hour))}
	c := newTestContext(auth, store)

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if c.Token() != "new" {
		t.Errorf("Token() = %q, want new", c.Token())
	}
	if store.saves != 1 {
		t.Errorf("refreshed session saved %d times, want 1", store.saves)
	}
}

func TestInit_DropsExpiredSession(t *testing.T) {
	store := &memStore{session: session("old", testNow.Add(-time.Minute))}
	auth := &fakeAuth{refreshErr: errors.New("invalid refresh token")}
	c := newTestContext(auth, store)

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if c.SignedIn() {
		t.Error("expired session should be dropped")
	}
	if !store.cleared {
		t.Error("store should be cleared")
	}
}

func TestSignInAndOut(t *testing.T) {
	store := &memStore{}
	auth := &fakeAuth{signIn: session("tok", testNow.Add(time.Hour))}
	c := newTestContext(auth, store)

	var events []Event
	unsubscribe := c.Subscribe(func(e Event) { events = append(events, e) })
	defer unsubscribe()

	if err := c.SignIn(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatalf("SignIn() error: %v", err)
	}
	if store.session == nil || store.session.AccessToken != "tok" {
		t.Error("session was not persisted")
	}
	if got := c.Session().DisplayName(); got != "ada" {
		t.Errorf("DisplayName() = %q", got)
	}

	if err := c.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut() error: %v", err)
	}
	if !auth.signedOut || c.Session() != nil || !store.cleared {
		t.Error("sign-out did not clear both sides")
	}
	if len(events) != 2 || events[0] != EventSession || events[1] != EventSession {
		t.Errorf("events = %v", events)
	}
}

func TestSignOut_RemoteFailureStillClears(t *testing.T) {
	store := &memStore{}
	auth := &fakeAuth{signIn: session("tok", testNow.Add(time.Hour)), signOutErr: errors.New("network")}
	c := newTestContext(auth, store)

	if err := c.SignIn(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatal(err)
	}
	if err := c.SignOut(context.Background()); err == nil {
		t.Error("expected remote error to be reported")
	}
	if c.Session() != nil {
		t.Error("local session should be cleared")
	}
}

func TestSignUp(t *testing.T) {
	c := newTestContext(&fakeAuth{}, &memStore{})
	confirm, err := c.SignUp(context.Background(), "a@b.c", "pw")
	if err != nil || !confirm {
		t.Errorf("SignUp() = %v, %v; want confirmation required", confirm, err)
	}

	c = newTestContext(&fakeAuth{signUp: session("tok", testNow.Add(time.Hour))}, &memStore{})
	confirm, err = c.SignUp(context.Background(), "a@b.c", "pw")
	if err != nil || confirm || !c.SignedIn() {
		t.Errorf("SignUp() = %v, %v; want signed in", confirm, err)
	}
}

func TestAuthDisabled(t *testing.T) {
	c := New("", nil, nil)
	if c.AuthEnabled() {
		t.Error("AuthEnabled() = true without provider")
	}
	if err := c.SignIn(context.Background(), "a", "b"); !errors.Is(err, ErrAuthDisabled) {
		t.Errorf("SignIn() error = %v", err)
	}
	if err := c.Init(context.Background()); err != nil {
		t.Errorf("Init() error = %v", err)
	}
	if c.Token() != "" {
		t.Error("Token() should be empty")
	}
}

func TestTheme(t *testing.T) {
	c := New("bogus", nil, nil)
	if c.Theme() != ThemeAuto {
		t.Errorf("invalid theme should fall back to auto, got %q", c.Theme())
	}

	notified := 0
	c.Subscribe(func(e Event) {
		if e == EventTheme {
			notified++
		}
	})

	if got := c.ToggleTheme(); got != ThemeDark {
		t.Errorf("ToggleTheme() = %q, want dark", got)
	}
	if got := c.ToggleTheme(); got != ThemeLight {
		t.Errorf("ToggleTheme() = %q, want light", got)
	}
	if err := c.SetTheme(ThemeLight); err != nil {
		t.Fatal(err)
	}
	if notified != 2 {
		t.Errorf("notified %d times, want 2 (no event for an unchanged theme)", notified)
	}
	if err := c.SetTheme("neon"); err == nil {
		t.Error("SetTheme accepted an invalid theme")
	}
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	c := New(ThemeDark, nil, nil)
	calls := 0
	unsubscribe := c.Subscribe(func(Event) { calls++ })
	c.ToggleTheme()
	unsubscribe()
	c.ToggleTheme()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
