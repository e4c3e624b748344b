package session

import (
	"context"
	"sync"
	"time"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

func testConfig() *core.Config {
	return &core.Config{
		Client: core.ClientConfig{
			MockTokenPrefix: "mock-jwt-token-",
			VerifyTimeout:   time.Second,
		},
	}
}

func testUser(role string) user.User {
	return user.User{
		ID:       "usr-1",
		Name:     "Test User",
		Email:    "t@test.cd",
		Role:     role,
		IsActive: true,
	}
}

// fakeAPI counts calls; behavior is overridable per test.
type fakeAPI struct {
	initFn  func(ctx context.Context, accessToken, refreshToken string) (user.User, error)
	loginFn func(ctx context.Context, in user.Login) (LoginResult, error)
	regFn   func(ctx context.Context, in user.Register) (LoginResult, error)
	invFn   func(ctx context.Context, in user.InviteRegistration) (LoginResult, error)

	initCalls  int
	loginCalls int
	regCalls   int
	invCalls   int
}

var _ API = (*fakeAPI)(nil)

func (f *fakeAPI) InitializeAuth(ctx context.Context, accessToken, refreshToken string) (user.User, error) {
	f.initCalls++
	if f.initFn == nil {
		return user.User{}, nil
	}
	return f.initFn(ctx, accessToken, refreshToken)
}

func (f *fakeAPI) Login(ctx context.Context, in user.Login) (LoginResult, error) {
	f.loginCalls++
	if f.loginFn == nil {
		return LoginResult{}, nil
	}
	return f.loginFn(ctx, in)
}

func (f *fakeAPI) Register(ctx context.Context, in user.Register) (LoginResult, error) {
	f.regCalls++
	if f.regFn == nil {
		return LoginResult{}, nil
	}
	return f.regFn(ctx, in)
}

func (f *fakeAPI) RegisterInvited(ctx context.Context, in user.InviteRegistration) (LoginResult, error) {
	f.invCalls++
	if f.invFn == nil {
		return LoginResult{}, nil
	}
	return f.invFn(ctx, in)
}

// fakeCreds is an in-memory Credentials with call counters.
type fakeCreds struct {
	mu        sync.Mutex
	rec       Record
	loadErr   error
	loadCalls int
	clears    int
	saves     int
}

var _ Credentials = (*fakeCreds)(nil)

func (f *fakeCreds) Load() (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	if f.loadErr != nil {
		return Record{}, f.loadErr
	}
	return f.rec, nil
}

func (f *fakeCreds) Save(rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.rec = rec
	return nil
}

func (f *fakeCreds) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	f.rec = Record{}
	return nil
}

// fakeNav records navigations; onReplace observes each one as it happens.
type fakeNav struct {
	path      string
	replaced  []string
	states    []map[string]string
	onReplace func(path string)
}

var _ Navigator = (*fakeNav)(nil)

func (f *fakeNav) Path() string { return f.path }

func (f *fakeNav) Replace(path string, state ...map[string]string) {
	f.replaced = append(f.replaced, path)
	if len(state) > 0 {
		f.states = append(f.states, state[0])
	} else {
		f.states = append(f.states, nil)
	}
	f.path = path
	if f.onReplace != nil {
		f.onReplace(path)
	}
}

type nopLogger struct{}

var _ core.Logger = (*nopLogger)(nil)

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}
