package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/user"
)

func serializedUser(t *testing.T, usr user.User) string {
	t.Helper()
	raw, err := json.Marshal(usr)
	if err != nil {
		t.Fatalf("marshalling user: %v", err)
	}
	return string(raw)
}

func newSequencer(creds *fakeCreds, api *fakeAPI, nav *fakeNav) (*Sequencer, *Store) {
	store := NewStore()
	seq := NewSequencer(store, creds, api, nav, testConfig(), nopLogger{})
	return seq, store
}

func TestSequencer_noCredentials(t *testing.T) {
	creds := &fakeCreds{}
	api := &fakeAPI{}
	seq, store := newSequencer(creds, api, &fakeNav{path: "/dashboard"})

	seq.Run(context.Background())

	checkState(t, store, Unauthenticated)
	if api.initCalls != 0 {
		t.Errorf("InitializeAuth called %d times, want 0", api.initCalls)
	}
	// fully absent record: no persistence mutation
	if creds.clears != 0 {
		t.Errorf("Clear called %d times, want 0", creds.clears)
	}
}

func TestSequencer_partialCredentials(t *testing.T) {
	creds := &fakeCreds{rec: Record{AccessToken: "tok", RefreshToken: "ref"}}
	api := &fakeAPI{}
	seq, store := newSequencer(creds, api, &fakeNav{path: "/dashboard"})

	seq.Run(context.Background())

	checkState(t, store, Unauthenticated)
	if api.initCalls != 0 {
		t.Errorf("InitializeAuth called %d times, want 0", api.initCalls)
	}
	// partial record: cleaned up as a unit
	if creds.clears != 1 {
		t.Errorf("Clear called %d times, want 1", creds.clears)
	}
	if rec, _ := creds.Load(); !rec.Empty() {
		t.Errorf("record not fully cleared: %+v", rec)
	}
}

func TestSequencer_mockToken(t *testing.T) {
	usr := testUser(user.RoleInstructor)
	creds := &fakeCreds{rec: Record{
		AccessToken:    "mock-jwt-token-abc",
		RefreshToken:   "ref",
		SerializedUser: serializedUser(t, usr),
	}}
	api := &fakeAPI{}
	seq, store := newSequencer(creds, api, &fakeNav{path: "/dashboard"})

	seq.Run(context.Background())

	checkState(t, store, Authenticated)
	if got, _ := store.User(); got.ID != usr.ID || got.Role != usr.Role {
		t.Errorf("User() = %+v, want %+v", got, usr)
	}
	if api.initCalls != 0 {
		t.Errorf("InitializeAuth called %d times, want 0", api.initCalls)
	}
}

func TestSequencer_mockTokenBadUser(t *testing.T) {
	creds := &fakeCreds{rec: Record{
		AccessToken:    "mock-jwt-token-abc",
		RefreshToken:   "ref",
		SerializedUser: "{not json",
	}}
	seq, store := newSequencer(creds, &fakeAPI{}, &fakeNav{path: "/dashboard"})

	seq.Run(context.Background())

	checkState(t, store, Unauthenticated)
	if creds.clears != 1 {
		t.Errorf("Clear called %d times, want 1", creds.clears)
	}
}

func TestSequencer_verificationSuccess(t *testing.T) {
	usr := testUser(user.RoleAdmin)
	creds := &fakeCreds{rec: Record{
		AccessToken:    "real-token",
		RefreshToken:   "ref",
		SerializedUser: serializedUser(t, usr),
	}}
	api := &fakeAPI{initFn: func(ctx context.Context, accessToken, refreshToken string) (user.User, error) {
		if accessToken != "real-token" || refreshToken != "ref" {
			t.Errorf("InitializeAuth(%q, %q): wrong tokens", accessToken, refreshToken)
		}
		return usr, nil
	}}
	seq, store := newSequencer(creds, api, &fakeNav{path: "/dashboard"})

	seq.Run(context.Background())

	checkState(t, store, Authenticated)
	if api.initCalls != 1 {
		t.Errorf("InitializeAuth called %d times, want 1", api.initCalls)
	}
	if creds.clears != 0 {
		t.Errorf("Clear called %d times, want 0", creds.clears)
	}
}

func TestSequencer_verificationRejected(t *testing.T) {
	usr := testUser(user.RoleAdmin)
	creds := &fakeCreds{rec: Record{
		AccessToken:    "stale-token",
		RefreshToken:   "ref",
		SerializedUser: serializedUser(t, usr),
	}}
	api := &fakeAPI{initFn: func(ctx context.Context, accessToken, refreshToken string) (user.User, error) {
		return user.User{}, errors.New("401 unauthorized")
	}}
	seq, store := newSequencer(creds, api, &fakeNav{path: "/dashboard"})

	seq.Run(context.Background())

	checkState(t, store, Unauthenticated)
	if creds.clears != 1 {
		t.Errorf("Clear called %d times, want 1", creds.clears)
	}
	if rec, _ := creds.Load(); !rec.Empty() {
		t.Errorf("record not fully cleared: %+v", rec)
	}
}

func TestSequencer_verificationEmptyUser(t *testing.T) {
	creds := &fakeCreds{rec: Record{
		AccessToken:    "real-token",
		RefreshToken:   "ref",
		SerializedUser: "{}",
	}}
	// a nil error with a zero user payload is still a failed verification
	seq, store := newSequencer(creds, &fakeAPI{}, &fakeNav{path: "/dashboard"})

	seq.Run(context.Background())

	checkState(t, store, Unauthenticated)
	if creds.clears != 1 {
		t.Errorf("Clear called %d times, want 1", creds.clears)
	}
}

func TestSequencer_invitePath(t *testing.T) {
	creds := &fakeCreds{rec: Record{
		AccessToken:    "real-token",
		RefreshToken:   "ref",
		SerializedUser: "{}",
	}}
	api := &fakeAPI{}
	seq, store := newSequencer(creds, api, &fakeNav{path: "/invite/abc123"})

	seq.Run(context.Background())

	// invitation acceptance is public; stored credentials are not even read
	checkState(t, store, Unauthenticated)
	if creds.loadCalls != 0 {
		t.Errorf("Load called %d times, want 0", creds.loadCalls)
	}
	if api.initCalls != 0 {
		t.Errorf("InitializeAuth called %d times, want 0", api.initCalls)
	}
}

func TestSequencer_justLoggedIn(t *testing.T) {
	usr := testUser(user.RoleStudent)
	creds := &fakeCreds{}
	api := &fakeAPI{loginFn: func(ctx context.Context, in user.Login) (LoginResult, error) {
		return LoginResult{Token: "tok", RefreshToken: "ref", User: usr}, nil
	}}
	nav := &fakeNav{path: "/login"}
	store := NewStore()
	svc := NewService(store, creds, api, nav, nopLogger{})

	if _, err := svc.Login(context.Background(), user.Login{Email: "t@test.cd", Password: "12345678"}); err != nil {
		t.Fatalf("Login(): %v", err)
	}

	seq := NewSequencer(store, creds, api, nav, testConfig(), nopLogger{})
	seq.Run(context.Background())

	// the login's session survives; no redundant verification
	checkState(t, store, Authenticated)
	if api.initCalls != 0 {
		t.Errorf("InitializeAuth called %d times, want 0", api.initCalls)
	}
}

func TestSequencer_runsOnce(t *testing.T) {
	creds := &fakeCreds{}
	seq, store := newSequencer(creds, &fakeAPI{}, &fakeNav{path: "/dashboard"})

	seq.Run(context.Background())
	seq.Run(context.Background())

	checkState(t, store, Unauthenticated)
	if creds.loadCalls != 1 {
		t.Errorf("Load called %d times, want 1", creds.loadCalls)
	}
}

func TestSequencer_verificationTimeout(t *testing.T) {
	usr := testUser(user.RoleAdmin)
	creds := &fakeCreds{rec: Record{
		AccessToken:    "real-token",
		RefreshToken:   "ref",
		SerializedUser: serializedUser(t, usr),
	}}
	api := &fakeAPI{initFn: func(ctx context.Context, accessToken, refreshToken string) (user.User, error) {
		<-ctx.Done()
		return user.User{}, ctx.Err()
	}}
	store := NewStore()
	conf := testConfig()
	conf.Client.VerifyTimeout = 10 * time.Millisecond
	seq := NewSequencer(store, creds, api, &fakeNav{path: "/dashboard"}, conf, nopLogger{})

	done := make(chan struct{})
	go func() {
		seq.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sequencer did not terminate")
	}
	checkState(t, store, Unauthenticated)
}
