package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

// LoginPath is where logged-out navigation lands.
const LoginPath = "/login"

// Service performs the login, signup and logout calls on behalf of screens.
// Inputs are validated before any network round-trip; a validation failure
// surfaces to the caller with the session untouched.
type Service struct {
	store *Store
	creds Credentials
	api   API
	nav   Navigator
	log   core.Logger
}

func NewService(store *Store, creds Credentials, api API, nav Navigator, log core.Logger) *Service {
	return &Service{store: store, creds: creds, api: api, nav: nav, log: log}
}

func (svc *Service) Login(ctx context.Context, in user.Login) (user.User, error) {
	if err := in.Validate(); err != nil {
		return user.User{}, err
	}
	res, err := svc.api.Login(ctx, in)
	if err != nil {
		return user.User{}, err
	}
	svc.completeLogin(res)
	return res.User, nil
}

func (svc *Service) Register(ctx context.Context, in user.Register) (user.User, error) {
	if err := in.Validate(); err != nil {
		return user.User{}, err
	}
	res, err := svc.api.Register(ctx, in)
	if err != nil {
		return user.User{}, err
	}
	svc.completeLogin(res)
	return res.User, nil
}

func (svc *Service) RegisterInvited(ctx context.Context, in user.InviteRegistration) (user.User, error) {
	if err := in.Validate(); err != nil {
		return user.User{}, err
	}
	res, err := svc.api.RegisterInvited(ctx, in)
	if err != nil {
		return user.User{}, err
	}
	svc.completeLogin(res)
	return res.User, nil
}

// completeLogin persists the credential triple, commits the session and only
// then navigates, so any guard evaluating the new location already observes
// Authenticated.
func (svc *Service) completeLogin(res LoginResult) {
	raw, err := json.Marshal(res.User)
	if err != nil {
		svc.log.Warn(fmt.Sprintf("serializing user: %v", err))
	} else if err = svc.creds.Save(Record{
		AccessToken:    res.Token,
		RefreshToken:   res.RefreshToken,
		SerializedUser: string(raw),
	}); err != nil {
		// the in-memory session outlives a failed write; it just won't
		// survive a restart
		svc.log.Warn(fmt.Sprintf("persisting credentials: %v", err))
	}

	svc.store.login(res.User)
	svc.nav.Replace(res.User.Home())
}

// Logout terminates the session: credentials gone, Unauthenticated, back to
// the login screen. Idempotent; logging out twice only repeats the navigation.
func (svc *Service) Logout() {
	if err := svc.creds.Clear(); err != nil {
		svc.log.Warn(fmt.Sprintf("clearing credentials: %v", err))
	}
	svc.store.setUnauthenticated()
	svc.nav.Replace(LoginPath)
}
