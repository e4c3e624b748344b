package nav

import (
	"github.com/darasahq/darasa/core/session"
)

// Action is what the shell should do with a requested location.
type Action int

const (
	// Wait renders the blocking loading indicator; no screen, no redirect.
	Wait Action = iota
	// Admit renders the requested screen inside the authenticated shell.
	Admit
	// Redirect sends the visitor to the login screen instead.
	Redirect
)

// Resolution is a Guard decision. RedirectTo is only meaningful for Redirect;
// its state carries the originally requested path under "from" so a later
// login can send the user back.
type Resolution struct {
	Action     Action
	RedirectTo Location
}

// Guard gates every screen except login, signup and invitation acceptance.
// It only ever reads the session store; status changes are the bootstrap
// sequencer's and the login/logout calls' business.
type Guard struct {
	store *session.Store
}

func NewGuard(store *session.Store) *Guard {
	return &Guard{store: store}
}

func (g *Guard) Resolve(loc Location) Resolution {
	if isPublic(loc.Path) {
		return Resolution{Action: Admit}
	}
	switch g.store.Status() {
	case session.Loading:
		return Resolution{Action: Wait}
	case session.Authenticated:
		return Resolution{Action: Admit}
	}
	return Resolution{
		Action: Redirect,
		RedirectTo: Location{
			Path:  session.LoginPath,
			State: map[string]string{"from": loc.Path},
		},
	}
}

func isPublic(path string) bool {
	if path == session.LoginPath || path == "/signup" {
		return true
	}
	return session.IsInvitePath(path)
}
