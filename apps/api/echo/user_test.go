package echoapi

import (
	"encoding/json"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/darasahq/darasa/core/session"
	"github.com/darasahq/darasa/core/user"
)

func Test_authApi_login(t *testing.T) {
	usr := createUser(t, "Active User", "active@test.cd", "12345678", user.RoleStudent, true)
	createUser(t, "Naughty User", "naughty@test.cd", "12345678", user.RoleStudent, false)

	body := func(email, pwd string) []byte {
		return marchallObj(t, user.Login{Email: email, Password: pwd})
	}

	tests := []httpTest{
		{
			name: "empty body", wantCode: http.StatusBadRequest, body: body("", ""),
			wantData: marchallObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{
			name: "invalid email", wantCode: http.StatusBadRequest, body: body("nope", "12345678"),
			wantData: marchallObj(t, map[string]string{"email": "enter a valid email address"}),
		},
		{
			name: "unknown user", wantCode: http.StatusBadRequest, body: body("ghost@test.cd", "12345678"),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest, body: body("active@test.cd", "wrong678"),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", wantCode: http.StatusForbidden, body: body("naughty@test.cd", "12345678"),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("login ok", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/login", body("active@test.cd", "12345678"))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want 200; body %s", rec.Code, rec.Body.String())
		}

		var res session.LoginResult
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if res.Token == "" || res.RefreshToken == "" {
			t.Error("missing token pair in response")
		}
		if res.User.ID != usr.ID {
			t.Errorf("user = %+v; want %+v", res.User, usr)
		}
		if res.User.LastLogin.IsZero() {
			t.Error("lastLogin not set")
		}

		// issued access token passes the auth middleware
		req, rec = newAuthRequest(http.MethodGet, "/v1/auth/me", res.Token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("me with fresh token: code = %v; body %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_authApi_register(t *testing.T) {
	createUser(t, "Taken Email", "taken@test.cd", "12345678", user.RoleStudent, true)

	regBody := func(mutate ...func(*user.Register)) []byte {
		r := user.Register{
			Name:            "New Student",
			Email:           "student@test.cd",
			Password:        "12345678",
			PasswordConfirm: "12345678",
			AcceptTerms:     true,
		}
		for _, m := range mutate {
			m(&r)
		}
		return marchallObj(t, r)
	}

	tests := []httpTest{
		{
			name: "password mismatch", wantCode: http.StatusBadRequest,
			body:     regBody(func(r *user.Register) { r.PasswordConfirm = "87654321" }),
			wantData: marchallObj(t, map[string]string{"password_confirm": "does not match"}),
		},
		{
			name: "terms not accepted", wantCode: http.StatusBadRequest,
			body:     regBody(func(r *user.Register) { r.AcceptTerms = false }),
			wantData: marchallObj(t, map[string]string{"accept_terms": "the terms of use must be accepted"}),
		},
		{
			name: "email taken", wantCode: http.StatusBadRequest,
			body:     regBody(func(r *user.Register) { r.Email = "taken@test.cd" }),
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/register", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("register ok", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/register", regBody())
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}

		var res session.LoginResult
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		// public sign-up is student-only
		if res.User.Role != user.RoleStudent {
			t.Errorf("role = %q; want %q", res.User.Role, user.RoleStudent)
		}
		if !res.User.IsActive {
			t.Error("new account not active")
		}
	})
}

var inviteLinkRx = regexp.MustCompile(`/invite/(\S+)`)

// issueInvite goes through the admin endpoint and fishes the token out of the
// invitation email.
func issueInvite(t *testing.T, adminToken, email, role string) string {
	t.Helper()
	body := marchallObj(t, user.NewInvite{Email: email, Role: role})
	req, rec := newAuthRequest(http.MethodPost, "/v1/invites", adminToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("issueInvite(): code = %v; body %s", rec.Code, rec.Body.String())
	}

	msgs := mailSvc.SentMessages()
	if len(msgs) == 0 {
		t.Fatal("issueInvite(): no invitation email sent")
	}
	m := inviteLinkRx.FindStringSubmatch(msgs[len(msgs)-1].Body)
	if m == nil {
		t.Fatalf("issueInvite(): no invitation link in %q", msgs[len(msgs)-1].Body)
	}
	return m[1]
}

func Test_authApi_inviteFlow(t *testing.T) {
	admin := createUser(t, "The Admin", "admin@test.cd", "12345678", user.RoleAdmin, true)
	student := createUser(t, "Mere Student", "mere@test.cd", "12345678", user.RoleStudent, true)
	adminToken := getToken(t, admin)

	inviteBody := marchallObj(t, user.NewInvite{Email: "invited@test.cd", Role: user.RoleInstructor})

	tests := []httpTest{
		{
			name: "Auth required", path: "/v1/invites", body: inviteBody,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Admin required", path: "/v1/invites", body: inviteBody, token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "unknown role rejected", path: "/v1/invites", token: adminToken,
			body:     marchallObj(t, user.NewInvite{Email: "invited@test.cd", Role: "janitor"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"role": "unknown role"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("invite redeemed", func(t *testing.T) {
		token := issueInvite(t, adminToken, "invited@test.cd", user.RoleInstructor)

		body := marchallObj(t, user.InviteRegistration{
			Token:           token,
			Name:            "Invited Instructor",
			Password:        "12345678",
			PasswordConfirm: "12345678",
			AcceptTerms:     true,
		})
		req, rec := newRequest(http.MethodPost, "/v1/auth/invite-register", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}

		var res session.LoginResult
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		// the account takes the invitation's email and role
		if res.User.Email != "invited@test.cd" {
			t.Errorf("email = %q; want invited@test.cd", res.User.Email)
		}
		if res.User.Role != user.RoleInstructor {
			t.Errorf("role = %q; want %q", res.User.Role, user.RoleInstructor)
		}

		// an invitation is single-use
		req, rec = newRequest(http.MethodPost, "/v1/auth/invite-register", body)
		app.ServeHTTP(rec, req)
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid or expired invitation"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("tampered token rejected", func(t *testing.T) {
		token := issueInvite(t, adminToken, "other@test.cd", user.RoleStudent)
		req, rec := newRequest(http.MethodPost, "/v1/auth/invite-register", marchallObj(t, user.InviteRegistration{
			Token:           token + "x",
			Name:            "Sneaky",
			Password:        "12345678",
			PasswordConfirm: "12345678",
			AcceptTerms:     true,
		}))
		app.ServeHTTP(rec, req)
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid or expired invitation"}),
		}
		checkCodeAndData(t, tt, rec)
	})
}

func Test_authApi_me(t *testing.T) {
	usr := createUser(t, "Me User", "me@test.cd", "12345678", user.RoleInstructor, true)

	t.Run("no token", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/auth/me")
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/auth/me", getToken(t, usr))
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, usr)}
		checkCodeAndData(t, tt, rec)
	})
}

func Test_authApi_refresh(t *testing.T) {
	usr := createUser(t, "Refresh User", "refresh@test.cd", "12345678", user.RoleStudent, true)

	t.Run("ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/auth/refresh", getToken(t, usr))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var res struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if res.Token == "" {
			t.Error("missing refreshed token")
		}
	})

	t.Run("refresh window expired", func(t *testing.T) {
		stale := time.Now().Add(-(conf.Server.JWTRefreshExpirationDelta + time.Hour)).Unix()
		claims := GetUserClaims(usr, stale)
		token, err := GenerateToken(claims)
		if err != nil {
			t.Fatalf("GenerateToken(): %v", err)
		}

		req, rec := newAuthRequest(http.MethodPost, "/v1/auth/refresh", token)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})}
		checkCodeAndData(t, tt, rec)
	})
}
