package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/darasahq/darasa/core/session"
	"github.com/darasahq/darasa/core/user"
)

type authApi struct {
	service *user.Service
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service) {
	api := authApi{service: svc}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)
	ag.POST("/register", api.register)
	ag.POST("/invite-register", api.inviteRegister)

	// authed endpoints
	ag.GET("/me", api.me, jwt)
	ag.POST("/refresh", api.refresh, jwt)
}

func registerInviteAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service) {
	api := authApi{service: svc}
	g.POST("/invites", api.inviteCreate, jwt, adminMiddleware())
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	data := new(user.Login)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := authenticate(data.Email, data.Password, api.service)
	if err != nil {
		return err
	}
	return api.loginResponse(ctx, usr)
}

func (api *authApi) register(ctx echo.Context) error {
	data := new(user.Register)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.service.Register(*data)
	if err != nil {
		return err
	}
	return api.loginResponse(ctx, usr)
}

func (api *authApi) inviteRegister(ctx echo.Context) error {
	data := new(user.InviteRegistration)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.service.RegisterInvited(*data)
	if err != nil {
		switch err {
		case user.ErrInviteNotFound, user.ErrInvalidToken, user.ErrTokenExpired:
			return errInvalidInvite
		}
		return err
	}
	return api.loginResponse(ctx, usr)
}

// me verifies the presented token and returns the canonical user record; the
// portal's session bootstrap hits this on startup.
func (api *authApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.service)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *authApi) refresh(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.service)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"token": token})
}

func (api *authApi) inviteCreate(ctx echo.Context) error {
	data := new(user.NewInvite)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	inv, err := api.service.Invite(*data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, inv)
}

// loginResponse issues the access/refresh token pair alongside the user; all
// three are persisted client-side as one credential record.
func (api *authApi) loginResponse(ctx echo.Context, usr user.User) error {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		return err
	}

	refreshClaims := GetUserClaims(usr, claims.OrigIssuedAt)
	refreshClaims.ExpiresAt = refreshClaims.IssuedAt + int64(jwtRefreshExpirationDelta.Seconds())
	refresh, err := GenerateToken(refreshClaims)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, session.LoginResult{
		Token:        token,
		RefreshToken: refresh,
		User:         usr,
	})
}
