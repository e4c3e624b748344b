package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/session"
	"github.com/darasahq/darasa/core/user"
)

// Error is a server-rejected call: bad credentials, invalid invitation token,
// expired session. Anything else (network, decoding) comes back wrapped.
type Error struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %s (%d)", e.Message, e.Code)
}

// Client talks to the Darasa REST API. It implements session.API.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ session.API = (*Client)(nil)

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) InitializeAuth(ctx context.Context, accessToken, refreshToken string) (user.User, error) {
	var usr user.User
	err := c.do(ctx, http.MethodGet, "/v1/auth/me", accessToken, nil, &usr)
	return usr, err
}

func (c *Client) Login(ctx context.Context, in user.Login) (session.LoginResult, error) {
	var res session.LoginResult
	err := c.do(ctx, http.MethodPost, "/v1/auth/login", "", in, &res)
	return res, err
}

func (c *Client) Register(ctx context.Context, in user.Register) (session.LoginResult, error) {
	var res session.LoginResult
	err := c.do(ctx, http.MethodPost, "/v1/auth/register", "", in, &res)
	return res, err
}

func (c *Client) RegisterInvited(ctx context.Context, in user.InviteRegistration) (session.LoginResult, error) {
	var res session.LoginResult
	err := c.do(ctx, http.MethodPost, "/v1/auth/invite-register", "", in, &res)
	return res, err
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling API")
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Code: resp.StatusCode}
		if err = json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out != nil {
		if err = json.Unmarshal(data, out); err != nil {
			return errors.Wrap(err, "decoding response")
		}
	}
	return nil
}
