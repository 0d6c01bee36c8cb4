package sdk

import (
	"context"
	"fmt"
	"net/http"
)

// Login exchanges email and password for a bearer credential. It does not
// touch the TokenStore; persisting the credential is the session's job.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	input := LoginRequest{Email: email, Password: password}
	if err := Validate(input); err != nil {
		return nil, err
	}

	var resp LoginResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/users/login",
		body:   input,
		public: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("login response carried no access token")
	}
	return &resp, nil
}

// Logout asks the backend to revoke the current credential.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/users/logout",
	}, nil)
}

// CreateUser registers a new account (admin only).
func (c *Client) CreateUser(ctx context.Context, input NewUser) (*User, error) {
	if err := Validate(input); err != nil {
		return nil, err
	}
	var user User
	if err := c.do(ctx, request{method: http.MethodPost, path: "/users/register", body: input}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns every account.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users"}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListDoctors returns the accounts with the doctor role.
func (c *Client) ListDoctors(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users/doctors"}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches one account. The session uses it to verify a stored identity.
func (c *Client) GetUser(ctx context.Context, id int64) (*User, error) {
	var user User
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/users/{id}",
		path:   idPath("/users/%d", id),
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser changes profile fields and optionally the password.
func (c *Client) UpdateUser(ctx context.Context, id int64, input UpdateUser) (*User, error) {
	if err := Validate(input); err != nil {
		return nil, err
	}
	var user User
	err := c.do(ctx, request{
		method: http.MethodPut,
		route:  "/users/{id}",
		path:   idPath("/users/%d", id),
		body:   input,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		route:  "/users/{id}",
		path:   idPath("/users/%d", id),
	}, nil)
}
