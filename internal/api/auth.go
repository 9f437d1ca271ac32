package api

import (
	"context"
	"net/http"

	"github.com/exam-portal/portal-client/internal/model"
)

// Login exchanges credentials for a bearer token. The token is returned
// to the caller but not installed on the client; call SetToken once the
// credential profile is established.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	var res model.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Register creates a new portal account.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
