package api

import (
	"context"

	"ticketly-client/internal/models"
)

// AuthAPI wraps the /auth endpoints. Persisting the returned session is
// the caller's job; this layer only talks to the backend.
type AuthAPI struct {
	client *Client
}

func NewAuthAPI(client *Client) *AuthAPI {
	return &AuthAPI{client: client}
}

func (a *AuthAPI) Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	var result models.AuthResult
	if err := a.client.Post(ctx, "/auth/login", creds, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (a *AuthAPI) Register(ctx context.Context, reg models.Registration) (*models.AuthResult, error) {
	var result models.AuthResult
	if err := a.client.Post(ctx, "/auth/register", reg, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
