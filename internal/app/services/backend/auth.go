package backend

import (
	"context"
	"net/http"

	"github.com/kaayjang/kaayjang-web/internal/app/models"
)

// Me returns the identity bound to token (GET /auth/me).
func (c *Client) Me(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := c.do(ctx, call{
		op:     "auth.me",
		method: http.MethodGet,
		path:   "/auth/me",
		token:  token,
		out:    &user,
		mapErr: func(status int, detail string) error {
			// HTTPBearer answers 403 when the credential is missing or unusable.
			if status == http.StatusUnauthorized || status == http.StatusForbidden {
				return &models.AuthenticationError{Status: status, Message: detail}
			}
			return defaultError(status, detail)
		},
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token and identity (POST /auth/login).
// Any rejection is an AuthenticationError.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.do(ctx, call{
		op:     "auth.login",
		method: http.MethodPost,
		path:   "/auth/login",
		body:   req,
		out:    &out,
		mapErr: func(status int, detail string) error {
			if status >= 500 {
				return &models.APIError{Status: status, Message: detail}
			}
			return &models.AuthenticationError{Status: status, Message: detail}
		},
	})
	if err != nil {
		return nil, err
	}
	if err := validAuthResponse(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and signs it in (POST /auth/register).
// 4xx rejections, such as a duplicate email, are RegistrationErrors.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.do(ctx, call{
		op:     "auth.register",
		method: http.MethodPost,
		path:   "/auth/register",
		body:   req,
		out:    &out,
		mapErr: func(status int, detail string) error {
			if status >= 400 && status < 500 {
				return &models.RegistrationError{Status: status, Message: detail}
			}
			return &models.APIError{Status: status, Message: detail}
		},
	})
	if err != nil {
		return nil, err
	}
	if err := validAuthResponse(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMe saves profile fields (PUT /auth/me) and returns the stored identity.
func (c *Client) UpdateMe(ctx context.Context, token string, update models.ProfileUpdate) (*models.User, error) {
	var user models.User
	err := c.do(ctx, call{
		op:     "auth.update_me",
		method: http.MethodPut,
		path:   "/auth/me",
		token:  token,
		body:   update,
		out:    &user,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func validAuthResponse(r *models.AuthResponse) error {
	if r.AccessToken == "" || r.User == nil || r.User.ID == "" {
		return &models.APIError{Status: http.StatusOK, Message: "auth response without token or user"}
	}
	return nil
}
