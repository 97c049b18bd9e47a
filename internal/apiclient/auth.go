package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/myfan-dev/myfan/console/internal/domain"
)

func (c *Client) Login(ctx context.Context, email, password string) (*domain.Token, error) {
	var token domain.Token
	req := domain.LoginRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", req, &token); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("login: 后端没有返回 access_token")
	}
	return &token, nil
}

// Logout 让后端作废当前的 token，需要在 WithToken 返回的客户端上调用
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	if err := c.doJSON(ctx, http.MethodPost, "/auth/password/reset", domain.PasswordResetRequest{Email: email}, nil); err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}
	return nil
}

func (c *Client) VerifyPasswordReset(ctx context.Context, email, newPassword string) error {
	req := domain.PasswordVerifyRequest{Email: email, NewPassword: newPassword}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/password/verify", req, nil); err != nil {
		return fmt.Errorf("verify password reset: %w", err)
	}
	return nil
}
