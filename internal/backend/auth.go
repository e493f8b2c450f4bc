package backend

import (
	"context"
	"net/http"
)

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

// ForgotPassword asks the backend to issue a 6-digit recovery code. The
// backend deliberately answers the same way whether or not the email exists.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.sendJSON(ctx, nil, http.MethodPost, "/api/v1/auth/forgot-password", nil,
		forgotPasswordRequest{Email: email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	return c.sendJSON(ctx, nil, http.MethodPost, "/api/v1/auth/reset-password", nil,
		resetPasswordRequest{Email: email, OTP: otp, NewPassword: newPassword}, nil)
}
