package domain

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" label:"メールアドレス"`
	Password string `json:"password" validate:"required" label:"パスワード"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email" label:"メールアドレス"`
}

type PasswordVerifyRequest struct {
	Email       string `json:"email" validate:"required,email" label:"メールアドレス"`
	NewPassword string `json:"newPassword" validate:"required,min=8" label:"新しいパスワード"`
}
