package auth

import (
	"github.com/angelmondragon/shopfront-backend/internal/users"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// LoginRequest accepts either the username or the email as identifier.
type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

// RegisterRequest is the public sign-up payload. Accounts always start with the USER role.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=50"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

// LoginResponse contains the tokens and identity produced by a successful login.
type LoginResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TokenType    string       `json:"tokenType"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	IsActive     bool         `json:"isActive"`
	Roles        []enums.Role `json:"roles"`
}

// TokenPair is returned by refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
}

// RegisterResponse wraps the created user.
type RegisterResponse struct {
	User *users.UserDTO `json:"user"`
}
