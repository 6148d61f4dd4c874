package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// AccessTokenPayload is what the login and refresh flows know about a user
// when they mint a token. JTI doubles as the refresh session key; a blank JTI
// is replaced with a random uuid.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Username string
	Roles    []enums.Role
	JTI      string
}

func (p AccessTokenPayload) validate() error {
	switch {
	case p.UserID == uuid.Nil:
		return errors.New("user id is required")
	case strings.TrimSpace(p.Username) == "":
		return errors.New("username is required")
	case len(p.Roles) == 0:
		return errors.New("at least one role is required")
	}
	for _, r := range p.Roles {
		if !r.IsValid() {
			return fmt.Errorf("invalid role %q", r)
		}
	}
	return nil
}

// AccessTokenClaims is the decoded access token. sub carries the username.
type AccessTokenClaims struct {
	UserID uuid.UUID    `json:"user_id"`
	Roles  []enums.Role `json:"roles"`
	jwt.RegisteredClaims
}

func (c *AccessTokenClaims) Username() string {
	return c.Subject
}

func (c *AccessTokenClaims) HasRole(role enums.Role) bool {
	return enums.HasRole(c.Roles, role)
}
