package middleware

import (
	"context"

	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

type identityKey struct{}

// identity is the caller resolved from a verified access token.
type identity struct {
	userID   string
	username string
	roles    []enums.Role
}

func identityFrom(ctx context.Context) identity {
	if ctx == nil {
		return identity{}
	}
	id, _ := ctx.Value(identityKey{}).(identity)
	return id
}

func UserIDFromContext(ctx context.Context) string { return identityFrom(ctx).userID }

func UsernameFromContext(ctx context.Context) string { return identityFrom(ctx).username }

// RolesFromContext returns the roles granted by the access token.
func RolesFromContext(ctx context.Context) []enums.Role { return identityFrom(ctx).roles }

// WithIdentity stores the authenticated caller on ctx.
func WithIdentity(ctx context.Context, userID, username string, roles []enums.Role) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey{}, identity{userID: userID, username: username, roles: roles})
}
