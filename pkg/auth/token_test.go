package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

func jwtConfig(minutes int) config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "shopfront", ExpirationMinutes: minutes}
}

func mint(t *testing.T, cfg config.JWTConfig, at time.Time, username string, roles ...enums.Role) string {
	t.Helper()
	if len(roles) == 0 {
		roles = []enums.Role{enums.RoleUser}
	}
	token, err := MintAccessToken(cfg, at, AccessTokenPayload{UserID: uuid.New(), Username: username, Roles: roles})
	require.NoError(t, err)
	return token
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := jwtConfig(30)
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{
		UserID:   userID,
		Username: "alice",
		Roles:    []enums.Role{enums.RoleUser, enums.RoleAdmin},
		JTI:      "access-1",
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice", claims.Username())
	assert.True(t, claims.HasRole(enums.RoleAdmin))
	assert.True(t, claims.HasRole(enums.RoleUser))
	assert.Equal(t, "access-1", claims.ID)
	assert.Equal(t, cfg.Issuer, claims.Issuer)
	assert.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
	assert.WithinDuration(t, now, claims.NotBefore.Time, time.Second)
}

func TestMintFillsBlankJTI(t *testing.T) {
	cfg := jwtConfig(5)
	claims, err := ParseAccessToken(cfg, mint(t, cfg, time.Now(), "bob"))
	require.NoError(t, err)

	_, err = uuid.Parse(claims.ID)
	assert.NoError(t, err, "jti %q", claims.ID)
}

func TestMintRejectsBadInput(t *testing.T) {
	good := AccessTokenPayload{UserID: uuid.New(), Username: "x", Roles: []enums.Role{enums.RoleUser}}
	cases := map[string]struct {
		cfg     config.JWTConfig
		payload AccessTokenPayload
	}{
		"no secret":      {config.JWTConfig{Issuer: "i", ExpirationMinutes: 1}, good},
		"no issuer":      {config.JWTConfig{Secret: "s", ExpirationMinutes: 1}, good},
		"no ttl":         {config.JWTConfig{Secret: "s", Issuer: "i"}, good},
		"missing roles":  {jwtConfig(5), AccessTokenPayload{UserID: uuid.New(), Username: "x"}},
		"invalid role":   {jwtConfig(5), AccessTokenPayload{UserID: uuid.New(), Username: "x", Roles: []enums.Role{"ROOT"}}},
		"missing user":   {jwtConfig(5), AccessTokenPayload{Username: "x", Roles: []enums.Role{enums.RoleUser}}},
		"blank username": {jwtConfig(5), AccessTokenPayload{UserID: uuid.New(), Username: "  ", Roles: []enums.Role{enums.RoleUser}}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := MintAccessToken(tc.cfg, time.Now(), tc.payload)
			assert.Error(t, err)
		})
	}
}

func TestParseRejectsTamperedAndForeignTokens(t *testing.T) {
	cfg := jwtConfig(10)
	token := mint(t, cfg, time.Now(), "carol")

	_, err := ParseAccessToken(cfg, token+"x")
	assert.Error(t, err)

	other := cfg
	other.Secret = "another"
	_, err = ParseAccessToken(other, token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	cfg := jwtConfig(5)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, AccessTokenClaims{
		UserID:           uuid.New(),
		Roles:            []enums.Role{enums.RoleAdmin},
		RegisteredClaims: jwt.RegisteredClaims{Subject: "mallory", Issuer: cfg.Issuer},
	}).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, signed)
	assert.Error(t, err)
}

func TestExpiredTokenOnlyParsesWhenAllowed(t *testing.T) {
	cfg := jwtConfig(15)
	token := mint(t, cfg, time.Now().Add(-time.Hour), "dave")

	_, err := ParseAccessToken(cfg, token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	claims, err := ParseAccessTokenAllowExpired(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "dave", claims.Username())
}

func TestParseAllowExpiredStillChecksIssuer(t *testing.T) {
	cfg := jwtConfig(5)
	token := mint(t, cfg, time.Now().Add(-time.Hour), "erin")

	other := cfg
	other.Issuer = "someone-else"
	_, err := ParseAccessTokenAllowExpired(other, token)
	assert.ErrorIs(t, err, errIssuer)
}

func TestParseToleratesSmallClockSkew(t *testing.T) {
	cfg := jwtConfig(5)
	token := mint(t, cfg, time.Now().Add(2*time.Second), "frank")

	_, err := ParseAccessToken(cfg, token)
	assert.NoError(t, err)
}
