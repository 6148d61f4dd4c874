package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/shopfront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

// RateLimitStore is the counter surface of the redis client.
type RateLimitStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// AuthRateLimitPolicy caps attempts per client IP and per submitted
// identifier within a fixed window. A zero limit disables that bucket.
type AuthRateLimitPolicy struct {
	name            string
	window          time.Duration
	ipLimit         int
	identifierLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, identifierLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, identifierLimit: identifierLimit}
}

// AuthRateLimit throttles the login and register endpoints. The identifier is
// the login handle or the registration email, lowercased and hashed before it
// becomes part of a key.
func AuthRateLimit(policy AuthRateLimitPolicy, store RateLimitStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || policy.window <= 0 || (policy.ipLimit <= 0 && policy.identifierLimit <= 0) {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.ipLimit > 0 {
				ip := clientIP(r)
				if !policy.check(ctx, w, store, logg, "ip", ip, policy.ipLimit) {
					return
				}
			}

			if policy.identifierLimit > 0 {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if id := submittedIdentifier(body); id != "" {
					sum := sha256.Sum256([]byte(id))
					if !policy.check(ctx, w, store, logg, "id", hex.EncodeToString(sum[:]), policy.identifierLimit) {
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// check counts one hit in the bucket and writes a 429 when it is over limit.
// It returns false when the request must stop.
func (p AuthRateLimitPolicy) check(ctx context.Context, w http.ResponseWriter, store RateLimitStore, logg *logger.Logger, bucket, value string, limit int) bool {
	if value == "" {
		return true
	}
	count, err := store.IncrWithTTL(ctx, "rl:"+bucket+":"+p.name+":"+value, p.window)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return false
	}
	if count <= int64(limit) {
		return true
	}

	logg.Warn(logg.WithFields(ctx, map[string]any{
		"policy":   p.name,
		"bucket":   bucket,
		"key":      value,
		"attempts": count,
		"limit":    limit,
	}), "auth.rate_limited")
	w.Header().Set("Retry-After", strconv.Itoa(int(p.window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "Too many attempts, try again later"))
	return false
}

// clientIP trusts the first X-Forwarded-For hop, then X-Real-IP.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func submittedIdentifier(payload []byte) string {
	var body struct {
		UsernameOrEmail string `json:"usernameOrEmail"`
		Email           string `json:"email"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return ""
	}
	id := body.UsernameOrEmail
	if id == "" {
		id = body.Email
	}
	return strings.ToLower(strings.TrimSpace(id))
}
