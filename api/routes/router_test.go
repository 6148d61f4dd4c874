package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shopfront-backend/api"
	"github.com/angelmondragon/shopfront-backend/api/routes"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Status  int             `json:"status"`
}

type memSessions struct {
	mu   sync.Mutex
	live map[string]string
}

func newMemSessions() *memSessions {
	return &memSessions{live: map[string]string{}}
}

func (m *memSessions) Generate(_ context.Context, _ uuid.UUID, accessID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := uuid.NewString()
	m.live[accessID] = token
	return token, nil
}

func (m *memSessions) Rotate(_ context.Context, _ uuid.UUID, oldAccessID, provided string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.live[oldAccessID] != provided {
		return "", "", errors.New("invalid refresh token")
	}
	delete(m.live, oldAccessID)
	accessID, token := uuid.NewString(), uuid.NewString()
	m.live[accessID] = token
	return accessID, token, nil
}

func (m *memSessions) Revoke(_ context.Context, accessID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, accessID)
	return nil
}

func (m *memSessions) HasSession(_ context.Context, accessID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.live[accessID]
	return ok, nil
}

type memIdempotency struct {
	mu   sync.Mutex
	data map[string]string
}

func (s *memIdempotency) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (s *memIdempotency) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	switch v := value.(type) {
	case string:
		s.data[key] = v
	case []byte:
		s.data[key] = string(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return false, err
		}
		s.data[key] = string(raw)
	}
	return true, nil
}

func (s *memIdempotency) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (s *memIdempotency) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

type harness struct {
	t      *testing.T
	client *db.Client
	router http.Handler
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev, Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "shopfront-test",
			ExpirationMinutes: 15,
		},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8 * 1024,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
		Catalog:      config.CatalogConfig{DefaultPageSize: 10, MaxPageSize: 100},
		FeatureFlags: config.FeatureFlagsConfig{OrderIdempotency: true},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testConfig()
	client := dbtest.Open(t)
	sessions := newMemSessions()
	reg := prometheus.NewRegistry()

	services, err := api.BuildServices(api.ServiceDeps{
		Config:       cfg,
		DB:           client,
		Sessions:     sessions,
		OrderMetrics: metrics.NewOrderMetrics(reg),
	})
	require.NoError(t, err)

	router := routes.NewRouter(cfg, nil, routes.Infra{
		Sessions:    sessions,
		Idempotency: &memIdempotency{data: map[string]string{}},
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Gatherer:    reg,
	}, services)

	return &harness{t: t, client: client, router: router}
}

func (h *harness) do(method, path, token string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (h *harness) register(path, username string) {
	h.t.Helper()
	rec, _ := h.do(http.MethodPost, path, "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (h *harness) login(username string) string {
	h.t.Helper()
	rec, env := h.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"usernameOrEmail": username,
		"password":        "s3cret-pass",
	})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	var data struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(h.t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(h.t, data.AccessToken)
	return data.AccessToken
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), string(env.Data))
	return out
}

type idView struct {
	ID uuid.UUID `json:"id"`
}

func TestCheckoutAndCancelFlow(t *testing.T) {
	h := newHarness(t)

	h.register("/api/admin/v1/auth/register", "admin")
	adminToken := h.login("admin")

	rec, env := h.do(http.MethodPost, "/api/v1/categories", adminToken, map[string]string{"name": "Books"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	category := decodeData[idView](t, env)

	rec, env = h.do(http.MethodPost, "/api/v1/products", adminToken, map[string]any{
		"name":       "Go in Practice",
		"price":      "20.00",
		"quantity":   5,
		"categoryId": category.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := decodeData[idView](t, env)

	h.register("/api/v1/auth/register", "shopper")
	token := h.login("shopper")

	rec, _ = h.do(http.MethodPost, "/api/v1/cart/products/"+product.ID.String(), token,
		map[string]int{"quantity": 2}, "Idempotency-Key", "add-1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = h.do(http.MethodPost, "/api/v1/orders", token, nil, "Idempotency-Key", "order-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decodeData[struct {
		ID          uuid.UUID       `json:"id"`
		Status      string          `json:"status"`
		TotalAmount decimal.Decimal `json:"totalAmount"`
	}](t, env)
	assert.Equal(t, "PENDING", order.Status)
	assert.True(t, decimal.NewFromInt(40).Equal(order.TotalAmount), order.TotalAmount.String())

	stock := dbtest.ProductStock(t, h.client, &models.Product{ID: product.ID})
	assert.Equal(t, 3, stock)

	rec, env = h.do(http.MethodPost, "/api/v1/orders", token, nil, "Idempotency-Key", "order-1")
	require.Equal(t, http.StatusCreated, rec.Code, "replayed response")
	assert.Equal(t, order.ID, decodeData[idView](t, env).ID)

	rec, env = h.do(http.MethodGet, "/api/v1/orders", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]idView](t, env), 1)

	rec, env = h.do(http.MethodGet, "/api/v1/cart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cartView := decodeData[struct {
		Items []json.RawMessage `json:"items"`
	}](t, env)
	assert.Empty(t, cartView.Items)

	orderPath := "/api/v1/orders/" + order.ID.String()
	rec, _ = h.do(http.MethodPut, orderPath+"/cancel", token, nil, "Idempotency-Key", "cancel-1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = h.do(http.MethodGet, orderPath, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decodeData[struct {
		Status          string            `json:"status"`
		TrackingHistory []json.RawMessage `json:"trackingHistory"`
	}](t, env)
	assert.Equal(t, "CANCELLED", detail.Status)
	assert.Len(t, detail.TrackingHistory, 2)

	assert.Equal(t, 5, dbtest.ProductStock(t, h.client, &models.Product{ID: product.ID}))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t)

	rec, env := h.do(http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, http.StatusUnauthorized, env.Status)

	rec, _ = h.do(http.MethodGet, "/api/v1/orders", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCatalogWritesRequireAdmin(t *testing.T) {
	h := newHarness(t)
	h.register("/api/v1/auth/register", "shopper")
	token := h.login("shopper")

	rec, env := h.do(http.MethodPost, "/api/v1/products", token, map[string]any{
		"name":     "Nope",
		"price":    "1.00",
		"quantity": 1,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied", env.Message)

	rec, _ = h.do(http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	h := newHarness(t)
	h.register("/api/v1/auth/register", "leaver")
	token := h.login("leaver")

	rec, _ := h.do(http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = h.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = h.do(http.MethodGet, "/api/v1/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	h := newHarness(t)

	rec, env := h.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, _ = h.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
