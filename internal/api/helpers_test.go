package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"resort/internal/config"
	"resort/internal/database"
	"resort/internal/events"
	"resort/internal/export"
	"resort/internal/models"
	"resort/internal/repository"
	"resort/internal/service"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	adminKey = "admin-key"
	guestKey = "guest-key"
	otherKey = "other-key"
)

type testEnv struct {
	db     *database.DB
	server *HTTPServer
	ts     *httptest.Server
	admin  *models.User
	guest  *models.User
	other  *models.User
}

func newTestEnv(t *testing.T, mutate func(*config.APIConfig)) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{db: db}
	env.admin = &models.User{Username: "manager", IsAdmin: true}
	env.guest = &models.User{Username: "guest"}
	env.other = &models.User{Username: "other"}
	for _, u := range []*models.User{env.admin, env.guest, env.other} {
		require.NoError(t, db.CreateUser(ctx, u))
	}

	cfg := config.APIConfig{
		Auth: config.APIAuthConfig{
			HeaderAPIKey: "x-api-key",
			APIKeys: []config.APIClientKey{
				{Key: adminKey, Username: "manager"},
				{Key: guestKey, Username: "guest"},
				{Key: otherKey, Username: "other"},
			},
		},
		WriteLimit: config.APIWriteLimitConfig{Limit: 100, Window: time.Minute},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	bus := events.NewEventBus()
	env.server = NewHTTPServer(cfg, Services{
		Users:    service.NewUserService(db, cfg.Auth.APIKeys, &logger),
		Carts:    service.NewCartService(db, &logger),
		Orders:   service.NewOrderService(db, bus, &logger),
		Bookings: service.NewBookingService(db, bus, 0, &logger),
		Catalog:  service.NewCatalogService(db, &logger),
		Reviews:  service.NewReviewService(db, &logger),
		Exporter: export.NewExporter("", &logger),
		Limiter:  repository.NewMemoryRateLimiter(),
		DB:       db,
	}, &logger)

	env.ts = httptest.NewServer(env.server.Handler())
	t.Cleanup(env.ts.Close)
	return env
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path, key string, body any) (int, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func decodeData[T any](t *testing.T, resp apiResponse) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v))
	return v
}

func (e *testEnv) room(t *testing.T, stock int) *models.Room {
	t.Helper()
	r := &models.Room{Name: "Sea View", Price: decimal.NewFromInt(100), Capacity: 2, Available: true, Stock: stock}
	require.NoError(t, e.db.CreateRoom(context.Background(), r))
	return r
}

func (e *testEnv) product(t *testing.T, name string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.NewFromInt(10), Stock: stock}
	require.NoError(t, e.db.CreateProduct(context.Background(), p))
	return p
}
