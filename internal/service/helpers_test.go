package service

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"resort/internal/database"
	"resort/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func setupDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "service.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *database.DB, name string, admin bool) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@resort.test", IsAdmin: admin}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func seedRoom(t *testing.T, db *database.DB, price int64, capacity, stock int) *models.Room {
	t.Helper()
	r := &models.Room{
		Name:      "Lagoon Villa",
		Type:      "villa",
		Price:     decimal.NewFromInt(price),
		Capacity:  capacity,
		Available: true,
		Stock:     stock,
	}
	require.NoError(t, db.CreateRoom(context.Background(), r))
	return r
}

func seedProduct(t *testing.T, db *database.DB, name string, price int64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.NewFromInt(price), Stock: stock}
	require.NoError(t, db.CreateProduct(context.Background(), p))
	return p
}

func roomStock(t *testing.T, db *database.DB, id int64) int {
	t.Helper()
	r, err := db.GetRoom(context.Background(), id)
	require.NoError(t, err)
	return r.Stock
}

func productStock(t *testing.T, db *database.DB, id int64) int {
	t.Helper()
	p, err := db.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}
