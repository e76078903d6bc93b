package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"resort/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, db *DB, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@resort.test"}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func createRoom(t *testing.T, db *DB, stock int) *models.Room {
	t.Helper()
	r := &models.Room{
		Name:      "Sea View",
		Type:      "double",
		Price:     decimal.NewFromInt(100),
		Capacity:  2,
		Available: true,
		Stock:     stock,
	}
	require.NoError(t, db.CreateRoom(context.Background(), r))
	return r
}

func createProduct(t *testing.T, db *DB, name string, price int64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.NewFromInt(price), Stock: stock}
	require.NoError(t, db.CreateProduct(context.Background(), p))
	return p
}
