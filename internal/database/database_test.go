package database

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"resort/internal/config"
	"resort/internal/domain"
	"resort/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ domain.Database = (*DB)(nil)

func TestNewDB_DirectoryCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
	assert.Equal(t, dbPath, db.Path())
}

func TestNewDB_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")

	db, err := NewDB(dbPath, nil)
	require.NoError(t, err)
	createUser(t, db, "alice")
	require.NoError(t, db.Close())

	db, err = Open(config.DatabaseConfig{Driver: "sqlite", Path: dbPath}, nil)
	require.NoError(t, err)
	defer db.Close()

	u, err := db.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@resort.test", u.Email)
}

func TestNewDB_Memory(t *testing.T) {
	db, err := NewDB(":memory:", nil)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	err = db.WithTx(ctx, func(tx domain.Store) error {
		return tx.CreateUser(ctx, &models.User{Username: "mem"})
	})
	require.NoError(t, err)

	_, err = db.GetUserByUsername(ctx, "mem")
	assert.NoError(t, err)
}

func TestRebind(t *testing.T) {
	sqlite := &store{dialect: dialectSQLite}
	pg := &store{dialect: dialectPostgres}
	q := `UPDATE rooms SET stock = stock - ? WHERE id = ? AND stock >= ?`

	assert.Equal(t, q, sqlite.rebind(q))
	assert.Equal(t, `UPDATE rooms SET stock = stock - $1 WHERE id = $2 AND stock >= $3`, pg.rebind(q))

	assert.Equal(t, "SELECT 1", sqlite.forUpdate("SELECT 1"))
	assert.Equal(t, "SELECT 1 FOR UPDATE", pg.forUpdate("SELECT 1"))
}

func TestWithTx_Commit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx domain.Store) error {
		return tx.CreateUser(ctx, &models.User{Username: "bob"})
	})
	require.NoError(t, err)

	_, err = db.GetUserByUsername(ctx, "bob")
	assert.NoError(t, err)
}

func TestWithTx_CancelledContext(t *testing.T) {
	db := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := db.WithTx(ctx, func(tx domain.Store) error { return nil })
	assert.Error(t, err)
}

func TestUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	admin := &models.User{Username: "root", IsAdmin: true}
	require.NoError(t, db.CreateUser(ctx, admin))
	assert.NotZero(t, admin.ID)

	got, err := db.GetUserByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)

	_, err = db.GetUserByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, db.CreateUser(ctx, &models.User{Username: "root"}), "username is unique")

	users, err := db.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCatalog(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	room := createRoom(t, db, 2)
	got, err := db.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(room.Price))
	assert.True(t, got.Available)

	room.Available = false
	require.NoError(t, db.UpdateRoom(ctx, room))
	available, err := db.ListRooms(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, available)
	all, err := db.ListRooms(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	product := createProduct(t, db, "Sunscreen", 12, 4)
	product.Stock = 9
	require.NoError(t, db.UpdateProduct(ctx, product))
	p, err := db.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, p.Stock)

	require.NoError(t, db.DeleteProduct(ctx, product.ID))
	_, err = db.GetProduct(ctx, product.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.DeleteProduct(ctx, product.ID), ErrNotFound)

	require.NoError(t, db.DeleteRoom(ctx, room.ID))
	assert.ErrorIs(t, db.UpdateRoom(ctx, room), ErrNotFound)
}

func TestNegativeStockRejectedBySchema(t *testing.T) {
	db := setupTestDB(t)
	p := createProduct(t, db, "X", 1, 1)
	p.Stock = -1
	assert.Error(t, db.UpdateProduct(context.Background(), p))
}

func TestDB_ErrorPaths(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "closed.db"), &logger)
	require.NoError(t, err)
	db.Close()

	ctx := context.Background()

	_, err = db.GetUserByID(ctx, 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.Error(t, db.Reserve(ctx, models.KindRoom, 1, 1))
	assert.Error(t, db.CreateBooking(ctx, &models.Booking{}))
	_, err = db.ListOrders(ctx, models.ListFilter{})
	assert.Error(t, err)
	assert.Error(t, db.WithTx(ctx, func(tx domain.Store) error { return nil }))
}

func TestNewDB_BadPath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewDB(filepath.Join(file, "sub", "db.sqlite"), nil)
	assert.Error(t, err)
}
