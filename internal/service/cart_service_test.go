package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	s := NewCartService(db, testLogger())

	alice := seedUser(t, db, "alice", false)
	bob := seedUser(t, db, "bob", false)
	towel := seedProduct(t, db, "Towel", 10, 5)
	hat := seedProduct(t, db, "Sun Hat", 25, 1)

	t.Run("GetOrCreate", func(t *testing.T) {
		cart, err := s.GetOrCreate(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)

		again, err := s.GetOrCreate(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, cart.ID, again.ID)

		_, err = s.GetOrCreate(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("AddItemMerges", func(t *testing.T) {
		_, err := s.AddItem(ctx, alice.ID, towel.ID, 2)
		require.NoError(t, err)
		cart, err := s.AddItem(ctx, alice.ID, towel.ID, 3)
		require.NoError(t, err)

		require.Len(t, cart.Items, 1)
		assert.Equal(t, 5, cart.Items[0].Quantity)
		assert.True(t, decimal.NewFromInt(50).Equal(cart.TotalPrice()))
	})

	t.Run("AddItemDoesNotCheckStock", func(t *testing.T) {
		cart, err := s.AddItem(ctx, alice.ID, hat.ID, 4)
		require.NoError(t, err)
		assert.Equal(t, 9, cart.TotalItems())
		assert.Equal(t, 1, productStock(t, db, hat.ID))
	})

	t.Run("AddItemErrors", func(t *testing.T) {
		_, err := s.AddItem(ctx, alice.ID, towel.ID, 0)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		_, err = s.AddItem(ctx, alice.ID, 999, 1)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.AddItem(ctx, 999, towel.ID, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("UpdateItem", func(t *testing.T) {
		cart, err := s.GetOrCreate(ctx, alice.ID)
		require.NoError(t, err)
		line := cart.Items[0]

		cart, err = s.UpdateItem(ctx, alice.ID, line.ID, 7)
		require.NoError(t, err)
		updated, ok := cart.Item(line.ID)
		require.True(t, ok)
		assert.Equal(t, 7, updated.Quantity)

		_, err = s.UpdateItem(ctx, bob.ID, line.ID, 1)
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = s.UpdateItem(ctx, alice.ID, 999, 1)
		assert.ErrorIs(t, err, ErrNotFound)

		cart, err = s.UpdateItem(ctx, alice.ID, line.ID, 0)
		require.NoError(t, err)
		_, ok = cart.Item(line.ID)
		assert.False(t, ok)
	})

	t.Run("RemoveItem", func(t *testing.T) {
		cart, err := s.GetOrCreate(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		line := cart.Items[0]

		_, err = s.RemoveItem(ctx, bob.ID, line.ID)
		assert.ErrorIs(t, err, ErrForbidden)

		cart, err = s.RemoveItem(ctx, alice.ID, line.ID)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
		assert.True(t, cart.TotalPrice().IsZero())
	})

	t.Run("Clear", func(t *testing.T) {
		assert.ErrorIs(t, s.Clear(ctx, bob.ID), ErrNotFound)

		_, err := s.AddItem(ctx, bob.ID, towel.ID, 1)
		require.NoError(t, err)

		carts, err := s.ListCarts(ctx)
		require.NoError(t, err)
		assert.Len(t, carts, 2)

		require.NoError(t, s.ClearUserCart(ctx, bob.ID))
		carts, err = s.ListCarts(ctx)
		require.NoError(t, err)
		assert.Len(t, carts, 1)
	})
}
