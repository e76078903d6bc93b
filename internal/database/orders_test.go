package database

import (
	"context"
	"strconv"
	"testing"

	"resort/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(userID int64, lines ...models.CartItem) *models.Order {
	o := &models.Order{UserID: userID, Status: models.OrderPending, ShippingAddress: "Pier 4", PhoneNumber: "555-0101"}
	for _, l := range lines {
		o.Items = append(o.Items, models.SnapshotCartItem(l))
	}
	o.FreezeTotals()
	return o
}

func TestOrders(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createUser(t, db, "erin")
	p := createProduct(t, db, "Towel", 5, 10)

	order := newOrder(user.ID, models.CartItem{ProductID: p.ID, ProductName: p.Name, ProductPrice: p.Price, Quantity: 3})
	require.NoError(t, db.CreateOrder(ctx, order))
	assert.NotZero(t, order.ID)
	assert.Equal(t, order.ID, order.Items[0].OrderID)
	assert.Equal(t, int64(1), order.Version)

	t.Run("GetFrozenSnapshot", func(t *testing.T) {
		p.Price = decimal.NewFromInt(99)
		require.NoError(t, db.UpdateProduct(ctx, p))

		got, err := db.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.True(t, decimal.NewFromInt(5).Equal(got.Items[0].ProductPrice))
		assert.True(t, decimal.NewFromInt(15).Equal(got.TotalPrice))
		assert.Equal(t, 3, got.TotalItems)
		assert.Equal(t, models.OrderPending, got.Status)
	})

	t.Run("Transition", func(t *testing.T) {
		ok, err := db.TransitionOrderStatus(ctx, order.ID, []models.OrderStatus{models.OrderConfirmed}, models.OrderCancelled)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = db.TransitionOrderStatus(ctx, order.ID, []models.OrderStatus{models.OrderPending}, models.OrderCancelled)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = db.TransitionOrderStatus(ctx, order.ID, []models.OrderStatus{models.OrderPending}, models.OrderCancelled)
		require.NoError(t, err)
		assert.False(t, ok, "second transition must not match")

		got, _ := db.GetOrder(ctx, order.ID)
		assert.Equal(t, models.OrderCancelled, got.Status)
		assert.Equal(t, int64(2), got.Version)

		ok, err = db.TransitionOrderStatus(ctx, order.ID, nil, models.OrderPending)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("SetStatus", func(t *testing.T) {
		require.NoError(t, db.SetOrderStatus(ctx, order.ID, models.OrderShipped))
		got, _ := db.GetOrder(ctx, order.ID)
		assert.Equal(t, models.OrderShipped, got.Status)
		assert.ErrorIs(t, db.SetOrderStatus(ctx, 999, models.OrderShipped), ErrNotFound)
	})

	t.Run("Lists", func(t *testing.T) {
		other := createUser(t, db, "frank")
		o2 := newOrder(other.ID, models.CartItem{ProductID: p.ID, ProductName: "Towel", ProductPrice: p.Price, Quantity: 1})
		o2.ShippingAddress = "Lagoon Villa"
		require.NoError(t, db.CreateOrder(ctx, o2))

		mine, err := db.ListOrdersByUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Len(t, mine[0].Items, 1)

		all, err := db.ListOrders(ctx, models.ListFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		byName, err := db.ListOrders(ctx, models.ListFilter{Keyword: "FRANK"})
		require.NoError(t, err)
		require.Len(t, byName, 1)
		assert.Equal(t, o2.ID, byName[0].ID)

		byAddress, err := db.ListOrders(ctx, models.ListFilter{Keyword: "lagoon"})
		require.NoError(t, err)
		assert.Len(t, byAddress, 1)

		byID, err := db.ListOrders(ctx, models.ListFilter{Keyword: strconv.FormatInt(order.ID, 10)})
		require.NoError(t, err)
		assert.NotEmpty(t, byID)

		page, err := db.ListOrders(ctx, models.ListFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Len(t, page, 1)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, db.DeleteOrder(ctx, order.ID))
		_, err := db.GetOrder(ctx, order.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, db.DeleteOrder(ctx, order.ID), ErrNotFound)

		var n int
		require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_items WHERE order_id = ?`, order.ID).Scan(&n))
		assert.Zero(t, n)
	})
}

func TestNumericKeyword(t *testing.T) {
	assert.Equal(t, int64(42), numericKeyword("42"))
	assert.Equal(t, int64(-1), numericKeyword("villa"))
}
