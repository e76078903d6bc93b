package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	t.Run("PendingReachesEverything", func(t *testing.T) {
		for _, to := range []OrderStatus{OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled} {
			assert.True(t, OrderPending.CanTransition(to), to)
		}
	})

	t.Run("CancelOnlyFromPending", func(t *testing.T) {
		for _, from := range []OrderStatus{OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled} {
			assert.False(t, from.CanTransition(OrderCancelled), from)
		}
	})

	t.Run("Terminal", func(t *testing.T) {
		assert.True(t, OrderCancelled.Terminal())
		assert.True(t, OrderDelivered.Terminal())
		assert.False(t, OrderPending.Terminal())
		assert.False(t, OrderShipped.Terminal())
	})

	t.Run("Parse", func(t *testing.T) {
		s, err := ParseOrderStatus(" shipped ")
		require.NoError(t, err)
		assert.Equal(t, OrderShipped, s)

		_, err = ParseOrderStatus("LOST")
		assert.Error(t, err)
		assert.False(t, OrderStatus("LOST").Valid())
	})
}

func TestBookingStatusTransitions(t *testing.T) {
	assert.ElementsMatch(t, []BookingStatus{BookingPending, BookingConfirmed}, CancellableBookingStatuses())
	assert.False(t, BookingCancelled.CanTransition(BookingCancelled))
	assert.False(t, BookingCompleted.CanTransition(BookingPending))

	s, err := ParseBookingStatus("completed")
	require.NoError(t, err)
	assert.Equal(t, BookingCompleted, s)

	_, err = ParseBookingStatus("CHECKED_IN")
	assert.Error(t, err)
}

func TestCartTotals(t *testing.T) {
	cart := &Cart{Items: []CartItem{
		{ID: 1, ProductID: 10, Quantity: 3, ProductPrice: decimal.RequireFromString("2.50")},
		{ID: 2, ProductID: 11, Quantity: 1, ProductPrice: decimal.NewFromInt(7)},
	}}

	assert.True(t, decimal.RequireFromString("14.50").Equal(cart.TotalPrice()))
	assert.Equal(t, 4, cart.TotalItems())

	item, ok := cart.Item(2)
	require.True(t, ok)
	assert.Equal(t, int64(11), item.ProductID)

	_, ok = cart.Item(99)
	assert.False(t, ok)

	empty := &Cart{}
	assert.True(t, empty.TotalPrice().IsZero())
	assert.Equal(t, 0, empty.TotalItems())
}

func TestOrderSnapshotAndFreeze(t *testing.T) {
	line := CartItem{ProductID: 5, ProductName: "Sunscreen", ProductPrice: decimal.NewFromInt(12), Quantity: 2}
	order := &Order{Items: []OrderItem{
		SnapshotCartItem(line),
		{ProductID: 6, Quantity: 1, ProductPrice: decimal.NewFromInt(3), Subtotal: decimal.NewFromInt(3)},
	}}
	order.FreezeTotals()

	assert.Equal(t, "Sunscreen", order.Items[0].ProductName)
	assert.True(t, decimal.NewFromInt(24).Equal(order.Items[0].Subtotal))
	assert.True(t, decimal.NewFromInt(27).Equal(order.TotalPrice))
	assert.Equal(t, 3, order.TotalItems)

	// changing the source line afterwards does not touch the snapshot
	line.ProductPrice = decimal.NewFromInt(100)
	assert.True(t, decimal.NewFromInt(12).Equal(order.Items[0].ProductPrice))
}

func TestNightsAndStayPrice(t *testing.T) {
	in := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 2, Nights(in, out))
	assert.Equal(t, 0, Nights(in, in))
	assert.Equal(t, -2, Nights(out, in))

	// clock time is ignored
	assert.Equal(t, 2, Nights(in.Add(23*time.Hour), out.Add(time.Hour)))

	assert.True(t, decimal.NewFromInt(200).Equal(StayPrice(decimal.NewFromInt(100), 2)))
}

func TestPrincipalOwns(t *testing.T) {
	assert.True(t, Principal{UserID: 1}.Owns(1))
	assert.False(t, Principal{UserID: 1}.Owns(2))
	assert.True(t, Principal{UserID: 1, IsAdmin: true}.Owns(2))
}

func TestRoomBookable(t *testing.T) {
	assert.True(t, (&Room{Available: true, Stock: 1}).Bookable())
	assert.False(t, (&Room{Available: false, Stock: 1}).Bookable())
	assert.False(t, (&Room{Available: true, Stock: 0}).Bookable())
}

func TestListFilterNormalize(t *testing.T) {
	f := ListFilter{Limit: 0, Offset: -3}.Normalize()
	assert.Equal(t, DefaultListLimit, f.Limit)
	assert.Equal(t, 0, f.Offset)

	f = ListFilter{Limit: 10000}.Normalize()
	assert.Equal(t, MaxListLimit, f.Limit)
}
