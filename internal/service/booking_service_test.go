package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"resort/internal/events"
	"resort/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan3 = time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
)

func TestBookingService_LastRoom(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	pub := &mockPublisher{}
	pub.On("PublishJSON", events.EventBookingCreated, mock.Anything).Return(nil).Once()
	pub.On("PublishJSON", events.EventBookingCancelled, mock.Anything).Return(nil).Once()
	s := NewBookingService(db, pub, 0, testLogger())

	a := seedUser(t, db, "a", false)
	b := seedUser(t, db, "b", false)
	room := seedRoom(t, db, 100, 2, 1)

	booking, err := s.Create(ctx, BookingRequest{UserID: a.ID, RoomID: room.ID, CheckIn: jan1, CheckOut: jan3, GuestCount: 2})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(200).Equal(booking.TotalPrice))
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, room.Name, booking.RoomName)
	assert.Equal(t, 0, roomStock(t, db, room.ID))

	_, err = s.Create(ctx, BookingRequest{UserID: b.ID, RoomID: room.ID, CheckIn: jan1, CheckOut: jan3, GuestCount: 1})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = s.Cancel(ctx, booking.ID, b.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	cancelled, err := s.Cancel(ctx, booking.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
	assert.Equal(t, 1, roomStock(t, db, room.ID))

	_, err = s.Cancel(ctx, booking.ID, a.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 1, roomStock(t, db, room.ID), "second cancel must not release again")

	pub.AssertExpectations(t)
}

func TestBookingService_CreateValidation(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	s := NewBookingService(db, nil, 30, testLogger())

	u := seedUser(t, db, "val", false)
	room := seedRoom(t, db, 80, 2, 3)
	closed := seedRoom(t, db, 80, 2, 3)
	closed.Available = false
	require.NoError(t, db.UpdateRoom(ctx, closed))
	empty := seedRoom(t, db, 80, 2, 0)

	tests := []struct {
		name string
		req  BookingRequest
		want error
	}{
		{"unknown user", BookingRequest{UserID: 999, RoomID: room.ID, CheckIn: jan1, CheckOut: jan3, GuestCount: 1}, ErrNotFound},
		{"unknown room", BookingRequest{UserID: u.ID, RoomID: 999, CheckIn: jan1, CheckOut: jan3, GuestCount: 1}, ErrNotFound},
		{"unavailable room", BookingRequest{UserID: u.ID, RoomID: closed.ID, CheckIn: jan1, CheckOut: jan3, GuestCount: 1}, ErrInvalidState},
		{"no stock", BookingRequest{UserID: u.ID, RoomID: empty.ID, CheckIn: jan1, CheckOut: jan3, GuestCount: 1}, ErrInvalidState},
		{"too many guests", BookingRequest{UserID: u.ID, RoomID: room.ID, CheckIn: jan1, CheckOut: jan3, GuestCount: 3}, ErrInvalidArgument},
		{"no guests", BookingRequest{UserID: u.ID, RoomID: room.ID, CheckIn: jan1, CheckOut: jan3, GuestCount: 0}, ErrInvalidArgument},
		{"same day", BookingRequest{UserID: u.ID, RoomID: room.ID, CheckIn: jan1, CheckOut: jan1, GuestCount: 1}, ErrInvalidArgument},
		{"reversed", BookingRequest{UserID: u.ID, RoomID: room.ID, CheckIn: jan3, CheckOut: jan1, GuestCount: 1}, ErrInvalidArgument},
		{"too long", BookingRequest{UserID: u.ID, RoomID: room.ID, CheckIn: jan1, CheckOut: jan1.AddDate(0, 0, 31), GuestCount: 1}, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, 3, roomStock(t, db, room.ID))
	bookings, err := s.ListAll(ctx, models.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestBookingService_ConcurrentLastRoom(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	s := NewBookingService(db, nil, 0, testLogger())

	u := seedUser(t, db, "racer", false)
	room := seedRoom(t, db, 100, 2, 2)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, BookingRequest{UserID: u.ID, RoomID: room.ID, CheckIn: jan1, CheckOut: jan3, GuestCount: 1})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrInvalidState)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 0, roomStock(t, db, room.ID))

	mine, err := s.ListForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestBookingService_AdminOperations(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	s := NewBookingService(db, nil, 0, testLogger())

	owner := seedUser(t, db, "owner", false)
	other := seedUser(t, db, "other", false)
	admin := seedUser(t, db, "admin", true)
	room := seedRoom(t, db, 100, 2, 2)

	booking, err := s.Create(ctx, BookingRequest{UserID: owner.ID, RoomID: room.ID, CheckIn: jan1, CheckOut: jan3, GuestCount: 1})
	require.NoError(t, err)

	t.Run("Get", func(t *testing.T) {
		_, err := s.Get(ctx, booking.ID, models.Principal{UserID: owner.ID})
		assert.NoError(t, err)
		_, err = s.Get(ctx, booking.ID, models.Principal{UserID: admin.ID, IsAdmin: true})
		assert.NoError(t, err)
		_, err = s.Get(ctx, booking.ID, models.Principal{UserID: other.ID})
		assert.ErrorIs(t, err, ErrForbidden)
		_, err = s.Get(ctx, 999, models.Principal{UserID: admin.ID, IsAdmin: true})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("UpdateStatus", func(t *testing.T) {
		_, err := s.UpdateStatus(ctx, booking.ID, "archived", admin.ID)
		assert.ErrorIs(t, err, ErrInvalidArgument)

		updated, err := s.UpdateStatus(ctx, booking.ID, "completed", admin.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingCompleted, updated.Status)

		// overriding out of a terminal state is allowed and leaves stock alone
		updated, err = s.UpdateStatus(ctx, booking.ID, "PENDING", admin.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingPending, updated.Status)
		assert.Equal(t, 1, roomStock(t, db, room.ID))

		_, err = s.UpdateStatus(ctx, 999, "PENDING", admin.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ListAll", func(t *testing.T) {
		found, err := s.ListAll(ctx, models.ListFilter{Keyword: "owner"})
		require.NoError(t, err)
		assert.Len(t, found, 1)

		found, err = s.ListAll(ctx, models.ListFilter{Keyword: "nobody"})
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, booking.ID, admin.ID))
		assert.ErrorIs(t, s.Delete(ctx, booking.ID, admin.ID), ErrNotFound)
		assert.Equal(t, 1, roomStock(t, db, room.ID))
	})
}

func TestBookingService_CancelAfterRoomDeleted(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	s := NewBookingService(db, nil, 0, testLogger())

	u := seedUser(t, db, "late", false)
	room := seedRoom(t, db, 100, 2, 1)
	booking, err := s.Create(ctx, BookingRequest{UserID: u.ID, RoomID: room.ID, CheckIn: jan1, CheckOut: jan3, GuestCount: 1})
	require.NoError(t, err)

	require.NoError(t, db.DeleteRoom(ctx, room.ID))

	cancelled, err := s.Cancel(ctx, booking.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
}
