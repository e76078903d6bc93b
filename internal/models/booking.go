package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

var bookingNext = map[BookingStatus]map[BookingStatus]bool{
	BookingPending:   {BookingConfirmed: true, BookingCancelled: true, BookingCompleted: true},
	BookingConfirmed: {BookingCancelled: true, BookingCompleted: true},
	BookingCancelled: {},
	BookingCompleted: {},
}

func ParseBookingStatus(raw string) (BookingStatus, error) {
	s := BookingStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := bookingNext[s]; !ok {
		return "", fmt.Errorf("unknown booking status %q", raw)
	}
	return s, nil
}

func (s BookingStatus) Valid() bool {
	_, ok := bookingNext[s]
	return ok
}

func (s BookingStatus) CanTransition(to BookingStatus) bool {
	return bookingNext[s][to]
}

// CancellableBookingStatuses lists the statuses a booking owner may cancel from.
func CancellableBookingStatuses() []BookingStatus {
	var out []BookingStatus
	for _, s := range []BookingStatus{BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted} {
		if s.CanTransition(BookingCancelled) {
			out = append(out, s)
		}
	}
	return out
}

type Booking struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	RoomID     int64           `json:"room_id"`
	RoomName   string          `json:"room_name"`
	CheckIn    time.Time       `json:"check_in"`
	CheckOut   time.Time       `json:"check_out"`
	GuestCount int             `json:"guest_count"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     BookingStatus   `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Version    int64           `json:"version"`
}

// DateOnly drops the clock part of t, keeping its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Nights counts calendar days between check-in and check-out. It is zero or
// negative when check-out does not follow check-in.
func Nights(checkIn, checkOut time.Time) int {
	return int(DateOnly(checkOut).Sub(DateOnly(checkIn)).Hours() / 24)
}

// StayPrice is the nightly price multiplied by the number of nights.
func StayPrice(nightly decimal.Decimal, nights int) decimal.Decimal {
	return nightly.Mul(decimal.NewFromInt(int64(nights)))
}
