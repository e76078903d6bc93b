package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"resort/internal/models"
)

const selectBooking = `SELECT b.id, b.user_id, b.room_id, b.room_name, b.check_in, b.check_out, b.guest_count,
	b.total_price, b.status, b.created_at, b.updated_at, b.version FROM bookings b`

func scanBooking(row scanner) (*models.Booking, error) {
	var (
		b                 models.Booking
		checkIn, checkOut string
	)
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.RoomID,
		&b.RoomName,
		&checkIn,
		&checkOut,
		&b.GuestCount,
		&b.TotalPrice,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.Version,
	)
	if err != nil {
		return nil, err
	}

	if b.CheckIn, err = time.Parse(models.DateLayout, checkIn); err != nil {
		return nil, fmt.Errorf("booking %d: bad check_in %q: %w", b.ID, checkIn, err)
	}
	if b.CheckOut, err = time.Parse(models.DateLayout, checkOut); err != nil {
		return nil, fmt.Errorf("booking %d: bad check_out %q: %w", b.ID, checkOut, err)
	}
	return &b, nil
}

func (s *store) CreateBooking(ctx context.Context, booking *models.Booking) error {
	ts := now()
	id, err := s.insert(ctx, `INSERT INTO bookings (
			user_id, room_id, room_name, check_in, check_out, guest_count, total_price, status,
			created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		booking.UserID,
		booking.RoomID,
		booking.RoomName,
		booking.CheckIn.Format(models.DateLayout),
		booking.CheckOut.Format(models.DateLayout),
		booking.GuestCount,
		booking.TotalPrice,
		booking.Status,
		ts,
		ts,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = ts
	booking.UpdatedAt = ts
	booking.Version = 1
	return nil
}

func (s *store) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	b, err := scanBooking(s.queryRow(ctx, selectBooking+` WHERE b.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking %d: %w", id, err)
	}
	return b, nil
}

func (s *store) ListBookingsByUser(ctx context.Context, userID int64) ([]*models.Booking, error) {
	return s.listBookings(ctx, selectBooking+` WHERE b.user_id = ? ORDER BY b.created_at DESC, b.id DESC`, userID)
}

// ListBookings pages through every booking. A keyword matches the owner's
// username, the room name or the status.
func (s *store) ListBookings(ctx context.Context, filter models.ListFilter) ([]*models.Booking, error) {
	filter = filter.Normalize()

	query := selectBooking
	var args []any
	if k := strings.TrimSpace(filter.Keyword); k != "" {
		like := s.likeArg(k)
		query += ` JOIN users u ON u.id = b.user_id
			WHERE LOWER(u.username) LIKE ? OR LOWER(b.room_name) LIKE ? OR LOWER(b.status) LIKE ?`
		args = append(args, like, like, like)
	}
	query += ` ORDER BY b.created_at DESC, b.id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	return s.listBookings(ctx, query, args...)
}

func (s *store) listBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (s *store) SetBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	res, err := s.exec(ctx, `UPDATE bookings SET status = ?, updated_at = ?, version = version + 1 WHERE id = ?`,
		status, now(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking %d status: %w", id, err)
	}
	return expectOne(res, "booking", id)
}

func (s *store) TransitionBookingStatus(ctx context.Context, id int64, from []models.BookingStatus, to models.BookingStatus) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	placeholders := make([]string, len(from))
	args := []any{to, now(), id}
	for i, st := range from {
		placeholders[i] = "?"
		args = append(args, st)
	}

	res, err := s.exec(ctx, `UPDATE bookings SET status = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND status IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return false, fmt.Errorf("failed to transition booking %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *store) DeleteBooking(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking %d: %w", id, err)
	}
	return expectOne(res, "booking", id)
}
