package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resort/internal/database"
	"resort/internal/domain"
	"resort/internal/events"
	"resort/internal/metrics"
	"resort/internal/models"

	"github.com/rs/zerolog"
)

// BookingRequest carries the caller's input for a new room booking.
type BookingRequest struct {
	UserID     int64
	RoomID     int64
	CheckIn    time.Time
	CheckOut   time.Time
	GuestCount int
}

type BookingService struct {
	db        domain.Database
	eventBus  domain.EventPublisher
	maxNights int
	logger    *zerolog.Logger
}

func NewBookingService(db domain.Database, eventBus domain.EventPublisher, maxNights int, logger *zerolog.Logger) *BookingService {
	if maxNights <= 0 {
		maxNights = models.DefaultMaxNights
	}
	return &BookingService{
		db:        db,
		eventBus:  eventBus,
		maxNights: maxNights,
		logger:    logger,
	}
}

func (s *BookingService) validateStay(req BookingRequest, room *models.Room) (int, error) {
	if req.GuestCount < 1 {
		return 0, fmt.Errorf("%w: guest count must be at least 1", ErrInvalidArgument)
	}
	if req.GuestCount > room.Capacity {
		return 0, fmt.Errorf("%w: room %q holds %d guests, requested %d",
			ErrInvalidArgument, room.Name, room.Capacity, req.GuestCount)
	}

	nights := models.Nights(req.CheckIn, req.CheckOut)
	if nights <= 0 {
		return 0, fmt.Errorf("%w: check-out must be after check-in", ErrInvalidArgument)
	}
	if nights > s.maxNights {
		return 0, fmt.Errorf("%w: stay of %d nights exceeds the limit of %d", ErrInvalidArgument, nights, s.maxNights)
	}
	return nights, nil
}

// Create books one unit of a room. The booking row and the stock decrement
// commit together or not at all.
func (s *BookingService) Create(ctx context.Context, req BookingRequest) (*models.Booking, error) {
	var booking *models.Booking
	err := s.db.WithTx(ctx, func(tx domain.Store) error {
		if _, err := tx.GetUserByID(ctx, req.UserID); err != nil {
			return err
		}
		room, err := tx.GetRoomForUpdate(ctx, req.RoomID)
		if err != nil {
			return err
		}
		if !room.Bookable() {
			return fmt.Errorf("%w: room %q has no free units", ErrInvalidState, room.Name)
		}

		nights, err := s.validateStay(req, room)
		if err != nil {
			return err
		}

		booking = &models.Booking{
			UserID:     req.UserID,
			RoomID:     room.ID,
			RoomName:   room.Name,
			CheckIn:    models.DateOnly(req.CheckIn),
			CheckOut:   models.DateOnly(req.CheckOut),
			GuestCount: req.GuestCount,
			TotalPrice: models.StayPrice(room.Price, nights),
			Status:     models.BookingPending,
		}
		if err := tx.CreateBooking(ctx, booking); err != nil {
			return err
		}

		if err := tx.Reserve(ctx, models.KindRoom, room.ID, 1); err != nil {
			if errors.Is(err, database.ErrInsufficientStock) {
				return fmt.Errorf("%w: room %q has no free units: %w", ErrInvalidState, room.Name, err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	metrics.IncTransition("booking", string(booking.Status))
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("user_id", booking.UserID).
		Int64("room_id", booking.RoomID).
		Str("total_price", booking.TotalPrice.String()).
		Msg("Booking created")
	s.publishEvent(events.EventBookingCreated, booking, "", 0)
	return booking, nil
}

// Cancel is available to the booking's owner while the booking is pending or
// confirmed. It returns the room unit to stock exactly once.
func (s *BookingService) Cancel(ctx context.Context, bookingID, requesterID int64) (*models.Booking, error) {
	var (
		booking *models.Booking
		prev    models.BookingStatus
	)
	err := s.db.WithTx(ctx, func(tx domain.Store) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != requesterID {
			return fmt.Errorf("%w: booking %d belongs to another user", ErrForbidden, bookingID)
		}
		if !b.Status.CanTransition(models.BookingCancelled) {
			return fmt.Errorf("%w: booking %d is %s and cannot be cancelled", ErrInvalidState, bookingID, b.Status)
		}

		ok, err := tx.TransitionBookingStatus(ctx, bookingID, models.CancellableBookingStatuses(), models.BookingCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: booking %d was changed concurrently", ErrInvalidState, bookingID)
		}

		if err := tx.Release(ctx, models.KindRoom, b.RoomID, 1); err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				return err
			}
			s.logger.Warn().Int64("booking_id", bookingID).Int64("room_id", b.RoomID).
				Msg("Room no longer exists, stock not released")
		}

		prev = b.Status
		booking, err = tx.GetBooking(ctx, bookingID)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}

	metrics.IncTransition("booking", string(booking.Status))
	s.logger.Info().Int64("booking_id", bookingID).Str("prev_status", string(prev)).Msg("Booking cancelled")
	s.publishEvent(events.EventBookingCancelled, booking, prev, requesterID)
	return booking, nil
}

// UpdateStatus overwrites the status of a booking. It is an administrative
// override: the transition table is not enforced and stock is left as is.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID int64, rawStatus string, adminID int64) (*models.Booking, error) {
	status, err := models.ParseBookingStatus(rawStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	var (
		booking *models.Booking
		prev    models.BookingStatus
	)
	err = s.db.WithTx(ctx, func(tx domain.Store) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		prev = b.Status
		if err := tx.SetBookingStatus(ctx, bookingID, status); err != nil {
			return err
		}
		booking, err = tx.GetBooking(ctx, bookingID)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}

	if prev != status && !prev.CanTransition(status) {
		s.logger.Warn().
			Int64("booking_id", bookingID).
			Str("from", string(prev)).
			Str("to", string(status)).
			Bool("outside_transition_table", true).
			Msg("Booking status overridden")
	}
	metrics.IncTransition("booking", string(status))
	s.publishEvent(events.EventBookingStatusChanged, booking, prev, adminID)
	return booking, nil
}

// Get returns a booking visible to the principal.
func (s *BookingService) Get(ctx context.Context, bookingID int64, p models.Principal) (*models.Booking, error) {
	booking, err := s.db.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, translate(err)
	}
	if !p.Owns(booking.UserID) {
		return nil, fmt.Errorf("%w: booking %d belongs to another user", ErrForbidden, bookingID)
	}
	return booking, nil
}

func (s *BookingService) ListForUser(ctx context.Context, userID int64) ([]*models.Booking, error) {
	bookings, err := s.db.ListBookingsByUser(ctx, userID)
	return bookings, translate(err)
}

// ListAll is the admin listing with optional keyword search.
func (s *BookingService) ListAll(ctx context.Context, filter models.ListFilter) ([]*models.Booking, error) {
	bookings, err := s.db.ListBookings(ctx, filter.Normalize())
	return bookings, translate(err)
}

// Delete removes a booking without touching room stock.
func (s *BookingService) Delete(ctx context.Context, bookingID, adminID int64) error {
	var booking *models.Booking
	err := s.db.WithTx(ctx, func(tx domain.Store) error {
		var err error
		if booking, err = tx.GetBooking(ctx, bookingID); err != nil {
			return err
		}
		return tx.DeleteBooking(ctx, bookingID)
	})
	if err != nil {
		return translate(err)
	}

	if booking.Status == models.BookingPending || booking.Status == models.BookingConfirmed {
		s.logger.Warn().Int64("booking_id", bookingID).Str("status", string(booking.Status)).
			Msg("Active booking deleted, room stock not released")
	}
	s.publishEvent(events.EventBookingDeleted, booking, "", adminID)
	return nil
}

func (s *BookingService) publishEvent(eventType string, b *models.Booking, prev models.BookingStatus, changedBy int64) {
	payload := events.BookingEventPayload{
		BookingID:  b.ID,
		UserID:     b.UserID,
		RoomID:     b.RoomID,
		RoomName:   b.RoomName,
		Status:     string(b.Status),
		PrevStatus: string(prev),
		CheckIn:    b.CheckIn.Format(models.DateLayout),
		CheckOut:   b.CheckOut.Format(models.DateLayout),
		TotalPrice: b.TotalPrice,
		ChangedBy:  changedBy,
	}
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}
