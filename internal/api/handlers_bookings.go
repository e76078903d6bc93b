package api

import (
	"fmt"
	"net/http"
	"time"

	"resort/internal/models"
	"resort/internal/service"
)

type bookingRequest struct {
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	GuestCount int    `json:"guest_count"`
}

func parseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a date in YYYY-MM-DD format", service.ErrInvalidArgument, field)
	}
	return t, nil
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "roomId")
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	checkIn, err := parseDate("check_in", req.CheckIn)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	checkOut, err := parseDate("check_out", req.CheckOut)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}

	booking, err := s.svc.Bookings.Create(r.Context(), service.BookingRequest{
		UserID:     principalFrom(r.Context()).UserID,
		RoomID:     roomID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		GuestCount: req.GuestCount,
	})
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusCreated, "booking created", booking)
}

func (s *HTTPServer) handleMyBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.svc.Bookings.ListForUser(r.Context(), principalFrom(r.Context()).UserID)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "", bookings)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	booking, err := s.svc.Bookings.Get(r.Context(), id, principalFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "", booking)
}

func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	booking, err := s.svc.Bookings.Cancel(r.Context(), id, principalFrom(r.Context()).UserID)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "booking cancelled", booking)
}

func (s *HTTPServer) handleAllBookings(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	bookings, err := s.svc.Bookings.ListAll(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "", bookings)
}

func (s *HTTPServer) handleBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	status, err := statusParam(r)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	booking, err := s.svc.Bookings.UpdateStatus(r.Context(), id, status, principalFrom(r.Context()).UserID)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "booking status updated", booking)
}

func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	if err := s.svc.Bookings.Delete(r.Context(), id, principalFrom(r.Context()).UserID); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "booking deleted", nil)
}
