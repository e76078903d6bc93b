package api

import (
	"fmt"
	"net/http"
	"time"

	"resort/internal/models"

	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.svc.Bookings.ListAll(r.Context(), models.ListFilter{
		Keyword: r.URL.Query().Get("keyword"),
		Limit:   models.MaxListLimit,
	})
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	f, err := s.svc.Exporter.Bookings(bookings)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	s.sendWorkbook(w, r, f, "bookings")
}

func (s *HTTPServer) handleExportOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.svc.Orders.ListAll(r.Context(), models.ListFilter{
		Keyword: r.URL.Query().Get("keyword"),
		Limit:   models.MaxListLimit,
	})
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	f, err := s.svc.Exporter.Orders(orders)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	s.sendWorkbook(w, r, f, "orders")
}

func (s *HTTPServer) sendWorkbook(w http.ResponseWriter, r *http.Request, f *excelize.File, kind string) {
	defer f.Close()

	if _, err := s.svc.Exporter.Archive(f, kind); err != nil {
		s.logger.Warn().Err(err).Str("kind", kind).Msg("export archive failed")
	}

	name := fmt.Sprintf("%s_%s.xlsx", kind, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		s.logger.Error().Err(err).Str("request_id", requestIDFrom(r.Context())).Msg("write export")
	}
}
