package api

import (
	"net/http"
	"strings"

	"resort/internal/models"
	"resort/internal/service"
)

type checkoutRequest struct {
	ShippingAddress string `json:"shipping_address"`
	PhoneNumber     string `json:"phone_number"`
	Note            string `json:"note"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// statusParam reads the target status from ?status= or a JSON body.
func statusParam(r *http.Request) (string, error) {
	if s := strings.TrimSpace(r.URL.Query().Get("status")); s != "" {
		return s, nil
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", err
	}
	return req.Status, nil
}

func listFilter(r *http.Request) (models.ListFilter, error) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		return models.ListFilter{}, err
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		return models.ListFilter{}, err
	}
	return models.ListFilter{
		Keyword: r.URL.Query().Get("keyword"),
		Limit:   limit,
		Offset:  offset,
	}.Normalize(), nil
}

func (s *HTTPServer) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}

	order, err := s.svc.Orders.Checkout(r.Context(), principalFrom(r.Context()).UserID, service.CheckoutRequest{
		ShippingAddress: req.ShippingAddress,
		PhoneNumber:     req.PhoneNumber,
		Note:            req.Note,
	})
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusCreated, "order placed", order)
}

func (s *HTTPServer) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.svc.Orders.ListForUser(r.Context(), principalFrom(r.Context()).UserID)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "", orders)
}

func (s *HTTPServer) handleAllOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	orders, err := s.svc.Orders.ListAll(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "", orders)
}

func (s *HTTPServer) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	order, err := s.svc.Orders.Get(r.Context(), id, principalFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "", order)
}

func (s *HTTPServer) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	order, err := s.svc.Orders.Cancel(r.Context(), id, principalFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "order cancelled", order)
}

func (s *HTTPServer) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
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
	order, err := s.svc.Orders.UpdateStatus(r.Context(), id, status, principalFrom(r.Context()).UserID)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "order status updated", order)
}

func (s *HTTPServer) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	if err := s.svc.Orders.Delete(r.Context(), id, principalFrom(r.Context()).UserID); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "order deleted", nil)
}
