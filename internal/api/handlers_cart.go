package api

import (
	"net/http"
	"time"

	"resort/internal/models"

	"github.com/shopspring/decimal"
)

// cartView adds the derived totals to a cart.
type cartView struct {
	ID         int64             `json:"id"`
	UserID     int64             `json:"user_id"`
	Items      []models.CartItem `json:"items"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	TotalItems int               `json:"total_items"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func newCartView(c *models.Cart) cartView {
	return cartView{
		ID:         c.ID,
		UserID:     c.UserID,
		Items:      c.Items,
		TotalPrice: c.TotalPrice(),
		TotalItems: c.TotalItems(),
		UpdatedAt:  c.UpdatedAt,
	}
}

type addToCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *HTTPServer) handleGetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := s.svc.Carts.GetOrCreate(r.Context(), principalFrom(r.Context()).UserID)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "", newCartView(cart))
}

func (s *HTTPServer) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}

	cart, err := s.svc.Carts.AddItem(r.Context(), principalFrom(r.Context()).UserID, req.ProductID, req.Quantity)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "item added to cart", newCartView(cart))
}

func (s *HTTPServer) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}

	cart, err := s.svc.Carts.UpdateItem(r.Context(), principalFrom(r.Context()).UserID, itemID, req.Quantity)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "cart updated", newCartView(cart))
}

func (s *HTTPServer) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}

	cart, err := s.svc.Carts.RemoveItem(r.Context(), principalFrom(r.Context()).UserID, itemID)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "item removed", newCartView(cart))
}

func (s *HTTPServer) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Carts.Clear(r.Context(), principalFrom(r.Context()).UserID); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "cart cleared", nil)
}

func (s *HTTPServer) handleListCarts(w http.ResponseWriter, r *http.Request) {
	carts, err := s.svc.Carts.ListCarts(r.Context())
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	views := make([]cartView, 0, len(carts))
	for _, c := range carts {
		views = append(views, newCartView(c))
	}
	writeOK(w, http.StatusOK, "", views)
}

func (s *HTTPServer) handleAdminClearCart(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	if err := s.svc.Carts.ClearUserCart(r.Context(), userID); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "cart cleared", nil)
}
