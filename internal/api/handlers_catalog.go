package api

import (
	"net/http"

	"resort/internal/models"

	"github.com/shopspring/decimal"
)

type roomRequest struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Capacity    int             `json:"capacity"`
	Available   *bool           `json:"available"`
	Stock       int             `json:"stock"`
}

func (req roomRequest) room(id int64) *models.Room {
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return &models.Room{
		ID:          id,
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Price:       req.Price,
		Capacity:    req.Capacity,
		Available:   available,
		Stock:       req.Stock,
	}
}

type productRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

func (req productRequest) product(id int64) *models.Product {
	return &models.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		Stock:       req.Stock,
	}
}

func (s *HTTPServer) handleListRooms(w http.ResponseWriter, r *http.Request) {
	onlyAvailable := r.URL.Query().Get("available") == "true"
	rooms, err := s.svc.Catalog.ListRooms(r.Context(), onlyAvailable)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "", rooms)
}

func (s *HTTPServer) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	room, err := s.svc.Catalog.GetRoom(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "", room)
}

func (s *HTTPServer) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	room := req.room(0)
	if err := s.svc.Catalog.CreateRoom(r.Context(), room); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusCreated, "room created", room)
}

func (s *HTTPServer) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	room := req.room(id)
	if err := s.svc.Catalog.UpdateRoom(r.Context(), room); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "room updated", room)
}

func (s *HTTPServer) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	if err := s.svc.Catalog.DeleteRoom(r.Context(), id); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "room deleted", nil)
}

func (s *HTTPServer) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.svc.Catalog.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "", products)
}

func (s *HTTPServer) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	product, err := s.svc.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "", product)
}

func (s *HTTPServer) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	product := req.product(0)
	if err := s.svc.Catalog.CreateProduct(r.Context(), product); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusCreated, "product created", product)
}

func (s *HTTPServer) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	product := req.product(id)
	if err := s.svc.Catalog.UpdateProduct(r.Context(), product); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "product updated", product)
}

func (s *HTTPServer) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	if err := s.svc.Catalog.DeleteProduct(r.Context(), id); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "product deleted", nil)
}
