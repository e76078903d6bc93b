package api

import (
	"net/http"

	"resort/internal/models"
)

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (s *HTTPServer) handleListReviews(kind models.ItemKind, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathID(r, param)
		if err != nil {
			writeServiceError(w, r, s.logger, err)
			return
		}
		reviews, err := s.svc.Reviews.List(r.Context(), kind, itemID)
		if err != nil {
			writeServiceError(w, r, s.logger, err)
			return
		}
		writeOK(w, http.StatusOK, "", reviews)
	}
}

func (s *HTTPServer) handleCreateReview(kind models.ItemKind, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathID(r, param)
		if err != nil {
			writeServiceError(w, r, s.logger, err)
			return
		}
		var req reviewRequest
		if err := decodeJSON(r, &req); err != nil {
			writeServiceError(w, r, s.logger, err)
			return
		}
		p := principalFrom(r.Context())
		review, err := s.svc.Reviews.Create(r.Context(), p.UserID, kind, itemID, req.Rating, req.Comment)
		if err != nil {
			writeServiceError(w, r, s.logger, err)
			return
		}
		writeOK(w, http.StatusCreated, "review created", review)
	}
}

func (s *HTTPServer) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	if err := s.svc.Reviews.Delete(r.Context(), id, principalFrom(r.Context())); err != nil {
		writeServiceError(w, r, s.logger, err)
		return
	}
	writeOK(w, http.StatusOK, "review deleted", nil)
}
