package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"resort/internal/config"
	"resort/internal/domain"
	"resort/internal/export"
	"resort/internal/models"
	"resort/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Users    *service.UserService
	Carts    *service.CartService
	Orders   *service.OrderService
	Bookings *service.BookingService
	Catalog  *service.CatalogService
	Reviews  *service.ReviewService
	Exporter *export.Exporter
	Limiter  domain.RateLimiter
	DB       Pinger
}

// HTTPServer exposes the JSON API.
type HTTPServer struct {
	cfg    config.APIConfig
	svc    Services
	server *http.Server
	logger *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, svc Services, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{cfg: cfg, svc: svc, logger: logger}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}
	return srv
}

func (s *HTTPServer) routes() http.Handler {
	auth := NewHTTPAuth(s.cfg.Auth.HeaderAPIKey, s.svc.Users,
		newKeyLimiter(s.cfg.RateLimit.RPS, s.cfg.RateLimit.Burst), s.logger)
	limitWrites := writeLimit(s.svc.Limiter, s.cfg.WriteLimit.Limit, s.cfg.WriteLimit.Window, s.logger)

	r := chi.NewRouter()
	r.Use(requestID, accessLog(s.logger), recoverer(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Wrap)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", s.handleGetCart)
			r.Post("/add", s.handleAddToCart)
			r.Put("/item/{id}", s.handleUpdateCartItem)
			r.Delete("/item/{id}", s.handleRemoveCartItem)
			r.Delete("/clear", s.handleClearCart)
			r.With(requireAdmin).Get("/admin/all", s.handleListCarts)
			r.With(requireAdmin).Delete("/admin/clear/{userId}", s.handleAdminClearCart)
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(limitWrites).Post("/checkout", s.handleCheckout)
			r.Get("/my-orders", s.handleMyOrders)
			r.With(requireAdmin).Get("/all", s.handleAllOrders)
			r.Get("/{id}", s.handleGetOrder)
			r.Put("/{id}/cancel", s.handleCancelOrder)
			r.With(requireAdmin).Put("/{id}/status", s.handleOrderStatus)
			r.With(requireAdmin).Delete("/{id}", s.handleDeleteOrder)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/my", s.handleMyBookings)
			r.With(limitWrites).Post("/room/{roomId}", s.handleCreateBooking)
			r.Get("/{id}", s.handleGetBooking)
			r.Put("/{id}/cancel", s.handleCancelBooking)
			r.Route("/admin", func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/all", s.handleAllBookings)
				r.Put("/{id}/status", s.handleBookingStatus)
				r.Delete("/{id}", s.handleDeleteBooking)
			})
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", s.handleListRooms)
			r.Get("/{id}", s.handleGetRoom)
			r.With(requireAdmin).Post("/", s.handleCreateRoom)
			r.With(requireAdmin).Put("/{id}", s.handleUpdateRoom)
			r.With(requireAdmin).Delete("/{id}", s.handleDeleteRoom)
		})

		r.Route("/product", func(r chi.Router) {
			r.Get("/", s.handleListProducts)
			r.Get("/{id}", s.handleGetProduct)
			r.With(requireAdmin).Post("/", s.handleCreateProduct)
			r.With(requireAdmin).Put("/{id}", s.handleUpdateProduct)
			r.With(requireAdmin).Delete("/{id}", s.handleDeleteProduct)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/room/{roomId}", s.handleListReviews(models.KindRoom, "roomId"))
			r.Post("/room/{roomId}", s.handleCreateReview(models.KindRoom, "roomId"))
			r.Get("/product/{productId}", s.handleListReviews(models.KindProduct, "productId"))
			r.Post("/product/{productId}", s.handleCreateReview(models.KindProduct, "productId"))
			r.Delete("/{id}", s.handleDeleteReview)
		})

		r.Route("/admin/export", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/bookings", s.handleExportBookings)
			r.Get("/orders", s.handleExportOrders)
		})
	})

	return r
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, "ok", nil)
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.svc.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.svc.DB.PingContext(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("readiness check failed")
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeOK(w, http.StatusOK, "ready", nil)
}
