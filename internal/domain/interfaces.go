package domain

import (
	"context"
	"time"

	"resort/internal/models"
)

type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]*models.User, error)
}

type CatalogStore interface {
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	ListRooms(ctx context.Context, onlyAvailable bool) ([]*models.Room, error)
	CreateRoom(ctx context.Context, room *models.Room) error
	UpdateRoom(ctx context.Context, room *models.Room) error
	DeleteRoom(ctx context.Context, id int64) error

	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

// InventoryStore mutates stock. Reserve and Release are only meaningful on a
// transaction-scoped store so the stock change commits together with the
// lifecycle change that caused it.
type InventoryStore interface {
	Reserve(ctx context.Context, kind models.ItemKind, itemID int64, qty int) error
	Release(ctx context.Context, kind models.ItemKind, itemID int64, qty int) error
	GetRoomForUpdate(ctx context.Context, id int64) (*models.Room, error)
	LockProducts(ctx context.Context, ids []int64) (map[int64]*models.Product, error)
}

type CartStore interface {
	GetCartByUser(ctx context.Context, userID int64) (*models.Cart, error)
	CreateCart(ctx context.Context, userID int64) (*models.Cart, error)
	ListCarts(ctx context.Context) ([]*models.Cart, error)
	DeleteCart(ctx context.Context, cartID int64) error
	UpsertCartItem(ctx context.Context, cartID, productID int64, qty int) error
	GetCartItem(ctx context.Context, itemID int64) (*models.CartItem, error)
	SetCartItemQuantity(ctx context.Context, itemID int64, qty int) error
	DeleteCartItem(ctx context.Context, itemID int64) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]*models.Order, error)
	ListOrders(ctx context.Context, filter models.ListFilter) ([]*models.Order, error)
	SetOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error
	// TransitionOrderStatus moves the order to `to` only while its status is
	// one of `from`. It reports false when the row did not match.
	TransitionOrderStatus(ctx context.Context, id int64, from []models.OrderStatus, to models.OrderStatus) (bool, error)
	DeleteOrder(ctx context.Context, id int64) error
}

type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookingsByUser(ctx context.Context, userID int64) ([]*models.Booking, error)
	ListBookings(ctx context.Context, filter models.ListFilter) ([]*models.Booking, error)
	SetBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error
	TransitionBookingStatus(ctx context.Context, id int64, from []models.BookingStatus, to models.BookingStatus) (bool, error)
	DeleteBooking(ctx context.Context, id int64) error
}

type ReviewStore interface {
	CreateReview(ctx context.Context, review *models.Review) error
	GetReview(ctx context.Context, id int64) (*models.Review, error)
	ListReviews(ctx context.Context, kind models.ItemKind, itemID int64) ([]*models.Review, error)
	DeleteReview(ctx context.Context, id int64) error
}

// Store is the full set of queries, available both on the database handle and
// inside a transaction.
type Store interface {
	UserStore
	CatalogStore
	InventoryStore
	CartStore
	OrderStore
	BookingStore
	ReviewStore
}

// Database is a Store that can open transactions.
type Database interface {
	Store
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// RateLimiter counts hits per key within a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
