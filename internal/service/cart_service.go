package service

import (
	"context"
	"errors"
	"fmt"

	"resort/internal/database"
	"resort/internal/domain"
	"resort/internal/models"

	"github.com/rs/zerolog"
)

// CartService manages per-user carts. It never touches stock.
type CartService struct {
	db     domain.Database
	logger *zerolog.Logger
}

func NewCartService(db domain.Database, logger *zerolog.Logger) *CartService {
	return &CartService{db: db, logger: logger}
}

// GetOrCreate returns the user's cart, creating an empty one on first use.
func (s *CartService) GetOrCreate(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart *models.Cart
	err := s.db.WithTx(ctx, func(tx domain.Store) error {
		var err error
		cart, err = getOrCreateCart(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return cart, nil
}

func getOrCreateCart(ctx context.Context, tx domain.Store, userID int64) (*models.Cart, error) {
	cart, err := tx.GetCartByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	if _, err := tx.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return tx.CreateCart(ctx, userID)
}

// AddItem merges qty units of the product into the user's cart.
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, qty int) (*models.Cart, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidArgument, qty)
	}

	var cart *models.Cart
	err := s.db.WithTx(ctx, func(tx domain.Store) error {
		c, err := getOrCreateCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		if _, err := tx.GetProduct(ctx, productID); err != nil {
			return err
		}
		if err := tx.UpsertCartItem(ctx, c.ID, productID, qty); err != nil {
			return err
		}
		cart, err = tx.GetCartByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}

	s.logger.Debug().Int64("user_id", userID).Int64("product_id", productID).Int("qty", qty).Msg("Cart item added")
	return cart, nil
}

// UpdateItem sets the quantity of a line. A quantity of zero or less removes it.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID int64, qty int) (*models.Cart, error) {
	var cart *models.Cart
	err := s.db.WithTx(ctx, func(tx domain.Store) error {
		c, err := ownedLine(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}
		if qty <= 0 {
			err = tx.DeleteCartItem(ctx, itemID)
		} else {
			err = tx.SetCartItemQuantity(ctx, itemID, qty)
		}
		if err != nil {
			return err
		}
		cart, err = tx.GetCartByUser(ctx, c.UserID)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return cart, nil
}

// RemoveItem deletes a line from the user's cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) (*models.Cart, error) {
	var cart *models.Cart
	err := s.db.WithTx(ctx, func(tx domain.Store) error {
		c, err := ownedLine(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}
		if err := tx.DeleteCartItem(ctx, itemID); err != nil {
			return err
		}
		cart, err = tx.GetCartByUser(ctx, c.UserID)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return cart, nil
}

// ownedLine resolves the user's cart and checks that the line belongs to it.
func ownedLine(ctx context.Context, tx domain.Store, userID, itemID int64) (*models.Cart, error) {
	cart, err := getOrCreateCart(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	item, err := tx.GetCartItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.CartID != cart.ID {
		return nil, fmt.Errorf("%w: cart item %d belongs to another cart", ErrForbidden, itemID)
	}
	return cart, nil
}

// Clear deletes the user's cart and all of its lines.
func (s *CartService) Clear(ctx context.Context, userID int64) error {
	err := s.db.WithTx(ctx, func(tx domain.Store) error {
		cart, err := tx.GetCartByUser(ctx, userID)
		if err != nil {
			return err
		}
		return tx.DeleteCart(ctx, cart.ID)
	})
	return translate(err)
}

// ListCarts returns every cart. Admin only.
func (s *CartService) ListCarts(ctx context.Context) ([]*models.Cart, error) {
	carts, err := s.db.ListCarts(ctx)
	return carts, translate(err)
}

// ClearUserCart empties another user's cart. Admin only.
func (s *CartService) ClearUserCart(ctx context.Context, userID int64) error {
	if err := s.Clear(ctx, userID); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", userID).Msg("Cart cleared by admin")
	return nil
}
