package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"resort/internal/models"
)

const selectCartItem = `SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, p.name, p.price
	FROM cart_items ci JOIN products p ON p.id = ci.product_id`

func scanCartItem(row scanner) (*models.CartItem, error) {
	var item models.CartItem
	err := row.Scan(
		&item.ID,
		&item.CartID,
		&item.ProductID,
		&item.Quantity,
		&item.ProductName,
		&item.ProductPrice,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetCartByUser returns the user's cart with its lines priced at the current
// product prices.
func (s *store) GetCartByUser(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := s.queryRow(ctx, `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = ?`, userID).
		Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cart of user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	items, err := s.cartItems(ctx, selectCartItem+` WHERE ci.cart_id = ? ORDER BY ci.id`, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return &cart, nil
}

func (s *store) cartItems(ctx context.Context, query string, args ...any) ([]models.CartItem, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *store) CreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	ts := now()
	id, err := s.insert(ctx, `INSERT INTO carts (user_id, created_at, updated_at) VALUES (?, ?, ?)`, userID, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart for user %d: %w", userID, err)
	}
	return &models.Cart{ID: id, UserID: userID, Items: []models.CartItem{}, CreatedAt: ts, UpdatedAt: ts}, nil
}

func (s *store) ListCarts(ctx context.Context) ([]*models.Cart, error) {
	rows, err := s.query(ctx, `SELECT id, user_id, created_at, updated_at FROM carts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list carts: %w", err)
	}

	var carts []*models.Cart
	byID := make(map[int64]*models.Cart)
	for rows.Next() {
		var c models.Cart
		if err := rows.Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		c.Items = []models.CartItem{}
		carts = append(carts, &c)
		byID[c.ID] = &c
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := s.cartItems(ctx, selectCartItem+` ORDER BY ci.cart_id, ci.id`)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if c, ok := byID[item.CartID]; ok {
			c.Items = append(c.Items, item)
		}
	}
	return carts, nil
}

func (s *store) DeleteCart(ctx context.Context, cartID int64) error {
	if _, err := s.exec(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return fmt.Errorf("failed to delete cart items: %w", err)
	}
	res, err := s.exec(ctx, `DELETE FROM carts WHERE id = ?`, cartID)
	if err != nil {
		return fmt.Errorf("failed to delete cart %d: %w", cartID, err)
	}
	return expectOne(res, "cart", cartID)
}

// UpsertCartItem adds qty to the cart's line for the product, creating the
// line when the cart has none.
func (s *store) UpsertCartItem(ctx context.Context, cartID, productID int64, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	_, err := s.exec(ctx, `INSERT INTO cart_items (cart_id, product_id, quantity) VALUES (?, ?, ?)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + excluded.quantity`,
		cartID, productID, qty)
	if err != nil {
		return fmt.Errorf("failed to add product %d to cart %d: %w", productID, cartID, err)
	}
	return s.touchCart(ctx, cartID)
}

func (s *store) GetCartItem(ctx context.Context, itemID int64) (*models.CartItem, error) {
	item, err := scanCartItem(s.queryRow(ctx, selectCartItem+` WHERE ci.id = ?`, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart item %d: %w", itemID, err)
	}
	return item, nil
}

func (s *store) SetCartItemQuantity(ctx context.Context, itemID int64, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	res, err := s.exec(ctx, `UPDATE cart_items SET quantity = ? WHERE id = ?`, qty, itemID)
	if err != nil {
		return fmt.Errorf("failed to update cart item %d: %w", itemID, err)
	}
	if err := expectOne(res, "cart item", itemID); err != nil {
		return err
	}
	return s.touchCartOfItem(ctx, itemID)
}

func (s *store) DeleteCartItem(ctx context.Context, itemID int64) error {
	if err := s.touchCartOfItem(ctx, itemID); err != nil {
		return err
	}
	res, err := s.exec(ctx, `DELETE FROM cart_items WHERE id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item %d: %w", itemID, err)
	}
	return expectOne(res, "cart item", itemID)
}

func (s *store) touchCart(ctx context.Context, cartID int64) error {
	if _, err := s.exec(ctx, `UPDATE carts SET updated_at = ? WHERE id = ?`, now(), cartID); err != nil {
		return fmt.Errorf("failed to touch cart %d: %w", cartID, err)
	}
	return nil
}

func (s *store) touchCartOfItem(ctx context.Context, itemID int64) error {
	_, err := s.exec(ctx, `UPDATE carts SET updated_at = ? WHERE id = (SELECT cart_id FROM cart_items WHERE id = ?)`, now(), itemID)
	if err != nil {
		return fmt.Errorf("failed to touch cart of item %d: %w", itemID, err)
	}
	return nil
}
