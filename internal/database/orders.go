package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"resort/internal/models"
)

const selectOrder = `SELECT o.id, o.user_id, o.total_price, o.total_items, o.status, o.shipping_address,
	o.phone_number, o.note, o.created_at, o.updated_at, o.version FROM orders o`

func scanOrder(row scanner) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.TotalPrice,
		&o.TotalItems,
		&o.Status,
		&o.ShippingAddress,
		&o.PhoneNumber,
		&o.Note,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.Version,
	)
	if err != nil {
		return nil, err
	}
	o.Items = []models.OrderItem{}
	return &o, nil
}

// CreateOrder inserts the order and its item snapshots.
func (s *store) CreateOrder(ctx context.Context, order *models.Order) error {
	ts := now()
	id, err := s.insert(ctx, `INSERT INTO orders (
			user_id, total_price, total_items, status, shipping_address, phone_number, note,
			created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		order.UserID,
		order.TotalPrice,
		order.TotalItems,
		order.Status,
		order.ShippingAddress,
		order.PhoneNumber,
		order.Note,
		ts,
		ts,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		itemID, err := s.insert(ctx, `INSERT INTO order_items (
				order_id, product_id, product_name, product_price, quantity, subtotal
			) VALUES (?, ?, ?, ?, ?, ?)`,
			id,
			item.ProductID,
			item.ProductName,
			item.ProductPrice,
			item.Quantity,
			item.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item for product %d: %w", item.ProductID, err)
		}
		item.ID = itemID
		item.OrderID = id
	}

	order.ID = id
	order.CreatedAt = ts
	order.UpdatedAt = ts
	order.Version = 1
	return nil
}

func (s *store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order, err := scanOrder(s.queryRow(ctx, selectOrder+` WHERE o.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	if err := s.attachOrderItems(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *store) ListOrdersByUser(ctx context.Context, userID int64) ([]*models.Order, error) {
	return s.listOrders(ctx, selectOrder+` WHERE o.user_id = ? ORDER BY o.created_at DESC, o.id DESC`, userID)
}

// ListOrders pages through every order. A keyword matches the owner's
// username, the shipping address, the phone number or, when numeric, the id.
func (s *store) ListOrders(ctx context.Context, filter models.ListFilter) ([]*models.Order, error) {
	filter = filter.Normalize()

	query := selectOrder
	var args []any
	if k := strings.TrimSpace(filter.Keyword); k != "" {
		like := s.likeArg(k)
		query += ` JOIN users u ON u.id = o.user_id
			WHERE LOWER(u.username) LIKE ? OR LOWER(o.shipping_address) LIKE ? OR LOWER(o.phone_number) LIKE ? OR o.id = ?`
		args = append(args, like, like, like, numericKeyword(k))
	}
	query += ` ORDER BY o.created_at DESC, o.id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	return s.listOrders(ctx, query, args...)
}

func (s *store) listOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *store) attachOrderItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[int64]*models.Order, len(orders))
	placeholders := make([]string, 0, len(orders))
	args := make([]any, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		placeholders = append(placeholders, "?")
		args = append(args, o.ID)
	}

	rows, err := s.query(ctx, `SELECT id, order_id, product_id, product_name, product_price, quantity, subtotal
		FROM order_items WHERE order_id IN (`+strings.Join(placeholders, ", ")+`) ORDER BY id`, args...)
	if err != nil {
		return fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.ProductPrice,
			&item.Quantity,
			&item.Subtotal,
		); err != nil {
			return err
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

func (s *store) SetOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	res, err := s.exec(ctx, `UPDATE orders SET status = ?, updated_at = ?, version = version + 1 WHERE id = ?`,
		status, now(), id)
	if err != nil {
		return fmt.Errorf("failed to update order %d status: %w", id, err)
	}
	return expectOne(res, "order", id)
}

func (s *store) TransitionOrderStatus(ctx context.Context, id int64, from []models.OrderStatus, to models.OrderStatus) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	placeholders := make([]string, len(from))
	args := []any{to, now(), id}
	for i, st := range from {
		placeholders[i] = "?"
		args = append(args, st)
	}

	res, err := s.exec(ctx, `UPDATE orders SET status = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND status IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return false, fmt.Errorf("failed to transition order %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *store) DeleteOrder(ctx context.Context, id int64) error {
	if _, err := s.exec(ctx, `DELETE FROM order_items WHERE order_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}
	res, err := s.exec(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	return expectOne(res, "order", id)
}

// numericKeyword returns the keyword as an id, or -1 when it is not a number.
func numericKeyword(k string) int64 {
	id, err := strconv.ParseInt(k, 10, 64)
	if err != nil {
		return -1
	}
	return id
}
