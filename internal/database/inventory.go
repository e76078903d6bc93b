package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"resort/internal/metrics"
	"resort/internal/models"
)

// reserveQueries guard the decrement with the stock check so the write is a
// single compare-and-swap.
var reserveQueries = map[models.ItemKind]string{
	models.KindRoom:    `UPDATE rooms SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ? AND available = TRUE`,
	models.KindProduct: `UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?`,
}

var releaseQueries = map[models.ItemKind]string{
	models.KindRoom:    `UPDATE rooms SET stock = stock + ?, updated_at = ? WHERE id = ?`,
	models.KindProduct: `UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?`,
}

// Reserve takes qty units of an item. Nothing changes unless the item exists
// and has at least qty units (rooms must also be available).
func (s *store) Reserve(ctx context.Context, kind models.ItemKind, itemID int64, qty int) error {
	err := s.reserve(ctx, kind, itemID, qty)
	metrics.IncStock(string(kind), "reserve", stockResult(err))
	return err
}

func (s *store) reserve(ctx context.Context, kind models.ItemKind, itemID int64, qty int) error {
	query, ok := reserveQueries[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownItemKind, kind)
	}
	if qty <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}

	res, err := s.exec(ctx, query, qty, now(), itemID, qty)
	if err != nil {
		return fmt.Errorf("failed to reserve %s %d: %w", kind, itemID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	exists, err := s.itemExists(ctx, kind, itemID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s %d: %w", kind, itemID, ErrNotFound)
	}
	return fmt.Errorf("%s %d: %w", kind, itemID, ErrInsufficientStock)
}

// Release returns qty units of an item. Stock has no upper bound.
func (s *store) Release(ctx context.Context, kind models.ItemKind, itemID int64, qty int) error {
	err := s.release(ctx, kind, itemID, qty)
	metrics.IncStock(string(kind), "release", stockResult(err))
	return err
}

func (s *store) release(ctx context.Context, kind models.ItemKind, itemID int64, qty int) error {
	query, ok := releaseQueries[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownItemKind, kind)
	}
	if qty <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}

	res, err := s.exec(ctx, query, qty, now(), itemID)
	if err != nil {
		return fmt.Errorf("failed to release %s %d: %w", kind, itemID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", kind, itemID, ErrNotFound)
	}
	return nil
}

func (s *store) itemExists(ctx context.Context, kind models.ItemKind, itemID int64) (bool, error) {
	table := "rooms"
	if kind == models.KindProduct {
		table = "products"
	}
	var n int
	if err := s.queryRow(ctx, "SELECT COUNT(*) FROM "+table+" WHERE id = ?", itemID).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check %s %d: %w", kind, itemID, err)
	}
	return n > 0, nil
}

// GetRoomForUpdate reads a room and, on Postgres, locks its row until the
// transaction ends.
func (s *store) GetRoomForUpdate(ctx context.Context, id int64) (*models.Room, error) {
	return s.getRoom(ctx, s.forUpdate(selectRoom+` WHERE id = ?`), id)
}

// LockProducts reads the given products in ascending id order, locking the
// rows on Postgres. Missing ids are absent from the result.
func (s *store) LockProducts(ctx context.Context, ids []int64) (map[int64]*models.Product, error) {
	result := make(map[int64]*models.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	placeholders := make([]string, len(sorted))
	args := make([]any, len(sorted))
	for i, id := range sorted {
		placeholders[i] = "?"
		args[i] = id
	}

	query := s.forUpdate(selectProduct + ` WHERE id IN (` + strings.Join(placeholders, ", ") + `) ORDER BY id`)
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	return result, rows.Err()
}

func stockResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
