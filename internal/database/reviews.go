package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"resort/internal/models"
)

const selectReview = `SELECT r.id, r.user_id, u.username, r.room_id, r.product_id, r.rating, r.comment, r.created_at
	FROM reviews r JOIN users u ON u.id = r.user_id`

func scanReview(row scanner) (*models.Review, error) {
	var (
		r         models.Review
		roomID    sql.NullInt64
		productID sql.NullInt64
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.Username, &roomID, &productID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
		return nil, err
	}
	if roomID.Valid {
		r.Kind, r.ItemID = models.KindRoom, roomID.Int64
	} else {
		r.Kind, r.ItemID = models.KindProduct, productID.Int64
	}
	return &r, nil
}

// reviewColumn is the reviews column referencing an item of the given kind.
func reviewColumn(kind models.ItemKind) (string, error) {
	switch kind {
	case models.KindRoom:
		return "room_id", nil
	case models.KindProduct:
		return "product_id", nil
	default:
		return "", fmt.Errorf("%q: %w", kind, ErrUnknownItemKind)
	}
}

func (s *store) CreateReview(ctx context.Context, review *models.Review) error {
	column, err := reviewColumn(review.Kind)
	if err != nil {
		return err
	}

	ts := now()
	id, err := s.insert(ctx, `INSERT INTO reviews (user_id, `+column+`, rating, comment, created_at) VALUES (?, ?, ?, ?, ?)`,
		review.UserID,
		review.ItemID,
		review.Rating,
		review.Comment,
		ts,
	)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	review.ID = id
	review.CreatedAt = ts
	return nil
}

func (s *store) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	review, err := scanReview(s.queryRow(ctx, selectReview+` WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("review %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review %d: %w", id, err)
	}
	return review, nil
}

// ListReviews returns the reviews of one item, newest first.
func (s *store) ListReviews(ctx context.Context, kind models.ItemKind, itemID int64) ([]*models.Review, error) {
	column, err := reviewColumn(kind)
	if err != nil {
		return nil, err
	}

	rows, err := s.query(ctx, selectReview+` WHERE r.`+column+` = ? ORDER BY r.created_at DESC, r.id DESC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]*models.Review, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (s *store) DeleteReview(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review %d: %w", id, err)
	}
	return expectOne(res, "review", id)
}
