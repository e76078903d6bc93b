package service

import (
	"context"
	"fmt"
	"strings"

	"resort/internal/domain"
	"resort/internal/models"

	"github.com/rs/zerolog"
)

// ReviewService manages room and product reviews. Anyone authenticated may
// write one; only its author or an admin may delete it.
type ReviewService struct {
	db     domain.Database
	logger *zerolog.Logger
}

func NewReviewService(db domain.Database, logger *zerolog.Logger) *ReviewService {
	return &ReviewService{db: db, logger: logger}
}

// List returns the reviews of a room or product. The item must exist.
func (s *ReviewService) List(ctx context.Context, kind models.ItemKind, itemID int64) ([]*models.Review, error) {
	if err := itemExists(ctx, s.db, kind, itemID); err != nil {
		return nil, translate(err)
	}
	reviews, err := s.db.ListReviews(ctx, kind, itemID)
	return reviews, translate(err)
}

func (s *ReviewService) Create(ctx context.Context, userID int64, kind models.ItemKind, itemID int64, rating int, comment string) (*models.Review, error) {
	if !models.ValidRating(rating) {
		return nil, fmt.Errorf("%w: rating must be between %d and %d, got %d",
			ErrInvalidArgument, models.MinRating, models.MaxRating, rating)
	}

	var review *models.Review
	err := s.db.WithTx(ctx, func(tx domain.Store) error {
		if _, err := tx.GetUserByID(ctx, userID); err != nil {
			return err
		}
		if err := itemExists(ctx, tx, kind, itemID); err != nil {
			return err
		}

		r := &models.Review{
			UserID:  userID,
			Kind:    kind,
			ItemID:  itemID,
			Rating:  rating,
			Comment: strings.TrimSpace(comment),
		}
		if err := tx.CreateReview(ctx, r); err != nil {
			return err
		}
		var err error
		review, err = tx.GetReview(ctx, r.ID)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}

	s.logger.Info().
		Int64("review_id", review.ID).
		Int64("user_id", userID).
		Str("item_kind", string(kind)).
		Int64("item_id", itemID).
		Int("rating", rating).
		Msg("Review created")
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, reviewID int64, p models.Principal) error {
	err := s.db.WithTx(ctx, func(tx domain.Store) error {
		review, err := tx.GetReview(ctx, reviewID)
		if err != nil {
			return err
		}
		if !p.Owns(review.UserID) {
			return fmt.Errorf("%w: review %d belongs to another user", ErrForbidden, reviewID)
		}
		return tx.DeleteReview(ctx, reviewID)
	})
	if err != nil {
		return translate(err)
	}

	s.logger.Info().Int64("review_id", reviewID).Int64("deleted_by", p.UserID).Bool("admin", p.IsAdmin).Msg("Review deleted")
	return nil
}

func itemExists(ctx context.Context, store domain.CatalogStore, kind models.ItemKind, id int64) error {
	switch kind {
	case models.KindRoom:
		_, err := store.GetRoom(ctx, id)
		return err
	case models.KindProduct:
		_, err := store.GetProduct(ctx, id)
		return err
	default:
		return fmt.Errorf("%w: unknown item kind %q", ErrInvalidArgument, kind)
	}
}
