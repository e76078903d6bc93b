package database

import (
	"context"
	"testing"

	"resort/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviews(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createUser(t, db, "rita")
	room := createRoom(t, db, 1)
	product := createProduct(t, db, "Towel", 10, 5)

	roomReview := &models.Review{UserID: user.ID, Kind: models.KindRoom, ItemID: room.ID, Rating: 5, Comment: "lovely"}
	require.NoError(t, db.CreateReview(ctx, roomReview))
	assert.NotZero(t, roomReview.ID)

	productReview := &models.Review{UserID: user.ID, Kind: models.KindProduct, ItemID: product.ID, Rating: 2}
	require.NoError(t, db.CreateReview(ctx, productReview))

	t.Run("Get", func(t *testing.T) {
		got, err := db.GetReview(ctx, roomReview.ID)
		require.NoError(t, err)
		assert.Equal(t, "rita", got.Username)
		assert.Equal(t, models.KindRoom, got.Kind)
		assert.Equal(t, room.ID, got.ItemID)
		assert.Equal(t, "lovely", got.Comment)

		_, err = db.GetReview(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ListByItem", func(t *testing.T) {
		rooms, err := db.ListReviews(ctx, models.KindRoom, room.ID)
		require.NoError(t, err)
		require.Len(t, rooms, 1)
		assert.Equal(t, roomReview.ID, rooms[0].ID)

		products, err := db.ListReviews(ctx, models.KindProduct, product.ID)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, models.KindProduct, products[0].Kind)

		none, err := db.ListReviews(ctx, models.KindRoom, 999)
		require.NoError(t, err)
		assert.Empty(t, none)

		_, err = db.ListReviews(ctx, "spa", 1)
		assert.ErrorIs(t, err, ErrUnknownItemKind)
	})

	t.Run("Constraints", func(t *testing.T) {
		assert.Error(t, db.CreateReview(ctx, &models.Review{UserID: user.ID, Kind: models.KindRoom, ItemID: room.ID, Rating: 6}))
		assert.Error(t, db.CreateReview(ctx, &models.Review{UserID: 999, Kind: models.KindRoom, ItemID: room.ID, Rating: 3}))
		assert.Error(t, db.CreateReview(ctx, &models.Review{UserID: user.ID, Kind: models.KindRoom, ItemID: 999, Rating: 3}))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, db.DeleteReview(ctx, productReview.ID))
		assert.ErrorIs(t, db.DeleteReview(ctx, productReview.ID), ErrNotFound)
	})

	t.Run("CascadeWithRoom", func(t *testing.T) {
		require.NoError(t, db.DeleteRoom(ctx, room.ID))
		_, err := db.GetReview(ctx, roomReview.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
