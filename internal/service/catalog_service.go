package service

import (
	"context"
	"fmt"
	"strings"

	"resort/internal/domain"
	"resort/internal/models"

	"github.com/rs/zerolog"
)

// CatalogService manages rooms and products. Writes are admin only; reads are public.
type CatalogService struct {
	db     domain.Database
	logger *zerolog.Logger
}

func NewCatalogService(db domain.Database, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{db: db, logger: logger}
}

func validateRoom(r *models.Room) error {
	r.Name = strings.TrimSpace(r.Name)
	switch {
	case r.Name == "":
		return fmt.Errorf("%w: room name is required", ErrInvalidArgument)
	case r.Price.IsNegative():
		return fmt.Errorf("%w: room price must not be negative", ErrInvalidArgument)
	case r.Capacity < 1:
		return fmt.Errorf("%w: room capacity must be at least 1", ErrInvalidArgument)
	case r.Stock < 0:
		return fmt.Errorf("%w: room stock must not be negative", ErrInvalidArgument)
	}
	return nil
}

func validateProduct(p *models.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: product name is required", ErrInvalidArgument)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: product price must not be negative", ErrInvalidArgument)
	case p.Stock < 0:
		return fmt.Errorf("%w: product stock must not be negative", ErrInvalidArgument)
	}
	return nil
}

func (s *CatalogService) ListRooms(ctx context.Context, onlyAvailable bool) ([]*models.Room, error) {
	rooms, err := s.db.ListRooms(ctx, onlyAvailable)
	return rooms, translate(err)
}

func (s *CatalogService) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	room, err := s.db.GetRoom(ctx, id)
	return room, translate(err)
}

func (s *CatalogService) CreateRoom(ctx context.Context, room *models.Room) error {
	if err := validateRoom(room); err != nil {
		return err
	}
	if err := s.db.CreateRoom(ctx, room); err != nil {
		return translate(err)
	}
	s.logger.Info().Int64("room_id", room.ID).Str("name", room.Name).Int("stock", room.Stock).Msg("Room created")
	return nil
}

// UpdateRoom replaces every field of the room, stock included.
func (s *CatalogService) UpdateRoom(ctx context.Context, room *models.Room) error {
	if err := validateRoom(room); err != nil {
		return err
	}
	if err := s.db.UpdateRoom(ctx, room); err != nil {
		return translate(err)
	}
	s.logger.Info().Int64("room_id", room.ID).Int("stock", room.Stock).Bool("available", room.Available).Msg("Room updated")
	return nil
}

func (s *CatalogService) DeleteRoom(ctx context.Context, id int64) error {
	if err := s.db.DeleteRoom(ctx, id); err != nil {
		return translate(err)
	}
	s.logger.Info().Int64("room_id", id).Msg("Room deleted")
	return nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	products, err := s.db.ListProducts(ctx)
	return products, translate(err)
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.db.GetProduct(ctx, id)
	return product, translate(err)
}

func (s *CatalogService) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	if err := s.db.CreateProduct(ctx, product); err != nil {
		return translate(err)
	}
	s.logger.Info().Int64("product_id", product.ID).Str("name", product.Name).Int("stock", product.Stock).Msg("Product created")
	return nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, product *models.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	if err := s.db.UpdateProduct(ctx, product); err != nil {
		return translate(err)
	}
	s.logger.Info().Int64("product_id", product.ID).Int("stock", product.Stock).Msg("Product updated")
	return nil
}

// DeleteProduct removes the product. Cart lines pointing at it go with it;
// order lines keep their snapshot.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.db.DeleteProduct(ctx, id); err != nil {
		return translate(err)
	}
	s.logger.Info().Int64("product_id", id).Msg("Product deleted")
	return nil
}
