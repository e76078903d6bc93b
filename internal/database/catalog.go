package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"resort/internal/models"
)

const (
	selectRoom = `SELECT id, name, type, description, price, capacity, available, stock, created_at, updated_at FROM rooms`

	selectProduct = `SELECT id, name, description, image_url, price, stock, created_at, updated_at FROM products`
)

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func now() time.Time {
	return time.Now().UTC()
}

func scanRoom(row scanner) (*models.Room, error) {
	var r models.Room
	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Type,
		&r.Description,
		&r.Price,
		&r.Capacity,
		&r.Available,
		&r.Stock,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanProduct(row scanner) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.ImageURL,
		&p.Price,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *store) getRoom(ctx context.Context, query string, id int64) (*models.Room, error) {
	room, err := scanRoom(s.queryRow(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("room %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room %d: %w", id, err)
	}
	return room, nil
}

func (s *store) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	return s.getRoom(ctx, selectRoom+` WHERE id = ?`, id)
}

func (s *store) ListRooms(ctx context.Context, onlyAvailable bool) ([]*models.Room, error) {
	query := selectRoom
	if onlyAvailable {
		query += ` WHERE available = TRUE AND stock > 0`
	}
	query += ` ORDER BY id`

	rows, err := s.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (s *store) CreateRoom(ctx context.Context, room *models.Room) error {
	ts := now()
	id, err := s.insert(ctx, `INSERT INTO rooms (
			name, type, description, price, capacity, available, stock, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		room.Name,
		room.Type,
		room.Description,
		room.Price,
		room.Capacity,
		room.Available,
		room.Stock,
		ts,
		ts,
	)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	room.ID = id
	room.CreatedAt = ts
	room.UpdatedAt = ts
	return nil
}

func (s *store) UpdateRoom(ctx context.Context, room *models.Room) error {
	ts := now()
	res, err := s.exec(ctx, `UPDATE rooms SET
			name = ?, type = ?, description = ?, price = ?, capacity = ?, available = ?, stock = ?, updated_at = ?
		WHERE id = ?`,
		room.Name,
		room.Type,
		room.Description,
		room.Price,
		room.Capacity,
		room.Available,
		room.Stock,
		ts,
		room.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update room %d: %w", room.ID, err)
	}
	if err := expectOne(res, "room", room.ID); err != nil {
		return err
	}
	room.UpdatedAt = ts
	return nil
}

func (s *store) DeleteRoom(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room %d: %w", id, err)
	}
	return expectOne(res, "room", id)
}

func (s *store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := scanProduct(s.queryRow(ctx, selectProduct+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return p, nil
}

func (s *store) ListProducts(ctx context.Context) ([]*models.Product, error) {
	rows, err := s.query(ctx, selectProduct+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *store) CreateProduct(ctx context.Context, p *models.Product) error {
	ts := now()
	id, err := s.insert(ctx, `INSERT INTO products (
			name, description, image_url, price, stock, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Name,
		p.Description,
		p.ImageURL,
		p.Price,
		p.Stock,
		ts,
		ts,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	p.ID = id
	p.CreatedAt = ts
	p.UpdatedAt = ts
	return nil
}

func (s *store) UpdateProduct(ctx context.Context, p *models.Product) error {
	ts := now()
	res, err := s.exec(ctx, `UPDATE products SET
			name = ?, description = ?, image_url = ?, price = ?, stock = ?, updated_at = ?
		WHERE id = ?`,
		p.Name,
		p.Description,
		p.ImageURL,
		p.Price,
		p.Stock,
		ts,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", p.ID, err)
	}
	if err := expectOne(res, "product", p.ID); err != nil {
		return err
	}
	p.UpdatedAt = ts
	return nil
}

func (s *store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return expectOne(res, "product", id)
}

// expectOne maps zero affected rows to ErrNotFound.
func expectOne(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
