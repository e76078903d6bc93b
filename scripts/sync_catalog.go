package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"resort/internal/config"
	"resort/internal/database"
	"resort/internal/models"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run upserts the rooms and products of a seed file by name. Stock of rows
// that already exist is left untouched so live reservations stay consistent.
func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		seedPath = flag.String("seed", "configs/seed.yaml", "path to seed.yaml")
		dbPath   = flag.String("db", "./data/resort.db", "path to sqlite db")
	)
	flag.Parse()

	seed, err := database.LoadSeed(*seedPath)
	if err != nil {
		return err
	}
	if len(seed.Rooms) == 0 && len(seed.Products) == 0 {
		return fmt.Errorf("no rooms or products in %s", *seedPath)
	}

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: *dbPath}, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	roomsCreated, roomsUpdated, err := syncRooms(ctx, db, seed.Rooms)
	if err != nil {
		return err
	}
	productsCreated, productsUpdated, err := syncProducts(ctx, db, seed.Products)
	if err != nil {
		return err
	}

	fmt.Printf("done: rooms created=%d updated=%d, products created=%d updated=%d\n",
		roomsCreated, roomsUpdated, productsCreated, productsUpdated)
	return nil
}

func syncRooms(ctx context.Context, db *database.DB, rooms []models.Room) (created, updated int, err error) {
	existing, err := db.ListRooms(ctx, false)
	if err != nil {
		return 0, 0, fmt.Errorf("list rooms: %w", err)
	}
	byName := make(map[string]*models.Room, len(existing))
	for _, r := range existing {
		byName[r.Name] = r
	}

	for i := range rooms {
		room := rooms[i]
		if room.Name == "" {
			continue
		}
		if cur, ok := byName[room.Name]; ok {
			room.ID = cur.ID
			room.Stock = cur.Stock
			if err := db.UpdateRoom(ctx, &room); err != nil {
				return created, updated, fmt.Errorf("update room %s: %w", room.Name, err)
			}
			updated++
			continue
		}
		if err := db.CreateRoom(ctx, &room); err != nil {
			return created, updated, fmt.Errorf("create room %s: %w", room.Name, err)
		}
		created++
	}
	return created, updated, nil
}

func syncProducts(ctx context.Context, db *database.DB, products []models.Product) (created, updated int, err error) {
	existing, err := db.ListProducts(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list products: %w", err)
	}
	byName := make(map[string]*models.Product, len(existing))
	for _, p := range existing {
		byName[p.Name] = p
	}

	for i := range products {
		product := products[i]
		if product.Name == "" {
			continue
		}
		if cur, ok := byName[product.Name]; ok {
			product.ID = cur.ID
			product.Stock = cur.Stock
			if err := db.UpdateProduct(ctx, &product); err != nil {
				return created, updated, fmt.Errorf("update product %s: %w", product.Name, err)
			}
			updated++
			continue
		}
		if err := db.CreateProduct(ctx, &product); err != nil {
			return created, updated, fmt.Errorf("create product %s: %w", product.Name, err)
		}
		created++
	}
	return created, updated, nil
}
