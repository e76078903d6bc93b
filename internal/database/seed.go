package database

import (
	"context"
	"fmt"
	"os"

	"resort/internal/domain"
	"resort/internal/models"

	"gopkg.in/yaml.v3"
)

// Seed is the start-up content of an empty database.
type Seed struct {
	Users    []models.User    `yaml:"users"`
	Rooms    []models.Room    `yaml:"rooms"`
	Products []models.Product `yaml:"products"`
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

// ApplySeed fills each empty table from the seed in one transaction. Tables
// that already hold rows are left alone.
func (db *DB) ApplySeed(ctx context.Context, seed *Seed) error {
	if seed == nil {
		return nil
	}

	return db.WithTx(ctx, func(tx domain.Store) error {
		users, err := tx.ListUsers(ctx)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			for i := range seed.Users {
				if err := tx.CreateUser(ctx, &seed.Users[i]); err != nil {
					return err
				}
			}
		}

		rooms, err := tx.ListRooms(ctx, false)
		if err != nil {
			return err
		}
		if len(rooms) == 0 {
			for i := range seed.Rooms {
				if err := tx.CreateRoom(ctx, &seed.Rooms[i]); err != nil {
					return err
				}
			}
		}

		products, err := tx.ListProducts(ctx)
		if err != nil {
			return err
		}
		if len(products) == 0 {
			for i := range seed.Products {
				if err := tx.CreateProduct(ctx, &seed.Products[i]); err != nil {
					return err
				}
			}
		}

		db.logger.Info().
			Int("users", len(seed.Users)).
			Int("rooms", len(seed.Rooms)).
			Int("products", len(seed.Products)).
			Msg("Seed applied to empty tables")
		return nil
	})
}
