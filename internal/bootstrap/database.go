package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/go-authgate/fedlink/internal/config"
	"github.com/go-authgate/fedlink/internal/store"
)

// initializeDatabase opens the database, runs migrations and seeds the admin account
func initializeDatabase(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.DBInitTimeout)
	defer cancel()

	db, err := store.New(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Printf("Database initialized (driver: %s)", cfg.DatabaseDriver)
	return db, nil
}
