// Command migrate reconciles the catalog's MongoDB indexes and exits. It
// drops legacy indexes that conflict with the canonical set, such as a
// case-sensitive unique name index, and creates the missing ones.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	mongodb "github.com/inventario/catalog-api/internal/infrastructure/db/mongo"
	"github.com/inventario/catalog-api/internal/pkg/config"
	"github.com/inventario/catalog-api/pkg/logger"
)

func main() {
	var timeout time.Duration
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline for the migration")
	flag.Parse()

	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "catalog-migrate",
		Output:  os.Stderr,
	})
	log := logger.Get()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongodb")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	report, err := mongodb.NewIndexMigrator(db, log).Migrate(ctx)
	if err != nil {
		log.Error().Err(err).Msg("index migration failed")
		_ = client.Disconnect(context.Background())
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Error().Err(err).Msg("write report")
	}
}
