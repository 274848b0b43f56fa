package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"beerfinder/internal/config"
	"beerfinder/internal/database"
	"beerfinder/internal/logger"
	"beerfinder/internal/repository"
	"beerfinder/internal/seed"

	"go.uber.org/zap"
)

func main() {
	status := flag.Bool("status", false, "print migration status and exit")
	skipMigrate := flag.Bool("skip-migrate", false, "do not apply pending migrations before seeding")
	flag.Parse()

	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbService.Close()

	if *status {
		if err := database.GetMigrationStatus(dbService.DB()); err != nil {
			log.Fatal("Failed to read migration status", zap.Error(err))
		}
		return
	}

	if !*skipMigrate {
		if err := database.RunMigrations(dbService.DB(), log); err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := seed.Run(ctx, repository.NewStore(dbService.DB()), seed.Default(), log); err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}
}
