package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"canopy/internal/config"
	"canopy/internal/database"
	"canopy/internal/repository/postgres"
	"canopy/internal/seed"
	"canopy/internal/service/board"
	"canopy/internal/service/tree"

	"github.com/joho/godotenv"
)

func main() {
	tenantID := flag.String("tenant", "", "Tenant to seed (required)")
	userID := flag.String("user", "seed", "User id recorded as creator")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	if *tenantID == "" {
		log.Fatal("--tenant is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Seeding tenant %s (environment: %s, prefix: %s)", *tenantID, cfg.Environment, cfg.TablePrefix)

	// Ensure schema exists before seeding
	migrationDB, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(migrationDB, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	migrationDB.Close()

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	nodeRepo := postgres.NewNodeRepository(repoConfig)
	boardRepo := postgres.NewBoardRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	treeService := tree.NewService(nodeRepo, txManager, logger)
	boardService := board.NewService(boardRepo, nodeRepo, txManager, logger)
	seeder := seed.NewSeeder(boardService, treeService, logger)

	def, err := seed.Load(cfg.SeedFile)
	if err != nil {
		log.Fatalf("Failed to load seed definition: %v", err)
	}

	if err := seeder.Apply(ctx, *tenantID, *userID, def); err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}

	log.Printf("Seeding complete: %d boards, %d menus", len(def.Boards), len(def.Menus))
}
