package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"canopy/internal/auth"
	"canopy/internal/config"
	"canopy/internal/database"
	"canopy/internal/handler"
	"canopy/internal/middleware"
	"canopy/internal/repository/postgres"
	"canopy/internal/service/board"
	"canopy/internal/service/tree"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Run migrations over a plain database/sql connection, then close it;
	// the server itself talks to the pool.
	migrationDB, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect for migrations: %v", err)
	}
	if err := database.Migrate(migrationDB, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	migrationDB.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	nodeRepo := postgres.NewNodeRepository(repoConfig)
	boardRepo := postgres.NewBoardRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Create services
	treeService := tree.NewService(nodeRepo, txManager, logger)
	boardService := board.NewService(boardRepo, nodeRepo, txManager, logger)

	// Create handlers
	boardHandler := handler.NewBoardHandler(boardService, logger)
	categoryHandler := handler.NewCategoryHandler(treeService, boardService, logger)
	menuHandler := handler.NewMenuHandler(treeService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Board routes
	mux.HandleFunc("GET /api/boards", boardHandler.ListBoards)
	mux.HandleFunc("POST /api/boards", boardHandler.CreateBoard)
	mux.HandleFunc("GET /api/boards/{id}", boardHandler.GetBoard)
	mux.HandleFunc("PATCH /api/boards/{id}", boardHandler.UpdateBoard)
	mux.HandleFunc("DELETE /api/boards/{id}", boardHandler.DeleteBoard)

	// Category routes (scoped by board)
	mux.HandleFunc("GET /api/boards/{boardID}/categories", categoryHandler.ListCategories)
	mux.HandleFunc("POST /api/boards/{boardID}/categories", categoryHandler.CreateCategory)
	mux.HandleFunc("POST /api/boards/{boardID}/categories/reorder", categoryHandler.ReorderCategories)
	mux.HandleFunc("GET /api/boards/{boardID}/categories/{id}", categoryHandler.GetCategory)
	mux.HandleFunc("PATCH /api/boards/{boardID}/categories/{id}", categoryHandler.UpdateCategory)
	mux.HandleFunc("DELETE /api/boards/{boardID}/categories/{id}", categoryHandler.DeleteCategory)
	mux.HandleFunc("GET /api/boards/{boardID}/categories/{id}/subtree", categoryHandler.GetSubtree)
	mux.HandleFunc("GET /api/boards/{boardID}/categories/{id}/breadcrumb", categoryHandler.GetBreadcrumb)
	mux.HandleFunc("POST /api/boards/{boardID}/categories/{id}/move", categoryHandler.MoveCategory)
	mux.HandleFunc("POST /api/boards/{boardID}/categories/{id}/attachments", categoryHandler.AdjustAttachments)

	// Menu routes (scoped by namespace)
	mux.HandleFunc("GET /api/menus/{namespace}", menuHandler.GetMenu)
	mux.HandleFunc("POST /api/menus/{namespace}/items", menuHandler.CreateItem)
	mux.HandleFunc("POST /api/menus/{namespace}/reorder", menuHandler.ReorderItems)
	mux.HandleFunc("GET /api/menus/{namespace}/items/{id}", menuHandler.GetItem)
	mux.HandleFunc("PATCH /api/menus/{namespace}/items/{id}", menuHandler.UpdateItem)
	mux.HandleFunc("DELETE /api/menus/{namespace}/items/{id}", menuHandler.DeleteItem)
	mux.HandleFunc("POST /api/menus/{namespace}/items/{id}/move", menuHandler.MoveItem)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	h = middleware.Auth(jwtVerifier)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
