package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/config"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/crypto"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/database"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/database/migration"
	handlers "github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/http/handler"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/http/middleware"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/otel"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/repository/postgres"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/service"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	// Initialize tracing (no-op when OTEL_SDK_DISABLED=true)
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		_ = shutdownTracing(context.Background())
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	blobStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// The vault must not start without a usable key. A configured master key
	// keeps blobs from previous runs readable; a generated one does not.
	var key crypto.Key
	if cfg.Vault.MasterKey != "" {
		key, err = crypto.ParseKey(cfg.Vault.MasterKeyID, cfg.Vault.MasterKey)
	} else {
		key, err = crypto.GenerateKey()
	}
	if err != nil {
		log.Fatalf("failed to initialize vault key: %v", err)
	}

	if cfg.Auth.JWTSecret == "" {
		log.Fatalf("AUTH_JWT_SECRET is required")
	}

	// Initialize repositories and services
	fileRepo := postgres.NewFilePostgres(db)
	auditRepo := postgres.NewAuditLogPostgres(db)
	vaultSvc := service.NewVaultService(blobStore, fileRepo, auditRepo, key)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())

	promMW, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, vaultSvc, middleware.Auth(cfg.Auth.JWTSecret))

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
