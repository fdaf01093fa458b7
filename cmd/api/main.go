package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"doceditor/docs"
	"doceditor/internal/config"
	"doceditor/internal/database"
	"doceditor/internal/database/migration"
	"doceditor/internal/extract"
	"doceditor/internal/files"
	handlers "doceditor/internal/http/handler"
	"doceditor/internal/http/middleware"
	"doceditor/internal/logging"
	"doceditor/internal/notify"
	"doceditor/internal/otel"
	"doceditor/internal/repository/postgres"
	"doceditor/internal/service"
	"doceditor/internal/storage"
)

const maxUploadBytes = 50 << 20

// @title Document Editor API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc := logging.Location(cfg.TimeZone)
	log := logging.New(cfg.LogLevel, os.Stdout, loc)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	blobs, resolver, err := newBlobBackend(ctx, cfg)
	if err != nil {
		log.Fatal("failed to initialize blob storage", zap.Error(err), zap.String("backend", cfg.Extract.BlobBackend))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	extractionMetrics, err := service.NewExtractionMetrics(reg)
	if err != nil {
		log.Fatal("failed to register extraction metrics", zap.Error(err))
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal("failed to register http metrics", zap.Error(err))
	}

	extractor := extract.New(blobs,
		extract.WithDocTool(cfg.Extract.DocTextTool),
		extract.WithPDFTool(cfg.Extract.PDFTextTool),
		extract.WithLogger(log),
	)

	policy := service.KeepOrphans
	if cfg.Extract.DeleteOrphanImages {
		policy = service.DeleteOrphans
	}
	loader := service.NewContentLoader(resolver, extractor, notify.NewSink(log),
		service.WithOrphanPolicy(policy, blobs),
		service.WithMetrics(extractionMetrics),
		service.WithLoaderLogger(log),
	)

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	docSvc := service.NewDocumentService(blobs, docRepo, loader, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    maxUploadBytes,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Notifications())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", handlers.Metrics(reg))

	// Register HTTP routes with injected service
	if cfg.Extract.ServePrivateFiles {
		log.Warn("private files are served without permission checks")
	}
	handlers.RegisterRoutes(app, db, docSvc, handlers.FileRoutes{
		Blobs:         blobs,
		PresignExpiry: time.Duration(cfg.Extract.PresignExpirySec) * time.Second,
		ServePrivate:  cfg.Extract.ServePrivateFiles,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			log.Error("server shutdown failed", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	log.Info("server starting", zap.String("addr", addr), zap.String("blob_backend", cfg.Extract.BlobBackend))
	if err := app.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

// newBlobBackend picks where uploads and extracted images live and how extractors reach them.
func newBlobBackend(ctx context.Context, cfg *config.AppConfig) (storage.BlobStore, files.Resolver, error) {
	switch cfg.Extract.BlobBackend {
	case config.BlobBackendMinIO:
		objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewObjectStore(objStore), storage.NewObjectResolver(objStore, cfg.Extract.TempDir), nil
	default:
		site, err := storage.NewSiteStore(cfg.Extract.SiteRoot)
		if err != nil {
			return nil, nil, err
		}
		return site, files.NewSiteResolver(cfg.Extract.SiteRoot), nil
	}
}
