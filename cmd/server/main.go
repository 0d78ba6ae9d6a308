package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"beiboot-backend/internal/auth"
	"beiboot-backend/internal/config"
	"beiboot-backend/internal/database"
	"beiboot-backend/internal/exif"
	"beiboot-backend/internal/handlers"
	"beiboot-backend/internal/logger"
	"beiboot-backend/internal/metrics"
	"beiboot-backend/internal/search"
	"beiboot-backend/internal/services"
	"beiboot-backend/internal/storage"
	"beiboot-backend/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			zlog.Fatal("sentry initialization failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verifier, err := newVerifier(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize token verifier", zap.Error(err))
	}

	db, err := database.NewClient(ctx, cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.NewMigrator(db.DB(), zlog).Run(ctx); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}

	objects, err := newObjectStore(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize object store", zap.Error(err))
	}

	index := search.NewMeiliIndex(cfg.Search.URL, cfg.Search.APIKey, cfg.Search.Index, zlog)
	if err := index.EnsureSettings(ctx); err != nil {
		zlog.Warn("search index settings not applied", zap.Error(err))
	}

	tool, err := exif.NewExifTool()
	if err != nil {
		zlog.Fatal("failed to start exiftool", zap.Error(err))
	}
	defer tool.Close()

	if err := os.MkdirAll(cfg.Metadata.ScratchDir, 0o700); err != nil {
		zlog.Fatal("failed to create scratch dir", zap.String("dir", cfg.Metadata.ScratchDir), zap.Error(err))
	}

	h := handlers.Handlers{
		Health:   handlers.NewHealthHandler(db, zlog),
		Projects: handlers.NewProjectsHandler(services.NewProjectService(db, index, zlog), zlog),
		Images: handlers.NewImagesHandler(
			services.NewImageService(db, objects, index, zlog, services.ImageOptions{
				MaxFileSize: cfg.Upload.MaxFileSize,
				URLExpiry:   cfg.Storage.SignedURLExpiry,
			}),
			zlog, cfg.Upload.MaxMemory, cfg.Upload.MaxFileSize,
		),
		Metadata: handlers.NewMetadataHandler(services.NewMetadataService(db, objects, tool, cfg.Metadata.ScratchDir, zlog), zlog),
		Users:    handlers.NewUsersHandler(services.NewUserService(db), zlog),
		Search:   handlers.NewSearchHandler(services.NewSearchService(index), zlog),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(logger.GinMiddleware(zlog))
	router.Use(metrics.Middleware())
	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))
	handlers.RegisterRoutes(router, h, verifier, zlog)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newVerifier picks the strongest configured token check: OIDC discovery,
// then a static RS256 key, then unverified decoding for local development.
func newVerifier(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (auth.Verifier, error) {
	switch {
	case cfg.Auth.IssuerURL != "":
		zlog.Info("verifying tokens against issuer", zap.String("issuer", cfg.Auth.IssuerURL))
		return auth.NewOIDCVerifier(ctx, cfg.Auth.IssuerURL, cfg.Auth.ClientID)
	case cfg.Auth.PublicKey != "":
		zlog.Info("verifying tokens with static public key")
		return auth.NewKeyVerifier(cfg.Auth.PublicKey)
	default:
		if cfg.IsProduction() {
			zlog.Error("no AUTH_ISSUER_URL or AUTH_PUBLIC_KEY set; token signatures are NOT verified")
		} else {
			zlog.Warn("no AUTH_ISSUER_URL or AUTH_PUBLIC_KEY set; token signatures are NOT verified")
		}
		return auth.NewUnverifiedDecoder(), nil
	}
}

func newObjectStore(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (storage.ObjectStore, error) {
	sc := cfg.Storage
	if strings.EqualFold(sc.Backend, config.StorageBackendSupabase) {
		zlog.Info("using supabase storage", zap.String("bucket", sc.SupabaseBucket))
		return supabase.NewStorageClient(sc.SupabaseURL, sc.SupabaseServiceKey, sc.SupabaseBucket), nil
	}

	store, err := storage.NewMinioStore(storage.MinioOptions{
		Endpoint:  sc.MinioEndpoint,
		AccessKey: sc.MinioAccessKey,
		SecretKey: sc.MinioSecretKey,
		UseSSL:    sc.MinioUseSSL,
		Region:    sc.MinioRegion,
		Bucket:    sc.MinioBucket,
	}, zlog)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	zlog.Info("using minio storage", zap.String("endpoint", sc.MinioEndpoint), zap.String("bucket", sc.MinioBucket))
	return store, nil
}

func corsConfig(allowed []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowed) > 0 {
		c.AllowOrigins = allowed
	} else {
		c.AllowOriginFunc = isLocalhostOrigin
	}
	return c
}

func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Scheme == "http" && u.Hostname() == "localhost"
}
