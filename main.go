package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medportal/medportalbackend/config"
	"github.com/medportal/medportalbackend/controllers"
	"github.com/medportal/medportalbackend/database"
	"github.com/medportal/medportalbackend/events"
	"github.com/medportal/medportalbackend/hospitals"
	"github.com/medportal/medportalbackend/logger"
	"github.com/medportal/medportalbackend/router"
	"github.com/medportal/medportalbackend/services"
	"github.com/medportal/medportalbackend/sessions"
	"github.com/medportal/medportalbackend/storage"
	"github.com/medportal/medportalbackend/utils"
	"github.com/rs/zerolog"
)

// accountStore is what both the services and admin seeding need.
type accountStore interface {
	services.AccountStore
	utils.AdminEnsurer
}

func main() {
	cfg, dotenv, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.IsDev())
	if !dotenv {
		log.Debug().Msg("no .env file loaded")
	}
	if cfg.UsesDefaultSecret() && !cfg.IsDev() {
		log.Warn().Msg("SESSION_SECRET is the built-in default; set it before going to production")
	}
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	var cleanups []func()
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	accounts, closeAccounts, err := openAccountStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, closeAccounts)

	sessionStore, closeSessions, err := openSessionStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, closeSessions)

	blobs, closeBlobs, err := openBlobStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, closeBlobs)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		p := events.NewAMQPPublisher(cfg.AMQPURL)
		publisher = p
		cleanups = append(cleanups, func() { _ = p.Close() })
		log.Info().Msg("publishing domain events to AMQP")
	}

	hasher := utils.NewPasswordHasher(cfg.BcryptCost)
	if err := utils.SeedAdminAccount(ctx, accounts, hasher, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminOrganisation, log); err != nil {
		return err
	}

	manager := sessions.NewManager(sessionStore, cfg.SessionSecret, cfg.SessionTTL())
	validator := utils.NewFileValidator(cfg.AllowedFileExts, cfg.AllowedFileMimes, cfg.MaxUploadBytes())

	r := router.Setup(router.Deps{
		Auth:      services.NewAuthService(accounts, hasher, manager, publisher, log),
		Documents: services.NewDocumentService(accounts, blobs, validator, publisher, log),
		Sessions:  manager,
		Hospitals: hospitals.NewClient(cfg.HospitalsAPIURL, nil),
		Cookie: controllers.CookieOptions{
			Name:   cfg.SessionCookieName,
			Domain: cfg.CookieDomain,
			Secure: cfg.CookieSecure,
			TTL:    cfg.SessionTTL(),
		},
		AllowedOrigins: cfg.AllowedOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Log:            log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openAccountStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (accountStore, func(), error) {
	if cfg.AccountStore == config.StoreMemory {
		log.Warn().Msg("using in-memory account store; accounts are lost on restart")
		return database.NewMemoryAccountStore(), func() {}, nil
	}

	m, err := database.Connect(ctx, cfg.MongoURI, cfg.DatabaseName)
	if err != nil {
		return nil, nil, err
	}
	if err := m.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("could not create indexes")
	}
	log.Info().Str("database", cfg.DatabaseName).Msg("connected to MongoDB")

	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}
	return database.NewMongoAccountStore(m), closeFn, nil
}

func openSessionStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (sessions.Store, func(), error) {
	if cfg.SessionStore != config.StoreRedis {
		return sessions.NewMemoryStore(), func() {}, nil
	}

	client, err := sessions.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("session store: redis")
	return sessions.NewRedisStore(client), func() { _ = client.Close() }, nil
}

// openBlobStore returns a nil store when BLOB_STORE=none, which disables
// file uploads.
func openBlobStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.BlobStore, func(), error) {
	switch cfg.BlobStore {
	case config.BlobS3:
		s, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.R2Bucket,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretKey,
			Endpoint:        cfg.R2Endpoint,
			PublicDomain:    cfg.R2PublicDomain,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("bucket", cfg.R2Bucket).Msg("blob store: r2")
		return s, func() {}, nil
	case config.BlobGCS:
		g, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentials)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("bucket", cfg.GCSBucket).Msg("blob store: gcs")
		return g, func() { _ = g.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}
