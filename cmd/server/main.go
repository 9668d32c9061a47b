package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"coachportal/api"
	"coachportal/config"
	"coachportal/handlers"
	"coachportal/internal/database"
	"coachportal/internal/identity"
	"coachportal/internal/logging"
	"coachportal/internal/storage"
	"coachportal/internal/token"
	"coachportal/services/accounts"
	"coachportal/services/documents"
	"coachportal/services/messages"
	"coachportal/services/photos"
	"coachportal/services/portal"
	"coachportal/services/scheduler"
	"coachportal/services/sessions"
	"coachportal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}
	logging.Setup(cfg)
	utils.SetTrustedOrigins(cfg.TrustedOrigins)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("create data directory")
	}

	db, err := database.NewDB(database.Config{DatabasePath: cfg.DatabasePath})
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	conn := db.Connection()

	codec, err := token.NewCodec(cfg.AppSecret, cfg.SessionTTL, cfg.PortalTokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("build token codec")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var uploader storage.Uploader
	var localUploads *storage.LocalUploader
	if cfg.S3Bucket != "" {
		uploader, err = storage.NewS3Uploader(ctx, storage.Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("build object storage")
		}
	} else {
		localUploads, err = storage.NewLocalUploader(cfg.DataDir+"/uploads", cfg.AppBaseURL+"/uploads")
		if err != nil {
			log.Fatal().Err(err).Msg("build local storage")
		}
		uploader = localUploads
		log.Warn().Msg("no S3 bucket configured, storing uploads on local disk")
	}

	userRepo := database.NewUserRepository(conn)
	portalRepo := database.NewPortalTokenRepository(conn)
	phaseRepo := database.NewPhaseRepository(conn)
	photoRepo := database.NewPhotoRepository(conn)
	docRepo := database.NewDocumentRepository(conn)
	msgRepo := database.NewMessageRepository(conn)

	accountsSvc := accounts.NewService(userRepo)
	sessionsSvc := sessions.NewService(codec, sessions.Config{
		CookieName:   cfg.SessionCookieName,
		CookieDomain: cfg.CookieDomain,
		TTL:          cfg.SessionTTL,
		Secure:       cfg.IsProduction(),
	})
	portalSvc := portal.NewService(portalRepo, codec, cfg.PortalTokenTTL, cfg.PortalTokenRetention)
	photosSvc := photos.NewService(phaseRepo, photoRepo, uploader)
	docsSvc := documents.NewService(docRepo)
	msgsSvc := messages.NewService(msgRepo, userRepo)
	identityClient := identity.NewClient(cfg.IdentityURL, cfg.IdentityServiceKey)

	router := utils.NewRouter()

	handlers.RegisterRoutes(router, handlers.RouterConfig{
		Auth:          handlers.NewAuthHandler(accountsSvc, sessionsSvc, identityClient, cfg.AppBaseURL),
		Portal:        handlers.NewPortalHandler(portalSvc, accountsSvc, sessionsSvc, cfg.PortalBaseURL),
		Clients:       handlers.NewClientsHandler(accountsSvc),
		Photos:        handlers.NewPhotosHandler(photosSvc, accountsSvc),
		Documents:     handlers.NewDocumentsHandler(docsSvc),
		Messages:      handlers.NewMessagesHandler(msgsSvc),
		Admin:         handlers.NewAdminHandler(accountsSvc),
		Sessions:      sessionsSvc,
		VerifyTimeout: cfg.VerifyTimeout,
	})

	if localUploads != nil {
		router.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(localUploads.Dir()))))
	}

	// Page requests never reach the router unmatched: either the static build
	// serves them or they get the same not-found the gateway masks with. The
	// gateway wraps the router rather than running as route middleware so
	// unregistered page paths still pass through it.
	notFound := http.NotFoundHandler()
	if cfg.StaticDir != "" {
		spa := handlers.NewSPAHandler(cfg.StaticDir)
		router.PathPrefix("/").Handler(spa)
		notFound = spa
	}
	gateway := api.NewGateway(sessionsSvc, cfg.VerifyTimeout, notFound)

	sched := scheduler.NewService(portalSvc, cfg.CleanupInterval)
	sched.Start(ctx)
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      gateway.Middleware()(router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
