package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/clinreport/portal-api/internal/config"
	"github.com/clinreport/portal-api/internal/guard"
	"github.com/clinreport/portal-api/internal/handler"
	accountHandler "github.com/clinreport/portal-api/internal/handler/account"
	authHandler "github.com/clinreport/portal-api/internal/handler/auth"
	geoHandler "github.com/clinreport/portal-api/internal/handler/geo"
	portalHandler "github.com/clinreport/portal-api/internal/handler/portal"
	reportHandler "github.com/clinreport/portal-api/internal/handler/report"
	"github.com/clinreport/portal-api/internal/middleware"
	"github.com/clinreport/portal-api/internal/remote"
	"github.com/clinreport/portal-api/internal/router"
	accountService "github.com/clinreport/portal-api/internal/service/account"
	authService "github.com/clinreport/portal-api/internal/service/auth"
	"github.com/clinreport/portal-api/internal/validation"
	"github.com/clinreport/portal-api/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(&logger.Config{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
	})

	validation.Register()

	// Remote API client; the remote system owns all persistent state.
	remoteClient := remote.NewClient(cfg.Remote)

	// Services
	authSvc := authService.NewService(remoteClient)
	accountSvc := accountService.NewService(remoteClient)

	// Portal guard and middleware
	portalGuard := guard.New(authSvc)
	pageGuard := middleware.NewPortalGuardMiddleware(portalGuard, cfg.Auth.CookieName)
	authCtx := middleware.NewAuthContextMiddleware(authSvc, cfg.Auth.CookieName)

	// Handlers
	h := handler.NewHandler(remoteClient)
	cookieCfg := authHandler.CookieConfig{
		Name:   cfg.Auth.CookieName,
		MaxAge: cfg.Auth.CookieMaxAge,
		Secure: cfg.Auth.SecureCookie,
	}
	authH := authHandler.NewHandler(authSvc, accountSvc, portalGuard, cookieCfg)
	portalH := portalHandler.NewHandler(pageGuard)
	accountH := accountHandler.NewHandler(accountSvc)
	reportH := reportHandler.NewHandler(remoteClient)
	geoH := geoHandler.NewHandler(remoteClient, cfg.Geo.CacheTTL)

	r := router.NewRouter(
		authCtx,
		authH,
		portalH,
		accountH,
		reportH,
		geoH,
		h,
		router.RouterConfig{
			RateLimit:     rate.Limit(cfg.RateLimit.RPS),
			RateBurst:     cfg.RateLimit.Burst,
			CORSConfig:    corsConfig(cfg),
			MetricsPrefix: "portal",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("remote", cfg.Remote.BaseURL).Msg("portal server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

func corsConfig(cfg *config.Config) middleware.CORSConfig {
	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.Security.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Security.AllowedOrigins
	}
	return corsCfg
}
