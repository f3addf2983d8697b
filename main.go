package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/cache"
	"storefront/internal/clients/marketplace"
	"storefront/internal/clients/sanity"
	intconfig "storefront/internal/config"
	router "storefront/internal/http"
	"storefront/internal/http/handlers"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	env := intconfig.LoadEnv()
	logger, err := utils.InitLogger(env.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	rdb, err := intconfig.ConnectRedis(context.Background(), env.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
	}
	store := cache.New(rdb, "storefront:", 10*time.Minute)

	catalog := &services.CatalogService{
		Cache:        store,
		ItemsPerPage: env.ItemsPerPage,
	}

	switch env.ContentSource {
	case intconfig.SourceSanity:
		catalog.Source = sanity.New(sanity.Config{
			ProjectID:  env.Sanity.ProjectID,
			Dataset:    env.Sanity.Dataset,
			APIVersion: env.Sanity.APIVersion,
			Token:      env.Sanity.Token,
			UseCDN:     env.Sanity.UseCDN,
		})
		// the DB is optional here; /api/db-check reports it
		if _, err := intconfig.ConnectDB(); err != nil {
			logger.Warn("database unavailable", zap.Error(err))
		}
	default:
		db, err := intconfig.ConnectDB()
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		repo := repositories.CatalogRepository{DB: db}
		catalog.Source = repo
		catalog.Writer = repo
	}
	defer intconfig.CloseDB()
	logger.Info("content source selected", zap.String("source", env.ContentSource))

	if env.Marketplace.Token != "" {
		wb := marketplace.New(env.Marketplace.APIURL, env.Marketplace.Token, store)
		catalog.Enricher = wb
		catalog.Searcher = wb
	}

	sessions := services.NewSessionManager(catalog, services.SessionConfig{
		ItemsPerPage:   env.ItemsPerPage,
		FilterDebounce: utils.Millis(env.FilterDebounceMs, 500*time.Millisecond),
		PriceDebounce:  utils.Millis(env.FilterDebounceMs, 500*time.Millisecond),
		SliderInterval: utils.Millis(env.SliderIntervalMs, 5*time.Second),
		TTL:            time.Duration(env.SessionTTLMin) * time.Minute,
	})
	defer sessions.Close()

	r := router.NewRouter(env, &handlers.API{
		Catalog:  catalog,
		Sessions: sessions,
		Auth: services.AuthService{
			Username:     env.AdminUsername,
			PasswordHash: env.AdminPasswordHash,
			Secret:       []byte(env.JWTSecret),
			TTL:          24 * time.Hour,
		},
		Cache:       store,
		PDFFontPath: env.PDFFontPath,
	})

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", env.AppAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}
