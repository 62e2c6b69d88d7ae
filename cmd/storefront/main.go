package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/WALKERIS/visionrpweb/internal/cart"
	"github.com/WALKERIS/visionrpweb/internal/catalog"
	"github.com/WALKERIS/visionrpweb/internal/checkout"
	h "github.com/WALKERIS/visionrpweb/internal/http"
	"github.com/WALKERIS/visionrpweb/internal/identity"
	"github.com/WALKERIS/visionrpweb/internal/publisher"
	"github.com/WALKERIS/visionrpweb/internal/repository"
	"github.com/WALKERIS/visionrpweb/internal/status"
	"github.com/WALKERIS/visionrpweb/internal/visitor"
	"github.com/WALKERIS/visionrpweb/pkg/config"
	"github.com/WALKERIS/visionrpweb/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service: "storefront",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	// inbound traceparent headers flow into logs and outbound status requests
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if err := run(cfg, log); err != nil {
		log.Error("storefront stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer repo.Close()
	if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Info("database ready")

	vehicles, err := loadCatalog(ctx, cfg, log)
	if err != nil {
		return err
	}

	var workers sync.WaitGroup

	// Server status
	tracker := status.NewTracker()
	statusPoller := status.NewPoller(status.NewHTTPFetcher(cfg.StatusURL, log), tracker, cfg.StatusInterval, log)
	workers.Go(func() { statusPoller.Run(ctx) })

	// Order events
	if len(cfg.KafkaBrokers) > 0 {
		outbox := publisher.NewOutboxPoller(repo, log, cfg.OrderEventsTopic, cfg.KafkaBrokers...)
		defer outbox.Close()
		workers.Go(func() { outbox.Run(ctx) })
		log.Info("publishing order events", slog.String("topic", cfg.OrderEventsTopic))
	} else {
		log.Warn("KAFKA_BROKERS not set, order events stay in the outbox")
	}

	// Cart snapshots
	var cartSync *cart.Sync
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("redis ping failed, carts are mirrored best-effort", slog.Any("err", err))
		}
		cartSync = cart.NewSync(cart.NewRedisCache(redisClient, cfg.VisitorIdleTTL), log)
	}

	// Identity
	discord := identity.NewDiscord(identity.DiscordConfig{
		ClientID:     cfg.DiscordClientID,
		ClientSecret: cfg.DiscordClientSecret,
		RedirectURL:  cfg.DiscordRedirectURL,
	})
	codec := identity.NewTokenCodec(cfg.SessionSigningKey, 0)
	profiles := identity.NewProfileSync(repo, log, 5*time.Second)
	defer profiles.Wait()

	registry := visitor.NewRegistry(visitor.Options{
		IdleTTL: cfg.VisitorIdleTTL,
		Revoker: discord,
		Logger:  log,
		Setup: func(v *visitor.Visitor) {
			if cartSync != nil {
				v.OnClose(cartSync.Attach(ctx, v.ID, v.Cart))
			}
			v.OnClose(v.Identity.Subscribe(profiles.Listener()))
			v.OnClose(v.Identity.Subscribe(func(c identity.Change) {
				log.Info("identity changed", slog.String("visitor_id", v.ID), slog.String("event", string(c.Event)))
			}))
		},
	})
	defer registry.Close()

	pages, err := h.NewPageHandler(vehicles, tracker, cfg.PayPalClientID, h.DefaultLinks)
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	cookies := h.Cookies{Secure: cfg.AppEnv != "dev"}

	router := h.NewRouter(h.RouterConfig{
		Pages:          pages,
		Auth:           h.NewAuthHandler(discord, codec, cookies, cfg.RequestTimeout, log),
		Cart:           h.NewCartHandler(vehicles, log),
		Checkout:       h.NewCheckoutHandler(checkout.NewService(repo, log, cfg.RequestTimeout), cfg.RequestTimeout, log),
		Orders:         h.NewOrdersHandler(repo, cfg.RequestTimeout),
		Status:         h.NewStatusHandler(tracker, repo, 2*time.Second),
		Registry:       registry,
		Codec:          codec,
		Cookies:        cookies,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("storefront starting", slog.Int("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}
	stop()

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// event streams never finish on their own
	srv.RegisterOnShutdown(func() { _ = registry.Close() })
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", slog.Any("err", err))
	}

	workers.Wait()
	log.Info("server exited")
	return nil
}

func loadCatalog(ctx context.Context, cfg *config.Config, log *slog.Logger) (*catalog.Catalog, error) {
	if cfg.CatalogDBPath == "" {
		return catalog.Load(ctx, catalog.Embedded())
	}

	src, err := catalog.NewSQLiteSource(cfg.CatalogDBPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer src.Close()
	if err := src.RunMigrations(cfg.CatalogMigrationsPath); err != nil {
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}

	c, err := catalog.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	log.Info("catalog loaded", slog.String("path", cfg.CatalogDBPath), slog.Int("vehicles", c.Len()))
	return c, nil
}
