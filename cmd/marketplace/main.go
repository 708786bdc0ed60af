package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	c "github.com/devcodesfr/gameforgestudio-sub001/internal/cache"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/config"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/events"
	h "github.com/devcodesfr/gameforgestudio-sub001/internal/http"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/logger"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/publisher"
	"github.com/devcodesfr/gameforgestudio-sub001/internal/repository"
	s "github.com/devcodesfr/gameforgestudio-sub001/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service: cfg.ServiceName,
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
	})

	// accept W3C trace context so request logs carry the caller's trace id
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open stores")
	}
	defer st.close()

	cache, closeCache := openCache(ctx, cfg, log)
	defer closeCache()

	// Event bus
	bus := events.NewBus(log, cfg.EventBuffer)
	busDone := make(chan struct{})
	go func() {
		defer close(busDone)
		bus.Run(context.Background())
	}()

	var kafkaPublisher *publisher.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher = publisher.NewKafkaPublisher(log, cfg.KafkaBrokers...)
		kafkaPublisher.Attach(bus)
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", publisher.Topic).Msg("forwarding events to kafka")
	}

	catalog := repository.NewBreakingCatalogStore(st.catalog, repository.BreakerSettings{
		ConsecutiveFailures: cfg.BreakerFailures,
		OpenTimeout:         cfg.BreakerOpenTimeout,
	})
	catalogService := s.NewCatalogService(catalog, cache, log)
	cartService := s.NewCartService(st.carts, catalog, cache, bus, log)
	aggregator := s.NewAggregator(cartService, catalogService, log)
	checkoutService := s.NewCheckoutService(st.ledger, cartService, bus, log)

	router := h.NewRouter(h.Handlers{
		Cart:     h.NewCartHandler(cartService, aggregator, cfg.RequestTimeout),
		Checkout: h.NewCheckoutHandler(aggregator, checkoutService, st.ledger, cfg.RequestTimeout),
		Catalog:  h.NewCatalogHandler(catalogService, cfg.RequestTimeout),
	}, log, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// gRPC health + reflection for probes and grpcurl
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.GRPCPort).Msg("failed to listen")
	}

	go func() {
		log.Info().Str("port", cfg.GRPCPort).Msg("grpc health server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Error().Err(err).Msg("grpc server error")
		}
	}()

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageBackend).Msg("marketplace starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(cfg.ServiceName, healthpb.HealthCheckResponse_SERVING)

	<-ctx.Done()
	log.Info().Msg("shutting down marketplace...")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	grpcServer.GracefulStop()

	// drain queued events before the kafka writer goes away
	bus.Close()
	<-busDone
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka writer")
		}
	}

	log.Info().Msg("marketplace stopped")
}

func openCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (interface {
	c.CartCache
	c.CatalogCache
}, func()) {
	if cfg.RedisAddr == "" {
		log.Info().Msg("no redis address configured, caching disabled")
		return c.Noop{}, func() {}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed, caching disabled")
		_ = redisClient.Close()
		return c.Noop{}, func() {}
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("redis ping succeeded")

	return c.NewRedisCache(redisClient), func() { _ = redisClient.Close() }
}
