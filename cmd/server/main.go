package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	acchandler "carvest/internal/account/handler"
	accservice "carvest/internal/account/service"
	accstore "carvest/internal/account/store"
	"carvest/internal/audit"
	cathandler "carvest/internal/catalog/handler"
	catservice "carvest/internal/catalog/service"
	catstore "carvest/internal/catalog/store"
	"carvest/internal/jwttoken"
	"carvest/internal/media"
	"carvest/internal/platform/config"
	"carvest/internal/platform/httpserver"
	"carvest/internal/platform/logger"
	"carvest/internal/platform/metrics"
	"carvest/internal/platform/middleware"
	"carvest/internal/platform/postgres"
	platformredis "carvest/internal/platform/redis"
	reghandler "carvest/internal/registration/handler"
	regmetrics "carvest/internal/registration/metrics"
	regservice "carvest/internal/registration/service"
	regstore "carvest/internal/registration/store"
)

// main wires storage, services, and the HTTP router. Business logic lives in
// the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		signups  regservice.SignupStore
		accounts accstore.AccountStore
		plans    catstore.PlanStore
		entries  catstore.EntryStore
	)
	switch {
	case cfg.PostgresURL != "":
		pool, err := postgres.OpenPool(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		db, err := postgres.Open(cfg.PostgresURL)
		if err != nil {
			log.Error("postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		signupStore := regstore.NewPostgres(pool)
		accountStore := accstore.NewPostgres(db)
		planStore := catstore.NewPostgresPlans(db)
		entryStore := catstore.NewPostgresEntries(db)
		for _, ensure := range []func(context.Context) error{
			signupStore.EnsureSchema,
			accountStore.EnsureSchema,
			planStore.EnsureSchema,
			entryStore.EnsureSchema,
		} {
			if err := ensure(ctx); err != nil {
				log.Error("schema", "error", err)
				os.Exit(1)
			}
		}
		signups, accounts, plans, entries = signupStore, accountStore, planStore, entryStore
		log.Info("using postgres stores")

	case cfg.RedisURL != "":
		client, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		signups = regstore.NewRedis(client.Client)
		// Accounts and the catalog stay in memory; only signups need the
		// shared uniqueness guarantee.
		accounts = accstore.NewInMemory()
		plans = catstore.NewInMemoryPlans()
		entries = catstore.NewInMemoryEntries()
		log.Info("using redis signup store")

	default:
		signups = regstore.NewInMemory()
		accounts = accstore.NewInMemory()
		plans = catstore.NewInMemoryPlans()
		entries = catstore.NewInMemoryEntries()
		log.Warn("no POSTGRES_URL or REDIS_URL set, using in-memory stores")
	}

	var auditor audit.Publisher = audit.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafka(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka audit publisher", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		auditor = kafka
	}

	var uploader media.Uploader
	if cfg.MediaUploadURL != "" {
		uploader = media.NewClient(cfg.MediaUploadURL, cfg.MediaAPIKey)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	validator := jwttoken.NewJWTServiceAdapter(jwtService)

	directory := accservice.NewDirectory(accounts)
	regSvc := regservice.New(signups, directory, jwtService,
		regservice.WithLogger(log),
		regservice.WithAuditPublisher(auditor),
		regservice.WithMetrics(regmetrics.New()),
	)
	accSvc := accservice.New(accounts, uploader,
		accservice.WithLogger(log),
		accservice.WithAuditPublisher(auditor),
	)
	catSvc := catservice.New(plans, entries)

	httpMetrics := metrics.New()
	r := chi.NewRouter()
	r.Use(
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.RequestTime,
		middleware.ClientMetadata,
		middleware.Logger(log),
		middleware.Latency(httpMetrics),
		middleware.ContentTypeJSON,
		middleware.Timeout(30*time.Second),
	)

	reghandler.New(regSvc, validator, cfg.AdminToken, log).Register(r)
	acchandler.New(accSvc, cfg.AdminToken, log).Register(r)
	cathandler.New(catSvc, cfg.AdminToken, log).Register(r)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
