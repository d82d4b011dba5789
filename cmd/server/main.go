package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"udyam/internal/admin"
	adminhandler "udyam/internal/admin/handler"
	"udyam/internal/audit"
	"udyam/internal/auth"
	authhandler "udyam/internal/auth/handler"
	"udyam/internal/auth/otp"
	jwttoken "udyam/internal/jwt_token"
	"udyam/internal/platform/config"
	"udyam/internal/platform/httpserver"
	"udyam/internal/platform/logger"
	"udyam/internal/platform/metrics"
	"udyam/internal/platform/middleware"
	platformredis "udyam/internal/platform/redis"
	"udyam/internal/product"
	producthandler "udyam/internal/product/handler"
	"udyam/internal/ratelimit"
	"udyam/internal/seller"
	sellerhandler "udyam/internal/seller/handler"
	"udyam/internal/verification"
	verificationmetrics "udyam/internal/verification/metrics"
	dErrors "udyam/pkg/domain-errors"
)

// stores bundles the persistence layer so wiring swaps as one unit.
type stores struct {
	sellers       seller.Store
	verifications verification.Store
	products      product.Store
	admins        admin.Store
}

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	m := metrics.New()
	tokens := jwttoken.New(cfg.JWTSigningKey, cfg.JWTIssuer)

	// Postgres is optional; without a DSN everything runs in memory, which
	// is what the dev loop and the test suites use.
	var db *sql.DB
	if cfg.PostgresDSN != "" {
		var err error
		db, err = sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			cancel()
			log.Error("postgres ping failed", "error", err.Error())
			os.Exit(1)
		}
		cancel()
	}
	st := buildStores(db)

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err.Error())
		os.Exit(1)
	}
	var otpStore otp.Store = otp.NewInMemoryStore()
	var limiter ratelimit.Limiter = ratelimit.NewInMemoryLimiter()
	if redisClient != nil {
		defer redisClient.Close()
		otpStore = otp.NewRedisStore(redisClient.Client)
		limiter = ratelimit.NewRedisLimiter(redisClient.Client)
	}

	authService := auth.New(st.sellers, otpStore, otp.NewLogSender(log), tokens, cfg.OTP, cfg.TokenTTL,
		auth.WithLogger(log),
		auth.WithLimiter(limiter),
		auth.WithMetrics(m),
		auth.WithDevMode(cfg.DevMode),
	)
	sellerService := seller.NewService(st.sellers, seller.WithLogger(log))

	verificationOpts := []verification.Option{
		verification.WithLogger(log),
		verification.WithMetrics(verificationmetrics.New()),
	}
	if db != nil {
		verificationOpts = append(verificationOpts, verification.WithDB(db))
	}
	verificationService := verification.NewService(st.sellers, st.verifications, cfg.UploadDir, verificationOpts...)

	productService := product.NewService(st.products, cfg.UploadDir, product.WithLogger(log))

	auditPublisher, auditWorker := audit.NewPipeline(audit.NewInMemoryStore(), 256,
		audit.WithLogger(log))
	auditCtx, stopAudit := context.WithCancel(context.Background())
	defer stopAudit()
	go func() {
		if err := auditWorker.Run(auditCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err.Error())
		}
	}()

	adminService := admin.NewService(st.admins, st.sellers, st.verifications, st.products,
		tokens, cfg.TokenTTL, admin.WithLogger(log), admin.WithAudit(auditPublisher))

	if err := bootstrapAdmin(cfg, adminService, log); err != nil {
		log.Error("admin bootstrap failed", "error", err.Error())
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Latency(m))
	router.Use(middleware.Timeout(60 * time.Second))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	authhandler.New(authService, tokens, log).Register(router)
	sellerhandler.New(sellerService, verificationService, tokens, log).Register(router)
	producthandler.New(productService, tokens, log).Register(router)
	adminhandler.New(adminService, verificationService, tokens, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server listening", "addr", cfg.Addr, "dev_mode", cfg.DevMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}

func buildStores(db *sql.DB) stores {
	if db != nil {
		return stores{
			sellers:       seller.NewPostgresStore(db),
			verifications: verification.NewPostgresStore(db),
			products:      product.NewPostgresStore(db),
			admins:        admin.NewPostgresStore(db),
		}
	}
	sellers := seller.NewInMemoryStore()
	return stores{
		sellers:       sellers,
		verifications: verification.NewInMemoryStore(),
		products:      product.NewInMemoryStore(sellers),
		admins:        admin.NewInMemoryStore(),
	}
}

// bootstrapAdmin seeds the configured super-admin on first start. A username
// conflict means the account already exists and is not an error.
func bootstrapAdmin(cfg config.Server, service *admin.Service, log *slog.Logger) error {
	if cfg.BootstrapAdminUser == "" || cfg.BootstrapAdminPass == "" {
		return nil
	}
	_, err := service.CreateAccount(context.Background(), cfg.BootstrapAdminUser, cfg.BootstrapAdminPass,
		admin.RoleSuperAdmin, nil)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil
		}
		return err
	}
	log.Info("bootstrap super-admin created", "username", cfg.BootstrapAdminUser)
	return nil
}
