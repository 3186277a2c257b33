package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "github.com/dcamposl/inventario/internal/auth/http"
	authrepo "github.com/dcamposl/inventario/internal/auth/repository"
	authservice "github.com/dcamposl/inventario/internal/auth/service"
	"github.com/dcamposl/inventario/internal/common/clock"
	"github.com/dcamposl/inventario/internal/common/config"
	commoncrypto "github.com/dcamposl/inventario/internal/common/crypto"
	"github.com/dcamposl/inventario/internal/common/db"
	commonhttp "github.com/dcamposl/inventario/internal/common/http"
	"github.com/dcamposl/inventario/internal/common/httpmetrics"
	"github.com/dcamposl/inventario/internal/common/logger"
	srv "github.com/dcamposl/inventario/internal/common/server"
	"github.com/dcamposl/inventario/internal/common/session"
	productcache "github.com/dcamposl/inventario/internal/product/cache"
	producthttp "github.com/dcamposl/inventario/internal/product/http"
	productrepo "github.com/dcamposl/inventario/internal/product/repository"
	productservice "github.com/dcamposl/inventario/internal/product/service"
)

func main() {
	log, err := logger.New(os.Getenv("LOG_DIR"), "inventario", os.Getenv("LOG_LEVEL"))
	if err != nil {
		os.Stderr.WriteString(fmt.Sprintf("failed to initialize logger: %v\n", err))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pool := db.NewPool(log, cfg.DatabaseURL)
	defer pool.Close()

	clk := clock.NewRealClock()
	hasher := commoncrypto.NewBcryptHasher(cfg.BcryptCost)
	idGenerator := commoncrypto.NewUUIDGenerator()

	userRepo := authrepo.NewPgUserRepository(pool)
	tokenIssuer := authservice.NewTokenIssuer(cfg.SessionSecret, idGenerator, cfg.SessionTTL, clk)
	authService := authservice.NewAuthService(userRepo, hasher, idGenerator, tokenIssuer, clk, log)

	var listCache productcache.ListCache
	var redisCache *productcache.RedisListCache
	if cfg.RedisAddr != "" {
		redisCache, err = productcache.NewRedisListCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.ListCacheTTL, log)
		if err != nil {
			log.Warnf("list cache disabled: %v", err)
		} else {
			log.Infof("list cache enabled: %s", cfg.RedisAddr)
			listCache = redisCache
		}
	}

	productRepo := productrepo.NewPgRepository(pool)
	productService := productservice.NewService(productRepo, listCache, idGenerator, clk, log)

	authHandler := authhttp.NewHandler(authService, cfg.RequestTimeout, log)
	productHandler := producthttp.NewHandler(productService, cfg.RequestTimeout, log)

	sessionGate := session.Middleware(cfg.SessionSecret, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", commonhttp.HealthHandler(log))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/login", authHandler.Login)
	mux.HandleFunc("/logout", authHandler.Logout)
	mux.Handle("/api/session", sessionGate(http.HandlerFunc(authHandler.Session)))
	mux.Handle("/api/products", sessionGate(productHandler))
	mux.Handle("/api/products/", sessionGate(productHandler))

	rateLimiter := commonhttp.NewStrictRateLimiter()
	rateLimitMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == "/health" || path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}
			rateLimiter.MiddlewareForPath(path)(next).ServeHTTP(w, r)
		})
	}

	handler := commonhttp.RecoveryMiddleware(log)(
		commonhttp.MaxRequestSizeMiddleware(commonhttp.DefaultMaxRequestSize)(
			httpmetrics.Wrap(
				rateLimitMiddleware(mux),
			),
		),
	)

	serverConfig := srv.DefaultServerConfig(cfg.HTTPPort)
	server := srv.NewServer(serverConfig, handler)

	var shutdownHooks []srv.ShutdownHook
	if redisCache != nil {
		shutdownHooks = append(shutdownHooks, func(ctx context.Context) error {
			return redisCache.Close()
		})
	}

	srv.StartWithGracefulShutdownAndHooks(server, log, "inventario", shutdownHooks)
}
