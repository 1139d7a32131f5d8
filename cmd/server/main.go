package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credchain/internal/audit"
	"credchain/internal/authtoken"
	"credchain/internal/credential"
	"credchain/internal/docstore"
	"credchain/internal/issuance"
	"credchain/internal/ledger"
	"credchain/internal/platform/config"
	"credchain/internal/platform/httpserver"
	"credchain/internal/platform/logger"
	"credchain/internal/platform/metrics"
	platformredis "credchain/internal/platform/redis"
	"credchain/internal/registry"
	"credchain/internal/revocation"
	"credchain/internal/session"
	httptransport "credchain/internal/transport/http"
	"credchain/internal/verification"
	"credchain/internal/wallet"
	"credchain/pkg/platform/circuit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	m := metrics.New()

	gateway, err := ledger.Dial(cfg.RPCURL, cfg.ContractAddress)
	if err != nil {
		log.Error("ledger connection failed", "rpc", cfg.RPCURL, "error", err)
		os.Exit(1)
	}
	instrumented := ledger.Instrument(gateway, m)

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var auditStore audit.Store
	if cfg.PostgresDSN != "" {
		pgStore, err := audit.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			log.Error("audit store connection failed", "error", err)
			os.Exit(1)
		}
		defer pgStore.Close()
		auditStore = pgStore
	} else {
		auditStore = audit.NewMemoryStore()
	}
	publisher := audit.NewPublisher(auditStore, audit.WithLogger(log))

	provider := wallet.NewKeystoreProvider(cfg.KeystoreDir, cfg.KeystorePassphrase, cfg.ChainID)
	sessions := session.NewManager(provider, instrumented, session.WithLogger(log))

	ctx := context.Background()
	if sess, ok := sessions.TryRestore(ctx); ok {
		log.Info("wallet session restored", "account", sess.Account.Hex())
	}

	docs := docstore.New(cfg.PinEndpoint, cfg.PinJWT, cfg.IPFSGatewayHost,
		docstore.WithLogger(log),
		docstore.WithBreaker(circuit.New("docstore",
			circuit.WithFailureThreshold(5),
			circuit.WithSuccessThreshold(2))))

	registrySvc := registry.NewService(instrumented,
		registry.WithLogger(log),
		registry.WithAuditPublisher(publisher),
		registry.WithMetrics(m),
		registry.WithNameCache(redisClient, cfg.NameCacheTTL))
	repo := credential.NewRepository(instrumented, registrySvc, docs,
		credential.WithLogger(log))
	engine := verification.NewEngine(instrumented, registrySvc, docs,
		verification.WithLogger(log))
	issueSvc := issuance.NewService(instrumented, docs,
		issuance.WithLogger(log),
		issuance.WithAuditPublisher(publisher),
		issuance.WithMetrics(m))
	revokeSvc := revocation.NewService(instrumented,
		revocation.WithLogger(log),
		revocation.WithAuditPublisher(publisher),
		revocation.WithMetrics(m))

	tokens := authtoken.NewService(cfg.APITokenKey, "credchain", cfg.APITokenTTL)

	handler := httptransport.New(sessions, tokens, repo, engine, issueSvc, revokeSvc, registrySvc,
		httptransport.WithLogger(log),
		httptransport.WithMetrics(m),
		httptransport.WithAuditPublisher(publisher),
		httptransport.WithVerifyBaseURL(cfg.VerifyBaseURL),
		httptransport.WithHealthChecker(redisHealth(redisClient)))
	router := httptransport.NewRouter(handler, authtoken.NewServiceAdapter(tokens))

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting credchain server", "addr", cfg.Addr, "contract", cfg.ContractAddress)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// redisHealth adapts the optional redis client for the health endpoint while
// keeping the nil case out of the handler.
func redisHealth(c *platformredis.Client) httptransport.HealthChecker {
	if c == nil {
		return nil
	}
	return c
}
