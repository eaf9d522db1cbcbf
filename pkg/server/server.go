// Package server exposes the relayer workflows and read endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/speedrun-hq/gasfutures-relayer/pkg/circuitbreaker"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/logger"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/models"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/relayer"
)

const shutdownTimeout = 10 * time.Second

// Workflows runs purchase and redeem requests
type Workflows interface {
	Purchase(ctx context.Context, req relayer.PurchaseRequest) (models.PurchaseResult, error)
	Redeem(ctx context.Context, req relayer.RedeemRequest) (models.RedeemResult, error)
}

// Prices serves oracle prices
type Prices interface {
	GetPrice(ctx context.Context, chain string) (models.GasPrice, error)
	GetAllPrices(ctx context.Context) ([]models.GasPrice, error)
	IsStale(price models.GasPrice, maxAgeMs int64) bool
}

// Positions serves position lookups
type Positions interface {
	GetPosition(ctx context.Context, tokenID *big.Int) (*models.Position, error)
	GetUserPositions(ctx context.Context, user common.Address, maxScan int) ([]*models.Position, error)
}

// Readiness reports whether the settlement contract accepts the relayer
type Readiness interface {
	IsAuthorizedCaller(ctx context.Context) (bool, error)
}

// RateLimiter decides whether a client may make another request
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config holds the server settings
type Config struct {
	Port          string
	SourceChain   string
	RelayerAddr   common.Address
	MaxPriceAgeMs int64
	MaxScan       int
	MetricsAPIKey string
}

// Server represents the relayer HTTP server
type Server struct {
	cfg       Config
	workflows Workflows
	prices    Prices
	positions Positions
	readiness Readiness
	limiter   RateLimiter
	breakers  []*circuitbreaker.CircuitBreaker
	now       func() time.Time
	logger    logger.Logger
}

// New creates a new server. limiter may be nil to disable rate limiting.
func New(
	cfg Config,
	workflows Workflows,
	prices Prices,
	positions Positions,
	readiness Readiness,
	limiter RateLimiter,
	breakers []*circuitbreaker.CircuitBreaker,
	log logger.Logger,
) *Server {
	return &Server{
		cfg:       cfg,
		workflows: workflows,
		prices:    prices,
		positions: positions,
		readiness: readiness,
		limiter:   limiter,
		breakers:  breakers,
		now:       time.Now,
		logger:    log,
	}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/status", s.handleStatus)
	r.Method(http.MethodGet, "/metrics", s.metricsAuthMiddleware(promhttp.Handler()))
	r.With(s.metricsAuthMiddleware).Post("/circuit/reset", s.handleCircuitReset)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(s.rateLimitMiddleware)

		api.Post("/purchase", s.handlePurchase)
		api.Post("/redeem", s.handleRedeem)
		api.Get("/prices", s.handleListPrices)
		api.Get("/prices/{chain}", s.handleGetPrice)
		api.Get("/positions", s.handleListPositions)
		api.Get("/positions/{tokenId}", s.handleGetPosition)
	})

	return r
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting relayer server on port %s", s.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down relayer server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
