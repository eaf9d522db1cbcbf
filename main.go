package main

import (
	"context"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/speedrun-hq/gasfutures-relayer/pkg/bridge"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/chainclient"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/circuitbreaker"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/config"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/keystore"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/logger"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/oracle"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/ratelimit"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/registry"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/relayer"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/router"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/server"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/signing"
)

const startupTimeout = 30 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "encrypt-key" {
		encryptKey(os.Args[2:])
		return
	}

	// Load configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	l := logger.NewStdLogger(cfg.LoggerConfig.Coloring, cfg.LoggerConfig.Level)

	// Set up context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv, err := build(ctx, cfg, l)
	if err != nil {
		log.Fatalf("Failed to start relayer: %v", err)
	}

	l.Info("Starting the gas futures relayer on %s...", cfg.SourceChain)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Relayer stopped with error: %v", err)
	}
	l.Info("Relayer stopped")
}

// build wires the collaborators together and runs the startup sanity checks
func build(ctx context.Context, cfg *config.Config, l logger.Logger) (*server.Server, error) {
	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	key, err := keystore.LoadKey(cfg.Key)
	if err != nil {
		return nil, err
	}
	credential, err := chainclient.NewCredential(key, big.NewInt(config.GetChainID(cfg.SourceChain)))
	if err != nil {
		return nil, err
	}

	settlementAddr := common.HexToAddress(cfg.SettlementAddress)
	client, err := chainclient.Dial(startCtx, cfg.RPCURL, chainclient.Config{
		Chain:             cfg.SourceChain,
		OracleAddress:     common.HexToAddress(cfg.OracleAddress),
		SettlementAddress: settlementAddr,
		GasMultiplier:     cfg.GasMultiplier,
	}, credential, l)
	if err != nil {
		return nil, err
	}

	authorized, err := client.IsAuthorizedCaller(startCtx)
	if err != nil {
		return nil, err
	}
	if !authorized {
		l.ErrorWithChain(cfg.SourceChain, "Relayer %s is not authorized on settlement contract %s",
			client.RelayerAddress().Hex(), settlementAddr.Hex())
		return nil, errNotAuthorized
	}
	l.InfoWithChain(cfg.SourceChain, "Relayer %s authorized on settlement contract %s",
		client.RelayerAddress().Hex(), settlementAddr.Hex())

	verifier, err := signing.NewVerifier(signing.NewDomain(cfg.SigningChainID, settlementAddr))
	if err != nil {
		return nil, err
	}

	bridgeClient := bridge.New(cfg.Bridge.APIEndpoint, cfg.Bridge.APIKey, cfg.Bridge.Timeout, l)
	if chains, err := bridgeClient.ListSupportedChains(startCtx); err != nil {
		l.Notice("Could not list bridge chains, continuing: %v", err)
	} else {
		l.Info("Bridge aggregator supports %d known chains: %v", len(chains), chains)
	}

	bridgeBreaker := circuitbreaker.NewCircuitBreaker(
		"bridge",
		cfg.CircuitBreaker.Enabled,
		cfg.CircuitBreaker.Threshold,
		cfg.CircuitBreaker.WindowDuration,
		cfg.CircuitBreaker.ResetTimeout,
		l,
	)

	gate := oracle.NewGate(client, l)
	positions := registry.New(client, cfg.ScanBatchSize, l)
	routes := router.New(bridgeClient, settlementAddr, cfg.Bridge.MaxSlippageBps, bridgeBreaker, l)
	workflows := relayer.New(relayer.Config{
		SourceChain:   cfg.SourceChain,
		MaxPriceAgeMs: cfg.MaxPriceAgeMs,
		CallTimeout:   cfg.CallTimeout,
	}, client, gate, verifier, positions, routes, l)

	var limiter server.RateLimiter
	if cfg.RateLimit.RedisAddr != "" {
		rl, err := ratelimit.New(startCtx, cfg.RateLimit.RedisAddr, cfg.RateLimit.RedisPassword, cfg.RateLimit.PerMinute, time.Minute)
		if err != nil {
			// the limiter fails open at request time, so an unreachable Redis is not fatal
			l.Error("Rate limiting disabled: %v", err)
		} else {
			limiter = rl
			go func() {
				<-ctx.Done()
				_ = rl.Close()
			}()
		}
	}

	return server.New(server.Config{
		Port:          cfg.ServerPort,
		SourceChain:   cfg.SourceChain,
		RelayerAddr:   client.RelayerAddress(),
		MaxPriceAgeMs: cfg.MaxPriceAgeMs,
		MaxScan:       cfg.MaxScan,
		MetricsAPIKey: cfg.MetricsAPIKey,
	}, workflows, gate, positions, client, limiter, []*circuitbreaker.CircuitBreaker{bridgeBreaker}, l), nil
}
