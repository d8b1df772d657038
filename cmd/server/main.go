// Command server starts the OpenAlgoFlow workflow engine HTTP API server.
//
// Usage:
//
//	server [flags]
//
// Flags:
//
//	-addr string
//	    Server address (default ":8080")
//	-read-timeout duration
//	    HTTP read timeout (default 30s)
//	-write-timeout duration
//	    HTTP write timeout (default 30s)
//	-max-execution-time duration
//	    Maximum workflow execution time (default 1m)
//	-gateway-host string
//	    Brokerage gateway REST base URL (default http://127.0.0.1:5000)
//	-gateway-ws-url string
//	    Brokerage gateway streaming URL (default ws://127.0.0.1:8765)
//	-allow-http
//	    Allow the httpRequest action node to make outbound requests
//
// The server exposes the routes registered in pkg/server's server.go:
// auth, settings, workflow CRUD/lifecycle, execution history, symbol
// lookups, a /ws/executions websocket hub, health, and metrics endpoints.
package main

import (
	"context"
	cryptorand "crypto/rand"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openalgoflow/engine/pkg/config"
	"github.com/openalgoflow/engine/pkg/gateway"
	"github.com/openalgoflow/engine/pkg/handlers"
	"github.com/openalgoflow/engine/pkg/logging"
	"github.com/openalgoflow/engine/pkg/observer"
	"github.com/openalgoflow/engine/pkg/orchestrator"
	"github.com/openalgoflow/engine/pkg/scheduler"
	"github.com/openalgoflow/engine/pkg/security"
	"github.com/openalgoflow/engine/pkg/server"
	"github.com/openalgoflow/engine/pkg/storage"
	"github.com/openalgoflow/engine/pkg/telemetry"
	"github.com/openalgoflow/engine/pkg/traverser"
	"github.com/openalgoflow/engine/pkg/types"
)

func main() {
	addr := flag.String("addr", ":8080", "Server address")
	readTimeout := flag.Duration("read-timeout", 30*time.Second, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	maxExecutionTime := flag.Duration("max-execution-time", 1*time.Minute, "Maximum workflow execution time")
	gatewayHost := flag.String("gateway-host", types.DefaultGatewayHost, "Brokerage gateway REST base URL")
	gatewayWSURL := flag.String("gateway-ws-url", types.DefaultGatewayWSURL, "Brokerage gateway streaming URL")
	gatewayAPIKey := flag.String("gateway-api-key", os.Getenv("OPENALGOFLOW_GATEWAY_API_KEY"), "Brokerage gateway API key")
	allowHTTP := flag.Bool("allow-http", false, "Allow the httpRequest action node to make outbound requests")
	redisAddr := flag.String("redis-addr", os.Getenv("OPENALGOFLOW_REDIS_ADDR"), "Redis address for shared rate limiting across instances (empty disables it)")
	flag.Parse()

	serverConfig := server.DefaultConfig()
	serverConfig.Address = *addr
	serverConfig.ReadTimeout = *readTimeout
	serverConfig.WriteTimeout = *writeTimeout

	engineConfig := config.Default()
	engineConfig.MaxExecutionTime = *maxExecutionTime
	engineConfig.AllowHTTP = *allowHTTP

	logger := logging.New(logging.DefaultConfig())

	tokenSecret := make([]byte, 32)
	if _, err := cryptorand.Read(tokenSecret); err != nil {
		fatal("failed to generate token secret: %v", err)
	}
	signer := security.NewTokenSigner(tokenSecret)

	aesKey, err := security.GenerateKey()
	if err != nil {
		fatal("failed to generate gateway key cipher key: %v", err)
	}
	cipher, err := security.NewGatewayKeyCipher(aesKey)
	if err != nil {
		fatal("failed to build gateway key cipher: %v", err)
	}

	store := storage.NewInMemoryStore()

	var redisClient *redis.Client
	if *redisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: *redisAddr})
	}

	gw := gateway.New(*gatewayHost, *gatewayAPIKey, engineConfig.HTTPTimeout)
	var stream *gateway.StreamClient
	if *gatewayWSURL != "" {
		stream = gateway.NewStreamClient(*gatewayWSURL)
	}

	registry := handlers.RegisterAll()
	tr := traverser.New(registry, engineConfig, logger)

	obsManager := observer.NewManager()
	telemetryConfig := telemetry.DefaultConfig()
	telemetryProvider, err := telemetry.NewProvider(context.Background(), telemetryConfig)
	if err != nil {
		fatal("failed to create telemetry provider: %v", err)
	}
	obsManager.Register(telemetry.NewTelemetryObserver(telemetryProvider))
	broadcaster := observer.NewProgressBroadcaster(obsManager)

	orch := orchestrator.New(tr, store, engineConfig, logger, gw, stream, broadcaster)

	sched := scheduler.New(func(ctx context.Context, workflowID string) {
		wf, err := store.GetWorkflow(ctx, workflowID)
		if err != nil {
			logger.WithError(err).WithField("workflow_id", workflowID).Error("scheduled run: workflow not found")
			return
		}
		if _, err := orch.Execute(ctx, wf, nil); err != nil {
			logger.WithError(err).WithField("workflow_id", workflowID).Error("scheduled run failed")
		}
	}, logger)

	srv, err := server.New(serverConfig, server.Deps{
		Store:        store,
		Orchestrator: orch,
		Scheduler:    sched,
		Registry:     registry,
		Gateway:      gw,
		Stream:       stream,
		Signer:       signer,
		Cipher:       cipher,
		EngineConfig: engineConfig,
		Observers:    obsManager,
		Logger:       logger,
		RedisClient:  redisClient,
	})
	if err != nil {
		fatal("failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		fmt.Printf("Starting OpenAlgoFlow Workflow Engine Server on %s\n", *addr)
		fmt.Printf("Health check:     http://localhost%s/health\n", *addr)
		fmt.Printf("Metrics:          http://localhost%s/metrics\n", *addr)
		fmt.Printf("Workflows API:    http://localhost%s/workflows\n", *addr)
		fmt.Println("\nPress Ctrl+C to shutdown")

		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)
		fmt.Println("Shutting down gracefully...")

		ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
			os.Exit(1)
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}

		fmt.Println("Server stopped")
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
