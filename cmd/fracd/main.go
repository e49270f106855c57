package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fracledger/config"
	"fracledger/core"
	"fracledger/core/events"
	"fracledger/core/genesis"
	"fracledger/integrations/journal"
	"fracledger/integrations/webhooks"
	"fracledger/observability/logging"
	"fracledger/observability/metrics"
	telemetry "fracledger/observability/otel"
	"fracledger/rpc"
	"fracledger/storage"
)

const (
	serviceName    = "fracd"
	genesisPathEnv = "FRAC_GENESIS"
	envNameEnv     = "FRAC_ENV"
)

type envLookupFunc func(string) (string, bool)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "statement" {
		if err := runStatement(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to the genesis YAML/JSON file (overrides FRAC_GENESIS and config GenesisFile)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	env := cfg.Environment
	if value := strings.TrimSpace(os.Getenv(envNameEnv)); value != "" {
		env = value
	}
	logOpts := []logging.Option{logging.WithLevel(logging.ParseLevel(cfg.Log.Level))}
	if cfg.Log.File != "" {
		logOpts = append(logOpts, logging.WithFile(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups))
	}
	logger := logging.Setup(serviceName, env, logOpts...)

	if err := run(cfg, env, *genesisFlag, logger); err != nil {
		logger.Error("fracd stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, env, genesisFlag string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: serviceName,
		Environment: env,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(shutdownCtx)
	}()

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	sinks, closeSinks, err := openSinks(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	ledger, err := core.NewLedger(db,
		core.WithLogger(logger),
		core.WithMetrics(metrics.Rewards()),
		core.WithEventSink(sinks),
	)
	if err != nil {
		return err
	}
	if err := ensureGenesis(ledger, genesisFlag, cfg.GenesisFile, os.LookupEnv, logger); err != nil {
		return err
	}

	server := rpc.NewServer(ledger, logger, rpc.ServerConfig{
		Auth: rpc.AuthConfig{
			HMACSecret: cfg.HMACSecret(),
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			ClockSkew:  time.Duration(cfg.Auth.ClockSkewSeconds) * time.Second,
		},
		RateLimit: rpc.RateLimitConfig{
			RatePerSecond: cfg.RateLimit.RatePerSecond,
			Burst:         cfg.RateLimit.Burst,
		},
	})
	if cfg.HMACSecret() == "" {
		logger.Warn("rpc auth secret not configured; mutations will be rejected")
	}

	errCh := make(chan error, 2)
	go func() { errCh <- server.Start(cfg.ListenAddress) }()

	var metricsServer *http.Server
	if addr := strings.TrimSpace(cfg.MetricsAddress); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	return server.Shutdown(shutdownCtx)
}

// openSinks builds the post-commit event fan out from config.
func openSinks(cfg *config.Config, logger *slog.Logger) (events.Emitter, func(), error) {
	var (
		sinks   events.MultiEmitter
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	if driver := strings.TrimSpace(cfg.Journal.Driver); driver != "" {
		j, err := journal.Open(driver, cfg.Journal.DSN, logger)
		if err != nil {
			return nil, closeAll, err
		}
		sinks = append(sinks, j)
		closers = append(closers, func() { _ = j.Close() })
		logger.Info("event journal enabled",
			slog.String("driver", driver),
			logging.MaskField("dsn", cfg.Journal.DSN))
	}
	if endpoint := strings.TrimSpace(cfg.Webhook.Endpoint); endpoint != "" {
		secret := cfg.WebhookSecret()
		if secret == "" {
			closeAll()
			return nil, func() {}, fmt.Errorf("webhook secret %s not set", cfg.Webhook.SecretEnv)
		}
		dispatcher, err := webhooks.NewDispatcher(endpoint, []byte(secret),
			webhooks.WithLogger(logger),
			webhooks.WithEventTypes(cfg.Webhook.Events...),
			webhooks.WithRetryPolicy(cfg.Webhook.MaxAttempts, 0, 0),
		)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		sinks = append(sinks, dispatcher)
		closers = append(closers, dispatcher.Close)
		logger.Info("webhook forwarding enabled", slog.String("endpoint", endpoint))
	}
	return sinks, closeAll, nil
}

// ensureGenesis applies the genesis file on first start. Later starts keep
// the stored state and ignore the file.
func ensureGenesis(ledger *core.Ledger, cliPath, cfgPath string, lookup envLookupFunc, logger *slog.Logger) error {
	ok, err := ledger.Initialised()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	path, err := resolveGenesisPath(cliPath, cfgPath, lookup)
	if err != nil {
		return err
	}
	spec, err := genesis.Load(path)
	if err != nil {
		return err
	}
	if err := ledger.InitGenesis(spec); err != nil {
		return err
	}
	logger.Info("genesis loaded", slog.String("path", path))
	return nil
}

func resolveGenesisPath(cliPath string, cfgPath string, lookup envLookupFunc) (string, error) {
	trimmedCLI := strings.TrimSpace(cliPath)
	if trimmedCLI != "" {
		return trimmedCLI, nil
	}

	if lookup != nil {
		if value, ok := lookup(genesisPathEnv); ok {
			trimmedEnv := strings.TrimSpace(value)
			if trimmedEnv != "" {
				return trimmedEnv, nil
			}
		}
	}

	trimmedCfg := strings.TrimSpace(cfgPath)
	if trimmedCfg != "" {
		return trimmedCfg, nil
	}

	return "", fmt.Errorf("no genesis file provided; supply one via --genesis, %s, or config", genesisPathEnv)
}
