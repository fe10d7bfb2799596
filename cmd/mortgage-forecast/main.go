package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/iwvelando/mortgage-forecast/internal/cache"
	"github.com/iwvelando/mortgage-forecast/internal/config"
	"github.com/iwvelando/mortgage-forecast/internal/projection"
	"github.com/iwvelando/mortgage-forecast/internal/server"
	"github.com/iwvelando/mortgage-forecast/pkg/constants"
	"github.com/iwvelando/mortgage-forecast/pkg/output"
	"github.com/iwvelando/mortgage-forecast/pkg/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info" // Default to info level
	}

	// Parse log level
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	// Determine output format
	format := loggingConfig.Format
	if format == "" {
		format = "json" // Default to JSON for production
	}

	// Configure encoder
	var config zap.Config
	switch format {
	case "console":
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	// Logs go to stderr so stdout carries only the report
	config.OutputPaths = []string{"stderr"}

	// Configure output file if specified
	if loggingConfig.OutputFile != "" {
		// Ensure the directory exists
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		// Test if we can create/write to the file
		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		config.OutputPaths = []string{loggingConfig.OutputFile}
		config.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return config.Build()
}

// newCache builds the response cache selected by the server configuration.
func newCache(cfg server.CacheConfig) (cache.Repository, func(), error) {
	switch cfg.Backend {
	case "none":
		return nil, func() {}, nil
	case "redis":
		redisCache := cache.NewRedisCache(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.TTL())
		return redisCache, func() { _ = redisCache.Close() }, nil
	case "", "memory":
		return cache.NewMemoryCache(cfg.TTL(), cfg.MaxEntries), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}
}

// run computes every configured projection and analysis and writes the
// report to w.
func run(logger *zap.Logger, conf *config.Configuration, outputFormat string, w io.Writer) error {
	if err := conf.Validate(); err != nil {
		return err
	}

	// Validate configuration and display any warnings
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	results, err := projection.GetProjections(logger, *conf)
	if err != nil {
		return fmt.Errorf("failed to compute projections: %w", err)
	}

	report := output.Report{
		Projections: results,
		Aprc:        projection.GetAprcResults(logger, *conf),
		Breakeven:   projection.GetBreakevenResults(logger, *conf),
	}
	return output.Write(w, outputFormat, report)
}

func serve(serverConfigPath, logLevel string) error {
	srvCfg, err := server.LoadConfig(serverConfigPath)
	if err != nil {
		return err
	}

	logger, err := initializeLogger(srvCfg.Logging, logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	responseCache, closeCache, err := newCache(srvCfg.Cache)
	if err != nil {
		return err
	}
	defer closeCache()

	if redisCache, ok := responseCache.(*cache.RedisCache); ok {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			logger.Warn("redis cache unreachable, requests will be computed uncached",
				zap.String("op", "main.serve"),
				zap.String("address", srvCfg.Cache.Redis.Address),
				zap.Error(err),
			)
		}
		cancel()
	}

	httpServer := &http.Server{
		Addr: srvCfg.Address,
		Handler: server.NewHandler(logger, server.Options{
			MaxUploadSize: srvCfg.UploadSizeBytes(),
			Version:       version,
			Cache:         responseCache,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("op", "main.serve"),
			zap.String("address", srvCfg.Address),
			zap.String("cache", srvCfg.Cache.Backend),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down",
		zap.String("op", "main.serve"),
	)
	return httpServer.Shutdown(shutdownCtx)
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	serveFlag := flag.Bool("serve", false, "run the HTTP API instead of a single projection")
	serverConfig := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	flag.Parse()

	if *serveFlag {
		if err := serve(*serverConfig, *logLevel); err != nil {
			fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"server failed\", \"error\": \"%v\"}\n", err)
			os.Exit(1)
		}
		return
	}

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty // Default to pretty format
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if err := run(logger, conf, outputFormat, os.Stdout); err != nil {
		logger.Fatal("failed to compute projections",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
