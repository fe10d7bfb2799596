package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/mortgage-forecast/internal/cache"
	"github.com/iwvelando/mortgage-forecast/internal/config"
	"github.com/iwvelando/mortgage-forecast/internal/server"
	"go.uber.org/zap"
)

func TestInitializeLogger(t *testing.T) {
	tests := []struct {
		name     string
		config   config.LoggingConfig
		override string
		wantErr  bool
	}{
		{name: "Defaults", config: config.LoggingConfig{}},
		{name: "Console debug", config: config.LoggingConfig{Level: "debug", Format: "console"}},
		{name: "Override wins", config: config.LoggingConfig{Level: "bogus"}, override: "warn"},
		{name: "Invalid level", config: config.LoggingConfig{Level: "verbose"}, wantErr: true},
		{name: "Invalid format", config: config.LoggingConfig{Format: "xml"}, wantErr: true},
		{name: "Log file", config: config.LoggingConfig{OutputFile: filepath.Join(t.TempDir(), "logs", "app.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := initializeLogger(tt.config, tt.override)
			if tt.wantErr {
				if err == nil {
					t.Errorf("initializeLogger() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("initializeLogger() error = %v", err)
			}
			_ = logger.Sync()
		})
	}
}

func TestNewCache(t *testing.T) {
	tests := []struct {
		backend  string
		wantNil  bool
		wantType string
		wantErr  bool
	}{
		{backend: "memory", wantType: "memory"},
		{backend: "", wantType: "memory"},
		{backend: "none", wantNil: true},
		{backend: "redis", wantType: "redis"},
		{backend: "memcached", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			repo, closeFn, err := newCache(server.CacheConfig{
				Backend:    tt.backend,
				TTLSeconds: 60,
				MaxEntries: 10,
				Redis:      server.RedisConfig{Address: "127.0.0.1:1"},
			})
			if tt.wantErr {
				if err == nil {
					t.Errorf("newCache(%q) expected error", tt.backend)
				}
				return
			}
			if err != nil {
				t.Fatalf("newCache(%q) error = %v", tt.backend, err)
			}
			defer closeFn()

			if tt.wantNil {
				if repo != nil {
					t.Errorf("newCache(%q) expected no cache", tt.backend)
				}
				return
			}
			switch repo.(type) {
			case *cache.MemoryCache:
				if tt.wantType != "memory" {
					t.Errorf("newCache(%q) returned a memory cache", tt.backend)
				}
			case *cache.RedisCache:
				if tt.wantType != "redis" {
					t.Errorf("newCache(%q) returned a redis cache", tt.backend)
				}
			default:
				t.Errorf("newCache(%q) returned %T", tt.backend, repo)
			}
		})
	}
}

func TestRun(t *testing.T) {
	conf, err := config.LoadConfiguration(filepath.Join("..", "..", "config.yaml.example"))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	tests := []struct {
		format   string
		contains string
	}{
		{format: "pretty", contains: "--- Results for scenario AIB 3 year fixed with overpayments ---"},
		{format: "csv", contains: `"Renewing AIB 5 year fixed","61"`},
		{format: "json", contains: `"lowestNetCostOption": "A"`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := run(zap.NewNop(), conf, tt.format, &buf); err != nil {
				t.Fatalf("run() error = %v", err)
			}
			if !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("run(%s) output missing %q", tt.format, tt.contains)
			}
		})
	}

	broken := *conf
	broken.Scenarios = append([]config.Scenario(nil), conf.Scenarios...)
	broken.Scenarios[0].Mortgage.Amount = 0
	if err := run(zap.NewNop(), &broken, "pretty", &bytes.Buffer{}); err == nil {
		t.Errorf("run() expected a validation error")
	}
}
