package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/mortgage-forecast/internal/cache"
	"github.com/iwvelando/mortgage-forecast/internal/config"
	"github.com/iwvelando/mortgage-forecast/internal/projection"
	"github.com/iwvelando/mortgage-forecast/pkg/breakeven"
	"github.com/iwvelando/mortgage-forecast/pkg/constants"
	"github.com/iwvelando/mortgage-forecast/pkg/output"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// RequestIDHeader carries the per-request identifier on every response.
const RequestIDHeader = "X-Request-ID"

// Options tunes the handler returned by NewHandler.
type Options struct {
	MaxUploadSize int64
	Version       string
	// Cache stores simulation responses. Nil disables caching.
	Cache cache.Repository
	// Registry receives the HTTP metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	cache         cache.Repository
	metrics       *metrics
}

type metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
}

func newMetrics(registry *prometheus.Registry) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mortgage_forecast_http_requests_total",
			Help: "HTTP requests by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mortgage_forecast_http_request_duration_seconds",
			Help:    "HTTP request latency by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mortgage_forecast_cache_lookups_total",
			Help: "Response cache lookups by endpoint and result.",
		}, []string{"endpoint", "result"}),
	}
	registry.MustRegister(m.requests, m.duration, m.cacheLookups)
	return m
}

// NewHandler constructs the HTTP handler that serves the simulation API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		cache:         opts.Cache,
		metrics:       newMetrics(registry),
	}

	mux := http.NewServeMux()

	// Full scenario simulation from an uploaded or posted configuration
	mux.HandleFunc("/api/simulate", h.instrument("simulate", http.MethodPost, h.handleSimulate))

	// Standalone analyses
	mux.HandleFunc("/api/aprc", h.instrument("aprc", http.MethodPost, h.handleAprc))
	mux.HandleFunc("/api/aprc/infer", h.instrument("aprc_infer", http.MethodPost, h.handleAprcInfer))
	mux.HandleFunc("/api/breakeven/rent-vs-buy", h.instrument("rent_vs_buy", http.MethodPost, h.handleRentVsBuy))
	mux.HandleFunc("/api/breakeven/remortgage", h.instrument("remortgage", http.MethodPost, h.handleRemortgage))
	mux.HandleFunc("/api/breakeven/cashback", h.instrument("cashback", http.MethodPost, h.handleCashback))

	// Configuration helpers
	mux.HandleFunc("/api/config/validate", h.instrument("config_validate", http.MethodPost, h.handleConfigValidate))
	mux.HandleFunc("/api/config/export", h.instrument("config_export", http.MethodPost, h.handleConfigExport))

	mux.HandleFunc("/api/version", h.instrument("version", http.MethodGet, h.handleVersion))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return mux
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// instrument enforces the method, assigns a request ID and records metrics.
func (h *handler) instrument(endpoint, method string, next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		if r.Method != method {
			http.Error(rec, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		} else {
			next(rec, r, requestID)
		}

		h.metrics.requests.WithLabelValues(endpoint, fmt.Sprintf("%d", rec.status)).Inc()
		h.metrics.duration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}

type simulationPayload struct {
	Projections []projection.Projection    `json:"projections"`
	Aprc        []projection.AprcResult    `json:"aprc"`
	Breakeven   projection.BreakevenResults `json:"breakeven"`
	Warnings    []string                    `json:"warnings,omitempty"`
	CSV         string                      `json:"csv"`
}

type simulateResponse struct {
	RequestID string `json:"requestId"`
	Cached    bool   `json:"cached"`
	Duration  string `json:"duration"`
	simulationPayload
}

type validateResponse struct {
	Valid    bool     `json:"valid"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

type inferResponse struct {
	FollowOnRate float64               `json:"followOnRate"`
	Result       projection.AprcResult `json:"result"`
}

func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request, requestID string) {
	const op = "server.handleSimulate"
	start := time.Now()

	body, configType, err := h.readConfig(w, r)
	if err != nil {
		h.respondReadError(w, err, op)
		return
	}

	key := cache.Key("simulate|"+configType, body)
	if cached, ok := h.cacheGet(r, "simulate", key); ok {
		var payload simulationPayload
		if err := json.Unmarshal(cached, &payload); err == nil {
			h.writeJSON(w, http.StatusOK, simulateResponse{
				RequestID:         requestID,
				Cached:            true,
				Duration:          time.Since(start).String(),
				simulationPayload: payload,
			})
			return
		}
		h.logger.Warn("discarding unreadable cache entry",
			zap.String("op", op),
			zap.String("requestId", requestID),
		)
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(body), configType)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if err := cfg.Validate(); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	warnings := cfg.ValidateConfiguration()
	results, err := projection.GetProjections(h.logger, *cfg)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to compute projections: %v", err), op)
		return
	}

	var csv bytes.Buffer
	if err := output.CsvFormat(&csv, results); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render CSV: %v", err), op)
		return
	}

	payload := simulationPayload{
		Projections: results,
		Aprc:        projection.GetAprcResults(h.logger, *cfg),
		Breakeven:   projection.GetBreakevenResults(h.logger, *cfg),
		Warnings:    warnings,
		CSV:         csv.String(),
	}
	if encoded, err := json.Marshal(payload); err == nil {
		h.cacheSet(r, key, encoded, op)
	}

	elapsed := time.Since(start)
	h.logger.Info("simulation computed",
		zap.String("op", op),
		zap.String("requestId", requestID),
		zap.Int("scenarios", len(results)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, simulateResponse{
		RequestID:         requestID,
		Duration:          elapsed.String(),
		simulationPayload: payload,
	})
}

func (h *handler) handleAprc(w http.ResponseWriter, r *http.Request, requestID string) {
	const op = "server.handleAprc"

	var c config.AprcCase
	if !h.decodeInput(w, r, &c, op) {
		return
	}
	if c.Name == "" {
		c.Name = "aprc"
	}
	if c.FollowOnRate <= 0 && c.ObservedAprc == nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "followOnRate or observedAprc is required", op)
		return
	}
	if err := config.ValidateInput(c); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	results := projection.GetAprcResults(h.logger, config.Configuration{Aprc: []config.AprcCase{c}})
	h.logger.Debug(fmt.Sprintf("aprc %.2f%% for %.2f%% fixed over %d years", results[0].Solution.Aprc, c.FixedRate, c.FixedTermYears),
		zap.String("op", op),
		zap.String("requestId", requestID),
	)
	h.writeJSON(w, http.StatusOK, results[0])
}

func (h *handler) handleAprcInfer(w http.ResponseWriter, r *http.Request, requestID string) {
	const op = "server.handleAprcInfer"

	var c config.AprcCase
	if !h.decodeInput(w, r, &c, op) {
		return
	}
	if c.Name == "" {
		c.Name = "aprc"
	}
	if c.ObservedAprc == nil || *c.ObservedAprc <= 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "observedAprc is required", op)
		return
	}
	c.FollowOnRate = 0
	if err := config.ValidateInput(c); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	results := projection.GetAprcResults(h.logger, config.Configuration{Aprc: []config.AprcCase{c}})
	h.logger.Debug(fmt.Sprintf("inferred follow-on rate %.2f%%", results[0].FollowOnRate),
		zap.String("op", op),
		zap.String("requestId", requestID),
	)
	h.writeJSON(w, http.StatusOK, inferResponse{FollowOnRate: results[0].FollowOnRate, Result: results[0]})
}

func (h *handler) handleRentVsBuy(w http.ResponseWriter, r *http.Request, _ string) {
	const op = "server.handleRentVsBuy"

	var in breakeven.RentVsBuyInput
	if !h.decodeInput(w, r, &in, op) || !h.validInput(w, in, op) {
		return
	}
	h.writeJSON(w, http.StatusOK, breakeven.CalculateRentVsBuy(in))
}

func (h *handler) handleRemortgage(w http.ResponseWriter, r *http.Request, _ string) {
	const op = "server.handleRemortgage"

	var in breakeven.RemortgageInput
	if !h.decodeInput(w, r, &in, op) || !h.validInput(w, in, op) {
		return
	}
	h.writeJSON(w, http.StatusOK, breakeven.CalculateRemortgage(in))
}

func (h *handler) handleCashback(w http.ResponseWriter, r *http.Request, _ string) {
	const op = "server.handleCashback"

	var in breakeven.CashbackInput
	if !h.decodeInput(w, r, &in, op) || !h.validInput(w, in, op) {
		return
	}
	h.writeJSON(w, http.StatusOK, breakeven.CompareCashbackOptions(in))
}

func (h *handler) handleConfigValidate(w http.ResponseWriter, r *http.Request, _ string) {
	const op = "server.handleConfigValidate"

	body, configType, err := h.readConfig(w, r)
	if err != nil {
		h.respondReadError(w, err, op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(body), configType)
	if err != nil {
		h.writeJSON(w, http.StatusOK, validateResponse{Error: err.Error()})
		return
	}
	response := validateResponse{Valid: true, Warnings: cfg.ValidateConfiguration()}
	if err := cfg.Validate(); err != nil {
		response.Valid = false
		response.Error = err.Error()
	}
	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleVersion(w http.ResponseWriter, _ *http.Request, _ string) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request, _ string) {
	const op = "server.handleConfigExport"

	var payload map[string]interface{}
	if !h.decodeInput(w, r, &payload, op) {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

// configSectionOrder is the order sections appear in an exported file.
var configSectionOrder = []string{"logging", "output", "catalog", "scenarios", "aprc", "breakeven"}

func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range configSectionOrder {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	ordered := orderedConfig{items: items}
	return yaml.Marshal(ordered)
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string {
	return e.msg
}

// readConfig returns the configuration document from either a multipart
// upload in the "file" field or the raw request body, along with its type.
func (h *handler) readConfig(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			return nil, "", h.classifyReadError(err, "failed to parse upload")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", &requestError{status: http.StatusBadRequest, msg: "missing configuration file"}
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				h.logger.Warn("failed to close uploaded file",
					zap.String("op", "server.readConfig"),
					zap.Error(closeErr),
				)
			}
		}()

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, file); err != nil {
			return nil, "", &requestError{status: http.StatusInternalServerError, msg: fmt.Sprintf("failed to read configuration: %v", err)}
		}
		configType := "yaml"
		if strings.EqualFold(filepath.Ext(header.Filename), ".json") {
			configType = "json"
		}
		return buf.Bytes(), configType, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", h.classifyReadError(err, "failed to read configuration")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, "", &requestError{status: http.StatusBadRequest, msg: "empty configuration"}
	}
	configType := "json"
	if strings.Contains(mediaType, "yaml") {
		configType = "yaml"
	}
	return body, configType, nil
}

func (h *handler) classifyReadError(err error, prefix string) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return &requestError{
			status: http.StatusRequestEntityTooLarge,
			msg:    fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize),
		}
	}
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf("%s: %v", prefix, err)}
}

func (h *handler) respondReadError(w http.ResponseWriter, err error, op string) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		h.respondErrorWithOp(w, reqErr.status, reqErr.msg, op)
		return
	}
	h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
}

// decodeInput reads a size-limited JSON body into v and reports failures.
func (h *handler) decodeInput(w http.ResponseWriter, r *http.Request, v interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.respondReadError(w, h.classifyReadError(err, "failed to decode request"), op)
		return false
	}
	return true
}

func (h *handler) validInput(w http.ResponseWriter, v interface{}, op string) bool {
	if err := config.ValidateInput(v); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return false
	}
	return true
}

func (h *handler) cacheGet(r *http.Request, endpoint, key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	value, ok := h.cache.Get(r.Context(), key)
	result := "miss"
	if ok {
		result = "hit"
	}
	h.metrics.cacheLookups.WithLabelValues(endpoint, result).Inc()
	return value, ok
}

func (h *handler) cacheSet(r *http.Request, key string, value []byte, op string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(r.Context(), key, value); err != nil {
		h.logger.Warn("failed to cache response",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
