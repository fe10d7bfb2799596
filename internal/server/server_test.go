package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/mortgage-forecast/internal/cache"
	"github.com/iwvelando/mortgage-forecast/pkg/constants"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newTestHandler() http.Handler {
	return NewHandler(zap.NewNop(), Options{MaxUploadSize: constants.DefaultMaxUploadSizeBytes})
}

func readExampleConfig(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", constants.ExampleConfigFile))
	if err != nil {
		t.Fatalf("failed to read example config: %v", err)
	}
	return data
}

func TestHandleSimulateUpload(t *testing.T) {
	handler := newTestHandler()

	rr := performUpload(t, handler, "/api/simulate", string(readExampleConfig(t)), "config.yaml")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp simulateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Projections) != 3 {
		t.Fatalf("expected 3 projections, got %d", len(resp.Projections))
	}
	if len(resp.Aprc) != 2 {
		t.Fatalf("expected 2 APRC results, got %d", len(resp.Aprc))
	}
	if resp.Breakeven.Cashback == nil || resp.Breakeven.Cashback.LowestNetCostOption != "A" {
		t.Fatalf("expected cashback comparison in response")
	}
	if !strings.HasPrefix(resp.CSV, `"scenario","month"`) {
		t.Fatalf("expected CSV data in response")
	}
	if resp.RequestID == "" || rr.Header().Get(RequestIDHeader) != resp.RequestID {
		t.Fatalf("expected request ID header to match body, got %q and %q", rr.Header().Get(RequestIDHeader), resp.RequestID)
	}
	if resp.Duration == "" {
		t.Fatal("expected duration in response")
	}
	if resp.Cached {
		t.Fatal("first response should not be cached")
	}
}

func TestHandleSimulateRawBodyCached(t *testing.T) {
	handler := NewHandler(zap.NewNop(), Options{Cache: cache.NewMemoryCache(time.Minute, 10)})
	config := readExampleConfig(t)

	post := func() simulateResponse {
		req := httptest.NewRequest(http.MethodPost, "/api/simulate", bytes.NewReader(config))
		req.Header.Set("Content-Type", "application/x-yaml")
		req.Header.Set(RequestIDHeader, "fixed-id")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var resp simulateResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return resp
	}

	first := post()
	second := post()

	if first.Cached || !second.Cached {
		t.Fatalf("expected the second response to come from the cache, got %v then %v", first.Cached, second.Cached)
	}
	if second.RequestID != "fixed-id" {
		t.Fatalf("expected the caller's request ID, got %s", second.RequestID)
	}
	if len(second.Projections) != len(first.Projections) || second.CSV != first.CSV {
		t.Fatalf("cached response differs from the computed one")
	}
	if second.Projections[0].Summary.TotalInterest != first.Projections[0].Summary.TotalInterest {
		t.Fatalf("cached projection differs from the computed one")
	}

	metrics := httptest.NewRecorder()
	handler.ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := metrics.Body.String()
	for _, fragment := range []string{
		`mortgage_forecast_cache_lookups_total{endpoint="simulate",result="hit"} 1`,
		`mortgage_forecast_cache_lookups_total{endpoint="simulate",result="miss"} 1`,
		`mortgage_forecast_http_requests_total{code="200",endpoint="simulate"} 2`,
	} {
		if !strings.Contains(body, fragment) {
			t.Errorf("metrics missing %q", fragment)
		}
	}
}

func TestHandleSimulateInvalidConfig(t *testing.T) {
	handler := newTestHandler()

	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{
			name:     "Malformed YAML",
			content:  "scenarios: [",
			contains: "error reading config",
		},
		{
			name: "Constraint violation",
			content: `
scenarios:
  - name: broken
    active: true
    mortgage:
      amount: 0
      termYears: 30
`,
			contains: "Amount: gt=0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := performUpload(t, handler, "/api/simulate", tt.content, "config.yaml")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rr.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if !strings.Contains(resp["error"], tt.contains) {
				t.Fatalf("expected error containing %q, got %q", tt.contains, resp["error"])
			}
		})
	}
}

func TestHandleSimulateMethodNotAllowed(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/simulate", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected a request ID even on rejected requests")
	}
}

func TestHandleSimulateUploadTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), Options{MaxUploadSize: 64})

	rr := performUpload(t, handler, "/api/simulate", strings.Repeat("a", 128), "config.yaml")
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !strings.Contains(resp["error"], "upload exceeds limit") {
		t.Fatalf("expected upload limit error message, got %q", resp["error"])
	}
}

func TestHandleSimulateMissingFile(t *testing.T) {
	handler := newTestHandler()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/simulate", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp["error"] != "missing configuration file" {
		t.Fatalf("expected missing file error, got %q", resp["error"])
	}
}

func TestHandleAprc(t *testing.T) {
	handler := newTestHandler()

	rr := performJSON(t, handler, map[string]interface{}{
		"fixedRate":          3.5,
		"fixedTermYears":     3,
		"followOnRate":       4.15,
		"loanAmount":         300000,
		"termMonths":         360,
		"valuationFee":       185,
		"securityReleaseFee": 60,
	}, "/api/aprc")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Name     string `json:"name"`
		Solution struct {
			Aprc      float64 `json:"aprc"`
			Converged bool    `json:"converged"`
		} `json:"solution"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Solution.Converged || resp.Solution.Aprc <= 3.5 || resp.Solution.Aprc >= 4.15 {
		t.Fatalf("unexpected APRC solution %+v", resp.Solution)
	}
	if resp.Name != "aprc" {
		t.Fatalf("expected the default case name, got %q", resp.Name)
	}
}

func TestHandleAprcInfer(t *testing.T) {
	handler := newTestHandler()

	rr := performJSON(t, handler, map[string]interface{}{
		"fixedRate":          3.5,
		"fixedTermYears":     3,
		"observedAprc":       4.36,
		"loanAmount":         300000,
		"termMonths":         360,
		"valuationFee":       185,
		"securityReleaseFee": 60,
	}, "/api/aprc/infer")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp inferResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.FollowOnRate < 4.45 || resp.FollowOnRate > 4.55 {
		t.Fatalf("expected an inferred follow-on rate near 4.5, got %.3f", resp.FollowOnRate)
	}
	if !resp.Result.FollowOnInferred {
		t.Fatal("expected the result to be flagged as inferred")
	}

	missing := performJSON(t, handler, map[string]interface{}{"fixedRate": 3.5, "loanAmount": 1, "termMonths": 1}, "/api/aprc/infer")
	if missing.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 without observedAprc, got %d", missing.Code)
	}
}

func TestHandleAprcValidation(t *testing.T) {
	handler := newTestHandler()

	tests := []struct {
		name     string
		payload  map[string]interface{}
		contains string
	}{
		{
			name:     "No follow-on information",
			payload:  map[string]interface{}{"fixedRate": 3.5, "loanAmount": 300000, "termMonths": 360},
			contains: "followOnRate or observedAprc is required",
		},
		{
			name:     "Zero loan",
			payload:  map[string]interface{}{"fixedRate": 3.5, "followOnRate": 4, "termMonths": 360},
			contains: "LoanAmount: gt=0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := performJSON(t, handler, tt.payload, "/api/aprc")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tt.contains) {
				t.Fatalf("expected error containing %q, got %s", tt.contains, rr.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/aprc", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for malformed JSON, got %d", rr.Code)
	}
}

func TestHandleBreakeven(t *testing.T) {
	handler := newTestHandler()

	tests := []struct {
		name    string
		path    string
		payload map[string]interface{}
		check   func(t *testing.T, body map[string]interface{})
	}{
		{
			name: "Rent vs buy",
			path: "/api/breakeven/rent-vs-buy",
			payload: map[string]interface{}{
				"propertyPrice": 330000, "deposit": 30000, "mortgageRate": 3.5, "termMonths": 360,
				"purchaseCosts": 6300, "monthlyRent": 2000, "rentInflation": 2, "homeAppreciation": 3,
				"maintenanceRate": 1, "investmentReturn": 5, "saleCostRate": 2.5,
			},
			check: func(t *testing.T, body map[string]interface{}) {
				if body["breakevenMonth"] != float64(10) {
					t.Errorf("expected breakeven month 10, got %v", body["breakevenMonth"])
				}
			},
		},
		{
			name: "Remortgage",
			path: "/api/breakeven/remortgage",
			payload: map[string]interface{}{
				"outstandingBalance": 250000, "remainingTermMonths": 300, "currentRate": 4.5,
				"newRate": 3.5, "switchingCosts": 2500,
			},
			check: func(t *testing.T, body map[string]interface{}) {
				if body["breakevenMonth"] != float64(19) {
					t.Errorf("expected breakeven month 19, got %v", body["breakevenMonth"])
				}
			},
		},
		{
			name: "Remortgage never breaks even",
			path: "/api/breakeven/remortgage",
			payload: map[string]interface{}{
				"outstandingBalance": 250000, "remainingTermMonths": 300, "currentRate": 3.5,
				"newRate": 4.5, "switchingCosts": 2500,
			},
			check: func(t *testing.T, body map[string]interface{}) {
				if body["breakevenMonth"] != nil || body["breakevenYears"] != nil {
					t.Errorf("expected null breakeven, got %v / %v", body["breakevenMonth"], body["breakevenYears"])
				}
			},
		},
		{
			name: "Cashback",
			path: "/api/breakeven/cashback",
			payload: map[string]interface{}{
				"mortgageAmount": 300000,
				"termMonths":     360,
				"options": []map[string]interface{}{
					{"label": "A", "rate": 3.5, "fixedTermYears": 3, "followOnRate": 4.0, "cashbackPercent": 2},
					{"label": "B", "rate": 3.3, "fixedTermYears": 5, "cashbackPercent": 0},
					{"label": "C", "rate": 4.0, "fixedTermYears": 0, "cashbackPercent": 3, "cashbackCap": 5000},
				},
			},
			check: func(t *testing.T, body map[string]interface{}) {
				if body["lowestNetCostOption"] != "A" {
					t.Errorf("expected option A, got %v", body["lowestNetCostOption"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := performJSON(t, handler, tt.payload, tt.path)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}
			var body map[string]interface{}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			tt.check(t, body)
		})
	}
}

func TestHandleBreakevenValidation(t *testing.T) {
	handler := newTestHandler()

	rr := performJSON(t, handler, map[string]interface{}{"mortgageAmount": 300000, "termMonths": 360}, "/api/breakeven/cashback")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Options: min=1") {
		t.Fatalf("expected an options error, got %s", rr.Body.String())
	}

	rr = performJSON(t, handler, map[string]interface{}{"propertyPrice": 0, "termMonths": 360}, "/api/breakeven/rent-vs-buy")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleConfigValidate(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/config/validate", bytes.NewReader(readExampleConfig(t)))
	req.Header.Set("Content-Type", "application/yaml")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp validateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Valid || resp.Error != "" || len(resp.Warnings) != 0 {
		t.Fatalf("expected the example config to be valid, got %+v", resp)
	}

	body := `{"scenarios": [{"name": "short", "active": true, "mortgage": {"amount": 100000, "termYears": 0}}]}`
	req = httptest.NewRequest(http.MethodPost, "/api/config/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	resp = validateResponse{}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Valid || !strings.Contains(resp.Error, "required_without=TermYears") {
		t.Fatalf("expected a term error, got %+v", resp)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/config/validate", strings.NewReader("   "))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for an empty body, got %d", rr.Code)
	}
}

func TestHandleConfigExport(t *testing.T) {
	handler := newTestHandler()

	payload := map[string]interface{}{
		"scenarios": []interface{}{map[string]interface{}{"name": "Export", "active": true}},
		"zeta":      "last",
		"logging":   map[string]interface{}{"level": "debug"},
		"catalog":   map[string]interface{}{"lenders": []interface{}{}},
		"output":    map[string]interface{}{"format": "json"},
	}

	rr := performJSON(t, handler, payload, "/api/config/export")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	exported := resp["configYaml"]

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(exported), &node); err != nil {
		t.Fatalf("exported YAML is invalid: %v", err)
	}
	mapping := node.Content[0]
	var keys []string
	for i := 0; i < len(mapping.Content); i += 2 {
		keys = append(keys, mapping.Content[i].Value)
	}
	expected := []string{"logging", "output", "catalog", "scenarios", "zeta"}
	if strings.Join(keys, ",") != strings.Join(expected, ",") {
		t.Fatalf("expected key order %v, got %v", expected, keys)
	}
}

func TestHandleVersion(t *testing.T) {
	tests := []struct {
		version  string
		expected string
	}{
		{version: "1.2.3", expected: "1.2.3"},
		{version: "  ", expected: "dev"},
	}

	for _, tt := range tests {
		handler := NewHandler(nil, Options{Version: tt.version})
		req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		var resp map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["version"] != tt.expected {
			t.Fatalf("expected version %q, got %q", tt.expected, resp["version"])
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestHandler()

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/version", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/version", nil))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)

	for _, fragment := range []string{
		`mortgage_forecast_http_requests_total{code="200",endpoint="version"} 1`,
		`mortgage_forecast_http_requests_total{code="405",endpoint="version"} 1`,
		`mortgage_forecast_http_request_duration_seconds_count{endpoint="version"} 2`,
	} {
		if !strings.Contains(string(body), fragment) {
			t.Errorf("metrics missing %q in:\n%s", fragment, body)
		}
	}
}

func performUpload(t *testing.T, handler http.Handler, path, content, filename string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}

func performJSON(t *testing.T, handler http.Handler, payload map[string]interface{}, path string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}
