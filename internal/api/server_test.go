package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scopelens/internal/core/config"
	"scopelens/internal/core/errors"
	"scopelens/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	result *ports.Result
	err    error
	got    []ports.AnalyzeRequest
	health ports.HealthStatus
}

func (s *stubService) Analyze(ctx context.Context, req ports.AnalyzeRequest) (*ports.Result, error) {
	s.got = append(s.got, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubService) Health(context.Context) ports.HealthStatus {
	return s.health
}

func testServerConfig() config.Server {
	return config.Server{
		Enabled:        true,
		Address:        "127.0.0.1:0",
		MaxBodyBytes:   1 << 10,
		RequestTimeout: time.Second,
	}
}

func newTestServer(t *testing.T, cfg config.Server, svc ports.AnalysisService) http.Handler {
	t.Helper()
	srv, err := NewServer(cfg, svc)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv.Handler()
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, analyzePath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAnalyzeSuccess(t *testing.T) {
	svc := &stubService{result: &ports.Result{
		Globals:     "console",
		Undefined:   "foo",
		Highlighted: "console.log(foo)",
		Occurrences: []ports.Occurrence{{Name: "foo", Class: "undefined", Start: 12, End: 15, Line: 1, Column: 12}},
	}}
	h := newTestServer(t, testServerConfig(), svc)

	rec := post(t, h, `{"source":"console.log(foo)","loader":"ts"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "console", body["globals"])
	assert.Equal(t, "foo", body["undefined"])
	assert.Equal(t, "ts", body["loader"])
	assert.Equal(t, rec.Header().Get(requestIDHeader), body["request_id"])
	assert.Len(t, body["occurrences"], 1)

	require.Len(t, svc.got, 1)
	assert.Equal(t, "console.log(foo)", svc.got[0].Source)
	assert.Equal(t, "ts", svc.got[0].Loader)
}

func TestAnalyzeKeepsIncomingRequestID(t *testing.T) {
	h := newTestServer(t, testServerConfig(), &stubService{result: &ports.Result{}})
	id := "0b8f7c3e-1f55-4c3a-9d51-3f6e1b2a4c7d"

	req := httptest.NewRequest(http.MethodPost, analyzePath, strings.NewReader(`{"source":""}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, id)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, id, rec.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodPost, analyzePath, strings.NewReader(`{"source":""}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(requestIDHeader))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestAnalyzeRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing source", body: `{"loader":"js"}`},
		{name: "unknown field", body: `{"source":"x","extra":1}`},
		{name: "unsupported loader", body: `{"source":"x","loader":"coffee"}`},
		{name: "wrong type", body: `{"source":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{result: &ports.Result{}}
			h := newTestServer(t, testServerConfig(), svc)

			rec := post(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, string(errors.CodeValidationError), body.Error.Code)
			assert.Empty(t, svc.got)
		})
	}
}

func TestAnalyzeRejectsOversizedBody(t *testing.T) {
	cfg := testServerConfig()
	cfg.MaxBodyBytes = 32
	svc := &stubService{result: &ports.Result{}}
	h := newTestServer(t, cfg, svc)

	rec := post(t, h, `{"source":"`+strings.Repeat("a", 64)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, svc.got)
}

func TestAnalyzeMapsDomainErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   errors.ErrorCode
	}{
		{err: errors.New(errors.CodeTranspile, "unexpected token"), status: http.StatusUnprocessableEntity, code: errors.CodeTranspile},
		{err: errors.New(errors.CodeParse, "syntax error"), status: http.StatusUnprocessableEntity, code: errors.CodeParse},
		{err: errors.New(errors.CodeMapping, "missing source map"), status: http.StatusUnprocessableEntity, code: errors.CodeMapping},
		{err: errors.New(errors.CodeNotSupported, "loader"), status: http.StatusBadRequest, code: errors.CodeNotSupported},
		{err: errors.AddContext(context.DeadlineExceeded, errors.CtxOperation, "transpile"), status: http.StatusGatewayTimeout, code: errors.CodeInternal},
		{err: errors.New(errors.CodeInternal, "boom"), status: http.StatusInternalServerError, code: errors.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.code)+"/"+http.StatusText(tt.status), func(t *testing.T) {
			h := newTestServer(t, testServerConfig(), &stubService{err: tt.err})

			rec := post(t, h, `{"source":"let x ="}`)
			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, string(tt.code), body.Error.Code)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testServerConfig()
	cfg.RateLimit = config.RateLimit{Enabled: true, RequestsPerMinute: 1, Burst: 2}
	h := newTestServer(t, cfg, &stubService{result: &ports.Result{}})

	for i := 0; i < 2; i++ {
		rec := post(t, h, `{"source":"x"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := post(t, h, `{"source":"x"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestHealth(t *testing.T) {
	svc := &stubService{health: ports.HealthStatus{Status: "up", Components: map[string]string{"parser": "up"}}}
	h := newTestServer(t, testServerConfig(), svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"parser":"up"`)

	svc.health.Status = "degraded"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServesSpecAndMetrics(t *testing.T) {
	h := newTestServer(t, testServerConfig(), &stubService{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/v1/analyze")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "scopelens_http_requests_total")
}

func TestServeStopsOnCancel(t *testing.T) {
	srv, err := NewServer(testServerConfig(), &stubService{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
