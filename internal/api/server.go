// Package api serves the analyzer over HTTP. Requests are checked against the
// embedded OpenAPI document before they reach the analysis service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"scopelens/internal/core/config"
	"scopelens/internal/core/errors"
	"scopelens/internal/core/ports"
	"scopelens/internal/shared/observability"
	"scopelens/internal/shared/util"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	analyzePath     = "/v1/analyze"
	requestIDHeader = "X-Request-ID"
)

type Server struct {
	cfg      config.Server
	analysis ports.AnalysisService
	route    *routers.Route
	limiter  *util.LimiterRegistry
}

type analyzeRequest struct {
	Source string `json:"source"`
	Loader string `json:"loader,omitempty"`
}

type analyzeResponse struct {
	RequestID string `json:"request_id"`
	Loader    string `json:"loader,omitempty"`
	*ports.Result
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	RequestID string    `json:"request_id"`
	Error     errorBody `json:"error"`
}

func NewServer(cfg config.Server, analysis ports.AnalysisService) (*Server, error) {
	doc, err := LoadSpec(SpecData())
	if err != nil {
		return nil, err
	}
	route, err := routeFor(doc, analyzePath, http.MethodPost)
	if err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, analysis: analysis, route: route}
	if cfg.RateLimit.Enabled {
		s.limiter = util.NewLimiterRegistry(util.PerMinute(cfg.RateLimit.RequestsPerMinute), cfg.RateLimit.Burst, 10*time.Minute)
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST "+analyzePath, s.instrument("analyze", http.HandlerFunc(s.handleAnalyze)))
	mux.Handle("GET /health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /openapi.yaml", s.instrument("openapi", http.HandlerFunc(s.handleSpec)))
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.Close()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("api server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument assigns the request id, applies the per-client rate limit and
// counts the response by route and status.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		r = r.WithContext(withRequestID(r.Context(), requestID))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			observability.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		}()

		if s.limiter != nil && !s.limiter.Allow(util.GetClientIP(r)) {
			observability.RateLimitedTotal.Inc()
			rec.Header().Set("Retry-After", "60")
			writeError(rec, r, http.StatusTooManyRequests, errors.CodeValidationError, "rate limit exceeded")
			return
		}
		next.ServeHTTP(rec, r)
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, span := observability.Tracer.Start(r.Context(), "api.analyze",
		trace.WithAttributes(attribute.String("request.id", requestIDFrom(r.Context()))))
	defer span.End()

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, errors.CodeValidationError, "request body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return
		}
		writeError(w, r, http.StatusBadRequest, errors.CodeValidationError, "read request body: "+err.Error())
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(data))

	if err := openapi3filter.ValidateRequest(ctx, &openapi3filter.RequestValidationInput{
		Request: r,
		Route:   s.route,
		Options: &openapi3filter.Options{AuthenticationFunc: openapi3filter.NoopAuthenticationFunc},
	}); err != nil {
		writeError(w, r, http.StatusBadRequest, errors.CodeValidationError, validationMessage(err))
		return
	}

	var req analyzeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, errors.CodeValidationError, "decode request: "+err.Error())
		return
	}

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	res, err := s.analysis.Analyze(ctx, ports.AnalyzeRequest{Source: req.Source, Loader: req.Loader})
	if err != nil {
		span.RecordError(err)
		code := errors.CodeOf(err)
		status := statusFor(code)
		if stderrors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		slog.Info("analysis rejected", "request_id", requestIDFrom(r.Context()), "code", code, "error", err)
		writeError(w, r, status, code, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		RequestID: requestIDFrom(r.Context()),
		Loader:    req.Loader,
		Result:    res,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.analysis.Health(r.Context())
	code := http.StatusOK
	if status.Status != "up" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (s *Server) handleSpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(SpecData())
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.CodeTranspile, errors.CodeParse, errors.CodeMapping:
		return http.StatusUnprocessableEntity
	case errors.CodeValidationError, errors.CodeNotSupported:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func validationMessage(err error) string {
	var reqErr *openapi3filter.RequestError
	if stderrors.As(err, &reqErr) {
		return reqErr.Error()
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code errors.ErrorCode, msg string) {
	writeJSON(w, status, errorResponse{
		RequestID: requestIDFrom(r.Context()),
		Error:     errorBody{Code: string(code), Message: msg},
	})
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
