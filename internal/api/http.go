package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/miradorstack/mirador-triage/internal/models"
)

// Ranker produces a ranked report for one request.
type Ranker interface {
	Rank(ctx context.Context, req models.RankRequest) (models.Report, error)
}

// HTTPOptions tunes the HTTP surface.
type HTTPOptions struct {
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

type httpHandler struct {
	ranker Ranker
	opts   HTTPOptions
	logger *slog.Logger
}

// NewRouter builds the chi router serving the rank endpoint, health and metrics.
func NewRouter(ranker Ranker, opts HTTPOptions) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MetricsHandler == nil {
		opts.MetricsHandler = promhttp.Handler()
	}
	h := &httpHandler{ranker: ranker, opts: opts, logger: logger}

	r := chi.NewRouter()
	r.Get("/-/healthy", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", opts.MetricsHandler)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/rank", h.rank)
	})
	return r
}

// NewHTTPHandler wraps the router with OpenTelemetry instrumentation, skipping health and metrics scrapes.
func NewHTTPHandler(ranker Ranker, opts HTTPOptions) http.Handler {
	return otelhttp.NewHandler(NewRouter(ranker, opts), "mirador-triage",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/-/healthy" && r.URL.Path != "/metrics"
		}),
	)
}

func (h *httpHandler) rank(w http.ResponseWriter, r *http.Request) {
	if h.opts.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	}

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	req, err := ParseRankRequest(doc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if h.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.RequestTimeout)
		defer cancel()
	}

	report, err := h.ranker.Rank(ctx, req)
	if err != nil {
		if models.IsInvalidInput(err) || errors.Is(err, ErrBadRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("rank request failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "ranking failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// writeJSON encodes v before writing the status line; an encode failure becomes a 500.
func writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		code = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
