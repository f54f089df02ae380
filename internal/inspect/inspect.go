// Package inspect serves container diagnostics over HTTP.
package inspect

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/beans/internal/di"
	"github.com/xraph/beans/internal/errors"
	"github.com/xraph/beans/internal/logger"
)

// Source is the container state the handler exposes.
type Source interface {
	Beans() []di.BeanInfo
	Inspect(name string) (di.BeanInfo, error)
	Order() []string
	Closed() bool
}

var _ Source = (*di.Container)(nil)

// Option configures the handler.
type Option func(*handler)

// WithGatherer mounts a Prometheus scrape endpoint at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *handler) { h.gatherer = g }
}

// WithLogger sets the logger used for encoding failures.
func WithLogger(l logger.Logger) Option {
	return func(h *handler) { h.log = l }
}

type handler struct {
	src      Source
	gatherer prometheus.Gatherer
	log      logger.Logger
}

// Summary is the body of GET /.
type Summary struct {
	Beans  int  `json:"beans"`
	Closed bool `json:"closed"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Handler returns a read-only router over src:
//
//	GET /              summary
//	GET /beans         every bean in construction order
//	GET /beans/{name}  one bean, by name or unique type name
//	GET /order         the construction order
//	GET /metrics       Prometheus metrics, when WithGatherer is given
func Handler(src Source, opts ...Option) http.Handler {
	h := &handler{src: src, log: logger.NewNoopLogger()}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", h.summary)
	r.Get("/beans", h.beans)
	r.Get("/beans/{name}", h.bean)
	r.Get("/order", h.order)
	if h.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (h *handler) summary(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, Summary{Beans: len(h.src.Order()), Closed: h.src.Closed()})
}

func (h *handler) beans(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.src.Beans())
}

func (h *handler) bean(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	info, err := h.src.Inspect(name)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.IsUnknownBean(err) {
			status = http.StatusNotFound
		}
		h.writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: errors.CodeOf(err)})
		return
	}
	h.writeJSON(w, http.StatusOK, info)
}

func (h *handler) order(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.src.Order())
}

// writeJSON writes JSON response
func (h *handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Warn("failed to encode inspect response", logger.Error(err))
	}
}
