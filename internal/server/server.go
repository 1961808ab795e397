// Package server exposes the pipeline over HTTP for `unformer serve`.
//
// Routes:
//
//	GET /healthz                      liveness probe
//	GET /api/models                   the origin's model index
//	GET /api/models/{model}/graph     a built (and laid out) graph
//
// The graph route accepts the query parameters view, depth, split, expand,
// collapse, layout, engine, format, detailed and refresh. Model ids that
// contain a slash must be path-escaped ("openai%2Fgpt2").
package server

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/matzehuels/unformer/pkg/buildinfo"
	"github.com/matzehuels/unformer/pkg/errors"
	"github.com/matzehuels/unformer/pkg/pipeline"
	"github.com/matzehuels/unformer/pkg/render"
)

// Server serves graphs built by a pipeline runner.
type Server struct {
	runner   *pipeline.Runner
	defaults pipeline.Options
	logger   *log.Logger
	router   chi.Router
}

// New creates a server. defaults seeds every request's pipeline options;
// query parameters override it.
func New(runner *pipeline.Runner, defaults pipeline.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner:   runner,
		defaults: defaults,
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/models", s.handleModels)
		r.Get("/models/{model}/graph", s.handleGraph)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

// =============================================================================
// Handlers
// =============================================================================

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if s.runner.Resolver == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no model origin configured"))
		return
	}
	idx, err := s.runner.Resolver.Index(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idx)
}

// graphResponse is the JSON body of the graph route.
type graphResponse struct {
	render.View
	Model string             `json:"model"`
	Hash  string             `json:"hash"`
	Stats graphStats         `json:"stats"`
	Cache pipeline.CacheInfo `json:"cache"`
}

type graphStats struct {
	Nodes    int   `json:"nodes"`
	Edges    int   `json:"edges"`
	LayoutMS int64 `json:"layout_ms"`
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	model, err := url.PathUnescape(chi.URLParam(r, "model"))
	if err != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidModelID, "invalid model id escape"))
		return
	}
	opts, format, err := s.graphOptions(model, r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch format {
	case render.FormatDOT, render.FormatSVG:
		contentType := "text/vnd.graphviz; charset=utf-8"
		if format == render.FormatSVG {
			contentType = "image/svg+xml"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Artifacts[format])
		return
	}

	writeJSON(w, http.StatusOK, graphResponse{
		View:  render.NewView(result.Graph),
		Model: model,
		Hash:  result.GraphHash,
		Stats: graphStats{
			Nodes:    result.Stats.NodeCount,
			Edges:    result.Stats.EdgeCount,
			LayoutMS: result.Stats.LayoutTime.Milliseconds(),
		},
		Cache: result.CacheInfo,
	})
}

// graphOptions merges query parameters into the server defaults.
func (s *Server) graphOptions(model string, q url.Values) (pipeline.Options, string, error) {
	opts := s.defaults
	opts.Model = model
	opts.File = ""
	opts.Formats = nil
	opts.Logger = s.logger

	if v := q.Get("view"); v != "" {
		opts.ViewMode = v
	}
	if v := q.Get("depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, "", errors.New(errors.ErrCodeInvalidDepth, "depth must be an integer, got %q", v)
		}
		opts.AutoDepth = pipeline.Depth(n)
	}
	if v := q.Get("split"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, "", errors.New(errors.ErrCodeInvalidSplitSize, "split must be an integer, got %q", v)
		}
		if err := errors.ValidateSplitSize(n); err != nil {
			return opts, "", err
		}
		opts.SplitSize = n
	}
	if v := q.Get("engine"); v != "" {
		opts.Engine = v
	}

	expanded := make(map[string]bool, len(opts.Expanded))
	for id, open := range opts.Expanded {
		expanded[id] = open
	}
	for _, id := range splitList(q["expand"]) {
		expanded[id] = true
	}
	for _, id := range splitList(q["collapse"]) {
		expanded[id] = false
	}
	opts.Expanded = nil
	if len(expanded) > 0 {
		opts.Expanded = expanded
	}

	var err error
	if opts.SkipLayout, err = boolParam(q, "layout", true); err != nil {
		return opts, "", err
	}
	opts.SkipLayout = !opts.SkipLayout
	if opts.Detailed, err = boolParam(q, "detailed", opts.Detailed); err != nil {
		return opts, "", err
	}
	if opts.Refresh, err = boolParam(q, "refresh", false); err != nil {
		return opts, "", err
	}

	format := q.Get("format")
	switch format {
	case "", render.FormatJSON:
		format = render.FormatJSON
	case render.FormatDOT, render.FormatSVG:
		opts.Formats = []string{format}
	default:
		return opts, "", errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
	}
	return opts, format, nil
}

// splitList flattens repeated and comma-separated query values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}

func boolParam(q url.Values, key string, def bool) (bool, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, errors.New(errors.ErrCodeInvalidInput, "%s must be a boolean, got %q", key, v)
	}
	return b, nil
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps coded errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, errors.ErrCodeTimeout):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	id := RequestID(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", id, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{
		Error:     errors.UserMessage(err),
		Code:      string(errors.GetCode(err)),
		RequestID: id,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
