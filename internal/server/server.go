// Package server exposes layout computation over HTTP. Callers either post
// a group list directly or name a workflow, which is fetched from the
// workflow-query API and stored as a snapshot. When the API is unreachable
// the newest stored snapshot is served instead and marked stale.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/papapumpkin/flowlane/internal/dag"
	"github.com/papapumpkin/flowlane/internal/store"
	"github.com/papapumpkin/flowlane/internal/telemetry"
	"github.com/papapumpkin/flowlane/internal/workflow"
)

// shutdownGrace bounds how long in-flight requests may run after the
// server is asked to stop.
const shutdownGrace = 5 * time.Second

// Snapshots is the subset of the snapshot store the server needs.
type Snapshots interface {
	Save(ctx context.Context, w *workflow.Workflow) (store.Snapshot, error)
	Latest(ctx context.Context, name string) (store.Snapshot, error)
	Prune(ctx context.Context, name string, keep int) (int64, error)
}

// Options configures a Server. Fetcher, Store and Telemetry may be nil.
type Options struct {
	Fetcher     workflow.Fetcher
	Store       Snapshots
	Telemetry   *telemetry.Emitter
	HistoryKeep int  // snapshots kept per workflow; 0 keeps everything
	Warn        bool // collect layout diagnostics
	AccessLog   io.Writer
}

// Server serves layouts over HTTP.
type Server struct {
	opts     Options
	registry *prometheus.Registry
	metrics  *metrics
	engine   *gin.Engine
}

// New builds a Server and its routes.
func New(opts Options) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		opts:     opts,
		registry: reg,
		metrics:  newMetrics(reg),
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	if opts.AccessLog != nil {
		engine.Use(gin.LoggerWithWriter(opts.AccessLog))
	}
	engine.GET("/healthz", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	RegisterRoutes(engine.Group("/v1"), s)

	s.engine = engine
	return s
}

// RegisterRoutes registers the layout endpoints on rg:
//
//	POST /layout                  lay out the posted groups
//	GET  /workflows/:name/layout  fetch, store and lay out a workflow
func RegisterRoutes(rg *gin.RouterGroup, s *Server) {
	rg.POST("/layout", s.handleLayout)
	rg.GET("/workflows/:name/layout", s.handleWorkflowLayout)
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.engine }

// Run listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleLayout(c *gin.Context) {
	var req LayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	resp := s.layout("", req.Groups, sourceInline)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleWorkflowLayout(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.Param("name")

	if s.opts.Fetcher == nil {
		s.serveSnapshot(c, name, errors.New("no workflow API configured"))
		return
	}

	w, err := s.opts.Fetcher.Get(ctx, name)
	if err != nil {
		s.opts.Telemetry.Emit(telemetry.Event{Kind: telemetry.KindFetchFailed, Workflow: name, Data: err.Error()})
		s.serveSnapshot(c, name, err)
		return
	}
	s.opts.Telemetry.Emit(telemetry.Event{Kind: telemetry.KindFetch, Workflow: name})

	if s.opts.Store != nil {
		s.record(ctx, name, w)
	}

	resp := s.layout(w.Name, w.Groups, sourceAPI)
	resp.Status = w.Status
	c.JSON(http.StatusOK, resp)
}

// record stores w as a snapshot and trims the workflow's history. Failures
// never fail the request; they are counted, logged and emitted.
func (s *Server) record(ctx context.Context, name string, w *workflow.Workflow) {
	snap, err := s.opts.Store.Save(ctx, w)
	if err != nil {
		s.snapshotFailed(name, "save", err)
		return
	}
	s.opts.Telemetry.Emit(telemetry.Event{Kind: telemetry.KindSnapshotSaved, Workflow: name, Data: snap.ID})

	if s.opts.HistoryKeep > 0 {
		if _, err := s.opts.Store.Prune(ctx, name, s.opts.HistoryKeep); err != nil {
			s.snapshotFailed(name, "prune", err)
		}
	}
}

func (s *Server) snapshotFailed(name, op string, err error) {
	msg := fmt.Sprintf("failed to %s snapshot for %q: %v", op, name, err)
	s.metrics.snapshotErrors.WithLabelValues(op).Inc()
	s.opts.Telemetry.Emit(telemetry.Event{Kind: telemetry.KindSnapshotFailed, Workflow: name, Data: msg})
	if s.opts.AccessLog != nil {
		fmt.Fprintf(s.opts.AccessLog, "warning: %s\n", msg)
	}
}

// serveSnapshot answers a workflow request from the newest snapshot after
// fetchErr. Without a snapshot the fetch error decides the status: 404 for
// unknown workflows and 502 for everything else.
func (s *Server) serveSnapshot(c *gin.Context, name string, fetchErr error) {
	if s.opts.Store != nil {
		snap, err := s.opts.Store.Latest(c.Request.Context(), name)
		if err == nil {
			s.opts.Telemetry.Emit(telemetry.Event{Kind: telemetry.KindStaleServed, Workflow: name, Data: snap.ID})
			resp := s.layout(snap.Body.Name, snap.Body.Groups, sourceSnapshot)
			resp.Status = snap.Status
			resp.Stale = true
			fetched := snap.FetchedAt
			resp.FetchedAt = &fetched
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	if errors.Is(fetchErr, workflow.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": fetchErr.Error()})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": fetchErr.Error()})
}

// layout computes the response for groups and records metrics.
func (s *Server) layout(name string, groups []workflow.Group, source string) LayoutResponse {
	var collected dag.Collector
	reporter := dag.MultiReporter{
		&collected,
		s.opts.Telemetry.Reporter(name),
		dag.ReporterFunc(func(d dag.Diagnostic) {
			s.metrics.diagnostics.WithLabelValues(string(d.Kind)).Inc()
		}),
	}

	start := time.Now()
	placements := dag.Transform(groups, dag.WithWarnings(s.opts.Warn), dag.WithReporter(reporter))
	elapsed := time.Since(start)

	s.metrics.requests.WithLabelValues(source).Inc()
	s.metrics.duration.Observe(elapsed.Seconds())
	s.metrics.groups.Observe(float64(len(groups)))

	resp := NewLayoutResponse(name, placements, collected.Diagnostics())

	s.opts.Telemetry.Emit(telemetry.Event{
		Kind:     telemetry.KindLayoutComputed,
		Workflow: name,
		Data: telemetry.LayoutData{
			Groups:      len(groups),
			MaxLevel:    resp.MaxLevel,
			Diagnostics: len(resp.Diagnostics),
			DurationUS:  elapsed.Microseconds(),
		},
	})
	return resp
}
