package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/climate-warehouse-etl/internal/chart"
	"github.com/couchcryptid/climate-warehouse-etl/internal/report"
)

// ReportRunner executes the warehouse reports.
type ReportRunner interface {
	Run(ctx context.Context, name string) (report.Result, error)
	RunAll(ctx context.Context) ([]report.Result, error)
}

// Server exposes health, readiness, and metrics HTTP endpoints, plus the
// report endpoints when a runner is configured.
type Server struct {
	httpServer *http.Server
	reports    ReportRunner
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, and /metrics routes.
// A nil reports runner leaves /reports and /charts unregistered.
func NewServer(addr string, ready sharedobs.ReadinessChecker, reports ReportRunner, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		reports: reports,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	if reports != nil {
		mux.HandleFunc("GET /reports", s.handleReportIndex)
		mux.HandleFunc("GET /reports/{name}", s.handleReport)
		mux.HandleFunc("GET /charts", s.handleCharts)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type reportInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

type reportBody struct {
	Name    string   `json:"name"`
	Title   string   `json:"title"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func (s *Server) handleReportIndex(w http.ResponseWriter, _ *http.Request) {
	names := report.Names()
	out := make([]reportInfo, 0, len(names))
	for _, n := range names {
		q, _ := report.Lookup(n)
		out = append(out, reportInfo{Name: q.Name, Title: q.Title, Path: "/reports/" + q.Name})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	res, err := s.reports.Run(r.Context(), name)
	if errors.Is(err, report.ErrUnknownReport) {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.logger.Error("report failed", "report", name, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "report query failed"})
		return
	}
	s.writeJSON(w, http.StatusOK, toBody(res))
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	results, err := s.reports.RunAll(r.Context())
	if err != nil {
		s.logger.Error("chart reports failed", "error", err)
		http.Error(w, "report query failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := chart.RenderPage(&buf, results); err != nil {
		s.logger.Error("render charts failed", "error", err)
		http.Error(w, "render charts failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response failed", "error", err)
	}
}

func toBody(res report.Result) reportBody {
	b := reportBody{
		Name:    res.Query.Name,
		Title:   res.Query.Title,
		Columns: make([]string, len(res.Columns)),
		Rows:    make([][]any, len(res.Rows)),
	}
	for i, c := range res.Columns {
		b.Columns[i] = c.Name
	}
	for i, row := range res.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			switch {
			case v.Null:
				cells[j] = nil
			case v.Kind == report.Text:
				cells[j] = v.Text
			default:
				cells[j] = v.Number
			}
		}
		b.Rows[i] = cells
	}
	return b
}
