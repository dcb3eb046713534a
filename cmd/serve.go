package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/phrase-matcher/internal/config"
	"github.com/sells-group/phrase-matcher/internal/matcher"
	"github.com/sells-group/phrase-matcher/internal/metrics"
	"github.com/sells-group/phrase-matcher/internal/pipeline"
	"github.com/sells-group/phrase-matcher/internal/report"
	"github.com/sells-group/phrase-matcher/internal/workbook"
)

const (
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	downloadFilename = "highlighted_matches.xlsx"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for workbook uploads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(); err != nil {
			return eris.Wrap(err, "serve: config")
		}

		m := metrics.New(prometheus.NewRegistry())
		handler := newServer(cfg, m, zap.L()).routes()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// server handles workbook uploads.
type server struct {
	match          config.MatchConfig
	maxUpload      int64
	limiter        *rate.Limiter
	allowedOrigins []string
	metrics        *metrics.Metrics
	log            *zap.Logger
}

func newServer(c *config.Config, m *metrics.Metrics, log *zap.Logger) *server {
	return &server{
		match:          c.Match,
		maxUpload:      int64(c.Server.MaxUploadMB) << 20,
		limiter:        rate.NewLimiter(rate.Limit(c.Server.RateLimit), c.Server.RateBurst),
		allowedOrigins: c.Server.AllowedOrigins,
		metrics:        m,
		log:            log,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "X-Run-ID", "X-Match-Count"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/match", s.handleMatch)
		r.Post("/highlight", s.handleHighlight)
	})

	return r
}

// rateLimit rejects requests once the token bucket is empty. Matching is
// quadratic in the row counts, so uploads are throttled server-wide.
func (s *server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type matchResponse struct {
	RunID      string         `json:"run_id"`
	Matched    bool           `json:"matched"`
	Warning    string         `json:"warning,omitempty"`
	SheetA     string         `json:"sheet_a,omitempty"`
	SheetB     string         `json:"sheet_b,omitempty"`
	Params     matcher.Params `json:"params"`
	Stats      matcher.Stats  `json:"stats"`
	DurationMS int64          `json:"duration_ms"`
	Summary    []report.Row   `json:"summary"`
}

func (s *server) handleMatch(w http.ResponseWriter, r *http.Request) {
	res, params, ok := s.runUpload(w, r)
	if !ok {
		return
	}

	resp := matchResponse{
		RunID:      res.RunID,
		Matched:    !res.Report.NoMatches,
		SheetA:     res.SheetA,
		SheetB:     res.SheetB,
		Params:     params,
		Stats:      res.Stats,
		DurationMS: res.Duration.Milliseconds(),
		Summary:    res.Report.Rows,
	}
	if res.Report.NoMatches {
		resp.Warning = report.NoMatchesWarning
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.runUpload(w, r)
	if !ok {
		return
	}

	b, err := res.Workbook.Bytes()
	if err != nil {
		s.log.Error("highlight: serialize workbook", zap.String("run_id", res.RunID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to serialize workbook")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadFilename))
	w.Header().Set("X-Run-ID", res.RunID)
	w.Header().Set("X-Match-Count", strconv.Itoa(len(res.Report.Rows)))
	w.WriteHeader(http.StatusOK)
	w.Write(b) //nolint:errcheck
}

// runUpload parses the multipart upload, resolves params and runs the
// pipeline. On failure it writes the error response and returns ok=false.
func (s *server) runUpload(w http.ResponseWriter, r *http.Request) (*pipeline.Result, matcher.Params, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return nil, matcher.Params{}, false
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, matcher.Params{}, false
	}

	mc, err := overrideMatchConfig(s.match, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, matcher.Params{}, false
	}
	params, err := mc.Params()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, matcher.Params{}, false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return nil, matcher.Params{}, false
	}
	defer file.Close() //nolint:errcheck

	wb, err := workbook.OpenReader(file)
	if err != nil {
		s.log.Warn("upload: unreadable workbook", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, "file is not a readable xlsx workbook")
		return nil, matcher.Params{}, false
	}

	p, err := pipeline.New(params, pipeline.WithLogger(s.log), pipeline.WithMetrics(s.metrics))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, matcher.Params{}, false
	}

	res, err := p.Run(r.Context(), wb)
	if err != nil {
		s.log.Error("upload: match failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "match failed")
		return nil, matcher.Params{}, false
	}
	return res, params, true
}

// overrideMatchConfig applies optional form fields on top of the configured
// match settings.
func overrideMatchConfig(mc config.MatchConfig, r *http.Request) (config.MatchConfig, error) {
	ints := []struct {
		field string
		dst   *int
	}{
		{"min_len", &mc.MinLen},
		{"max_len", &mc.MaxLen},
		{"threshold", &mc.ThresholdPercent},
	}
	for _, f := range ints {
		raw := r.FormValue(f.field)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return mc, eris.Errorf("%s must be an integer", f.field)
		}
		*f.dst = n
	}
	if mode := r.FormValue("compare_mode"); mode != "" {
		mc.CompareMode = mode
	}
	return mc, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
