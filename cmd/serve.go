package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stationscout/siteval-cli/internal/hexgrid"
	"github.com/stationscout/siteval-cli/internal/scoring"
	"github.com/stationscout/siteval-cli/internal/store"
	"github.com/stationscout/siteval-cli/internal/validation"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for scoring and grid generation",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		scorer, err := buildScorer(cfg.Scoring, "")
		if err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		harness := validation.NewHarness(scorer, validation.DefaultBaseline(), validation.Config{
			Seed:         cfg.Validation.Seed,
			TestFraction: cfg.Validation.TestFraction,
			Scale: validation.MetricScale{
				Revenue: cfg.Validation.RevenueScale,
				Profit:  cfg.Validation.ProfitScale,
				Margin:  cfg.Validation.MarginScale,
			},
		})

		api := &apiServer{scorer: scorer, harness: harness, store: st}

		// The grid stack needs a shapefile; without one the grid
		// endpoints report unavailable instead of blocking startup.
		gen, closeReg, err := buildGenerator(ctx, "")
		if err != nil {
			zap.L().Warn("grid endpoints disabled", zap.Error(err))
		} else {
			api.generator = gen
			defer closeReg()
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

type apiServer struct {
	scorer    *scoring.Scorer
	harness   *validation.Harness
	generator *hexgrid.Generator
	store     store.Store
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeAPIJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/score", s.handleScore)
		r.Post("/grid", s.handleGrid)
		r.Post("/grid/filter", s.handleFilterGrid)
		r.Post("/validate", s.handleValidate)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/runs/{id}/top", s.handleTopCells)
	})

	return r
}

func (s *apiServer) handleScore(w http.ResponseWriter, r *http.Request) {
	var features []scoring.SiteFeatures
	if err := json.NewDecoder(r.Body).Decode(&features); err != nil {
		writeAPIError(w, http.StatusBadRequest, "request body must be an array of site features")
		return
	}
	if len(features) == 0 {
		writeAPIError(w, http.StatusBadRequest, "at least one site required")
		return
	}

	scores := make([]scoring.StationScore, len(features))
	for i, f := range features {
		scores[i] = s.scorer.Score(f)
	}
	writeAPIJSON(w, http.StatusOK, scores)
}

func (s *apiServer) handleGrid(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		writeAPIError(w, http.StatusServiceUnavailable, "grid generation unavailable: no shapefile configured")
		return
	}

	var opts hexgrid.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid grid options")
		return
	}

	run, err := s.store.CreateGridRun(r.Context(), opts)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	grid, err := s.generator.Generate(r.Context(), opts)
	if err != nil {
		if failErr := s.store.FailGridRun(r.Context(), run.ID); failErr != nil {
			zap.L().Error("mark run failed", zap.String("run", run.ID), zap.Error(failErr))
		}
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.CompleteGridRun(r.Context(), run.ID, grid); err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeAPIJSON(w, http.StatusOK, map[string]any{
		"run_id": run.ID,
		"grid":   grid,
	})
}

func (s *apiServer) handleFilterGrid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RunID    string                `json:"run_id"`
		Cells    []hexgrid.Opportunity `json:"cells"`
		Criteria hexgrid.Criteria      `json:"criteria"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid filter request")
		return
	}

	cells := req.Cells
	if req.RunID != "" {
		grid, err := s.store.GridCells(r.Context(), req.RunID)
		if err != nil {
			writeAPIError(w, http.StatusNotFound, err.Error())
			return
		}
		cells = hexgrid.TopOpportunities(grid, 0)
	}
	if len(cells) == 0 {
		writeAPIError(w, http.StatusBadRequest, "run_id or cells required")
		return
	}

	writeAPIJSON(w, http.StatusOK, hexgrid.Filter(cells, req.Criteria))
}

func (s *apiServer) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sites  []validation.LabeledSite `json:"sites"`
		Target validation.TargetMetric  `json:"target"`
		K      int                      `json:"k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid validation request")
		return
	}
	if req.Target == "" {
		req.Target = validation.TargetRevenue
	}

	summary, err := s.harness.Validate(req.Sites, req.Target)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	var crossval *validation.CrossValidationReport
	if req.K > 0 {
		crossval, err = s.harness.CrossValidate(r.Context(), req.Sites, req.K, req.Target)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	writeAPIJSON(w, http.StatusOK, map[string]any{
		"summary":          summary,
		"cross_validation": crossval,
	})
}

func (s *apiServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.store.ListGridRuns(r.Context(), limit)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeAPIJSON(w, http.StatusOK, runs)
}

func (s *apiServer) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.store.GetGridRun(r.Context(), id)
	if err != nil {
		writeAPIError(w, http.StatusNotFound, err.Error())
		return
	}
	grid, err := s.store.GridCells(r.Context(), id)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeAPIJSON(w, http.StatusOK, map[string]any{"run": run, "grid": grid})
}

func (s *apiServer) handleTopCells(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	if n <= 0 {
		n = 10
	}

	grid, err := s.store.GridCells(r.Context(), id)
	if err != nil {
		writeAPIError(w, http.StatusNotFound, err.Error())
		return
	}
	writeAPIJSON(w, http.StatusOK, hexgrid.TopOpportunities(grid, n))
}

func writeAPIJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

func writeAPIError(w http.ResponseWriter, status int, msg string) {
	writeAPIJSON(w, status, map[string]string{"error": msg})
}
