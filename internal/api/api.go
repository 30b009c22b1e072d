// Package api exposes the planner over HTTP.
package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/piwi3910/SlitCut/internal/engine"
	"github.com/piwi3910/SlitCut/internal/model"
	"github.com/piwi3910/SlitCut/internal/project"
)

// maxBodyBytes bounds job documents accepted by the API.
const maxBodyBytes = 8 << 20

// Handler serves planning requests.
type Handler struct {
	planner      *engine.Planner
	logger       *slog.Logger
	maxTimeLimit time.Duration
}

// NewHandler creates a handler. A positive maxTimeLimit caps the solve bound
// of every request, including requests that ask for no limit.
func NewHandler(planner *engine.Planner, logger *slog.Logger, maxTimeLimit time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{planner: planner, logger: logger, maxTimeLimit: maxTimeLimit}
}

// Router returns a gin engine with recovery, request logging and all routes.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger())
	h.SetupRoutes(router)
	return router
}

// SetupRoutes configures all API routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Health)
	v1 := router.Group("/v1")
	{
		v1.POST("/plans", h.CreatePlan)
		v1.POST("/compare", h.Compare)
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PlanResponse is returned by POST /v1/plans.
type PlanResponse struct {
	JobID     string               `json:"job_id"`
	Name      string               `json:"name"`
	Results   []model.GroupResult  `json:"results"`
	Estimates []model.PlanEstimate `json:"estimates"`
}

// CreatePlan plans every group of the posted job.
func (h *Handler) CreatePlan(c *gin.Context) {
	job, ok := h.bindJob(c)
	if !ok {
		return
	}

	results, err := h.planner.PlanJob(c.Request.Context(), job)
	if err != nil {
		h.fail(c, err)
		return
	}

	estimates := make([]model.PlanEstimate, len(results))
	for i, gr := range results {
		estimates[i] = model.CalculatePlanEstimate(gr, job.Settings.Density)
	}
	c.JSON(http.StatusOK, PlanResponse{JobID: job.ID, Name: job.Name, Results: results, Estimates: estimates})
}

// ScenarioSummary is one row of a comparison.
type ScenarioSummary struct {
	Name         string              `json:"name"`
	MaxPatterns  int                 `json:"max_patterns"`
	TotalCost    float64             `json:"total_cost"`
	PatternsUsed int                 `json:"patterns_used"`
	WastePercent float64             `json:"waste_percent"`
	Unsolved     int                 `json:"unsolved"`
	Results      []model.GroupResult `json:"results"`
}

// CompareResponse is returned by POST /v1/compare.
type CompareResponse struct {
	JobID     string              `json:"job_id"`
	Scenarios []ScenarioSummary   `json:"scenarios"`
	Baselines []model.GroupResult `json:"baselines,omitempty"`
}

type compareOptions struct {
	BaselineWidth float64 `json:"baseline_width" binding:"gte=0"`
}

// Compare plans the posted job under the default what-if scenarios and,
// when baseline_width is given, the single-width baseline of each group.
func (h *Handler) Compare(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	job, err := project.ParseJob(body, "api")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var opts compareOptions
	if err := binding.JSON.BindBody(body, &opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid compare options: " + err.Error()})
		return
	}
	h.clampSettings(&job.Settings)

	groups, prices, err := engine.JobInputs(job)
	if err != nil {
		h.fail(c, err)
		return
	}

	comparisons, err := h.planner.CompareScenarios(c.Request.Context(), engine.BuildDefaultScenarios(job.Settings), groups, job.Domain, prices)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := CompareResponse{JobID: job.ID, Scenarios: make([]ScenarioSummary, len(comparisons))}
	for i, cr := range comparisons {
		resp.Scenarios[i] = ScenarioSummary{
			Name:         cr.Scenario.Name,
			MaxPatterns:  cr.Scenario.Settings.MaxPatterns,
			TotalCost:    cr.TotalCost,
			PatternsUsed: cr.PatternsUsed,
			WastePercent: cr.WastePercent,
			Unsolved:     cr.Unsolved,
			Results:      cr.Results,
		}
	}

	if opts.BaselineWidth > 0 {
		for _, g := range groups {
			base, err := engine.SingleWidthBaseline(g, opts.BaselineWidth, prices)
			if err != nil {
				h.fail(c, err)
				return
			}
			resp.Baselines = append(resp.Baselines, base)
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) bindJob(c *gin.Context) (model.Job, bool) {
	body, ok := readBody(c)
	if !ok {
		return model.Job{}, false
	}
	job, err := project.ParseJob(body, "api")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return model.Job{}, false
	}
	h.clampSettings(&job.Settings)
	return job, true
}

func readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return nil, false
	}
	return body, true
}

func (h *Handler) clampSettings(s *model.SlitSettings) {
	if h.maxTimeLimit > 0 && (s.TimeLimit == 0 || s.TimeLimit > h.maxTimeLimit) {
		s.TimeLimit = h.maxTimeLimit
	}
}

// fail maps configuration errors to 400 and everything else to 500.
func (h *Handler) fail(c *gin.Context, err error) {
	if IsConfigError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error("planning failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "planning failed"})
}

// IsConfigError reports whether err stems from invalid input rather than a
// solver or server fault.
func IsConfigError(err error) bool {
	for _, target := range []error{
		model.ErrUncoveredWidth,
		model.ErrInvalidDomain,
		model.ErrInvalidPriceTable,
		model.ErrInvalidProduct,
		model.ErrInvalidSettings,
		engine.ErrProductTooWide,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
