package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/guttosm/treasurypulse/internal/analytics"
	"github.com/guttosm/treasurypulse/internal/domain/dto"
	"github.com/guttosm/treasurypulse/internal/domain/models"
	"github.com/guttosm/treasurypulse/internal/pipeline"
	"github.com/guttosm/treasurypulse/internal/storage"
)

// AnalyticsService is the slice of the analytics engine the HTTP layer needs.
type AnalyticsService interface {
	Volatility(ctx context.Context, securityType string, window int) ([]models.VolatilityPoint, error)
	Correlations(ctx context.Context, byTerm, standardized bool) ([]models.CorrelationMatrix, error)
	Anomalies(ctx context.Context, threshold float64) ([]models.Anomaly, error)
	Stress(ctx context.Context) ([]models.StressWeek, error)
}

// PipelineRunner triggers one ingestion run and reports its structured result.
type PipelineRunner interface {
	Run(ctx context.Context, runType string) pipeline.Result
}

// Handler provides HTTP handlers for the auction analytics endpoints.
//
// Responsibilities:
//   - Validate incoming HTTP query parameters
//   - Call the analytics engine, repository, and pipeline orchestrator
//   - Translate results into response DTOs
//   - Return structured JSON responses with appropriate HTTP status codes
type Handler struct {
	svc    AnalyticsService
	repo   storage.AuctionsRepository
	runner PipelineRunner

	// pipelineBusy guards the manual trigger: one run at a time.
	pipelineBusy atomic.Bool
}

// NewHandler constructs a new Handler instance.
func NewHandler(svc AnalyticsService, repo storage.AuctionsRepository, runner PipelineRunner) *Handler {
	return &Handler{svc: svc, repo: repo, runner: runner}
}

// GetVolatility handles GET /api/v1/analytics/volatility requests.
//
// GetVolatility godoc
// @Summary      Rolling bid-to-cover volatility
// @Description  Returns the annualized rolling volatility of bid-to-cover returns per security type
// @Tags         analytics
// @Produce      json
// @Param        security_type  query     string  false  "Filter to one security type" example(Bill)
// @Param        window         query     int     false  "Rolling window in auctions" example(30)
// @Success      200            {object}  dto.VolatilityResponse  "Success"
// @Failure      400            {object}  dto.ErrorResponse       "Bad Request"
// @Failure      500            {object}  dto.ErrorResponse       "Internal Error"
// @Router       /api/v1/analytics/volatility [get]
func (h *Handler) GetVolatility(c *gin.Context) {
	window := analytics.DefaultWindow
	if s := c.Query("window"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 2 {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("window must be an integer >= 2", err))
			return
		}
		window = parsed
	}
	securityType := strings.TrimSpace(c.Query("security_type"))

	points, err := h.svc.Volatility(c.Request.Context(), securityType, window)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to compute volatility", err))
		return
	}

	c.JSON(http.StatusOK, dto.VolatilityResponse{Window: window, Points: points})
}

// GetCorrelations handles GET /api/v1/analytics/correlations requests.
//
// GetCorrelations godoc
// @Summary      Auction metric correlations
// @Description  Returns pairwise Pearson correlation matrices per security type or term bucket
// @Tags         analytics
// @Produce      json
// @Param        group_by      query     string  false  "Grouping column: type or term" example(type)
// @Param        standardized  query     bool    false  "Use standardized term labels" example(true)
// @Success      200           {object}  dto.CorrelationsResponse  "Success"
// @Failure      400           {object}  dto.ErrorResponse         "Bad Request"
// @Failure      500           {object}  dto.ErrorResponse         "Internal Error"
// @Router       /api/v1/analytics/correlations [get]
func (h *Handler) GetCorrelations(c *gin.Context) {
	groupBy := c.DefaultQuery("group_by", "type")
	if groupBy != "type" && groupBy != "term" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("group_by must be 'type' or 'term'", nil))
		return
	}

	standardized := false
	if s := c.Query("standardized"); s != "" {
		parsed, err := strconv.ParseBool(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("standardized must be a boolean", err))
			return
		}
		standardized = parsed
	}

	matrices, err := h.svc.Correlations(c.Request.Context(), groupBy == "term", standardized)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to compute correlations", err))
		return
	}

	c.JSON(http.StatusOK, dto.CorrelationsResponse{GroupBy: groupBy, Matrices: matrices})
}

// GetAnomalies handles GET /api/v1/analytics/anomalies requests.
//
// GetAnomalies godoc
// @Summary      Bid-to-cover anomalies
// @Description  Returns auctions whose bid-to-cover ratio deviates beyond the z-score threshold
// @Tags         analytics
// @Produce      json
// @Param        threshold  query     number  false  "Z-score threshold" example(3)
// @Success      200        {object}  dto.AnomaliesResponse  "Success"
// @Failure      400        {object}  dto.ErrorResponse      "Bad Request"
// @Failure      500        {object}  dto.ErrorResponse      "Internal Error"
// @Router       /api/v1/analytics/anomalies [get]
func (h *Handler) GetAnomalies(c *gin.Context) {
	threshold := analytics.DefaultZThreshold
	if s := c.Query("threshold"); s != "" {
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("threshold must be a positive number", err))
			return
		}
		threshold = parsed
	}

	anomalies, err := h.svc.Anomalies(c.Request.Context(), threshold)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to detect anomalies", err))
		return
	}

	c.JSON(http.StatusOK, dto.AnomaliesResponse{Threshold: threshold, Anomalies: anomalies})
}

// GetStressIndex handles GET /api/v1/analytics/stress-index requests.
//
// GetStressIndex godoc
// @Summary      Weekly market stress index
// @Description  Returns the composite weekly stress index over the trailing two years
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  dto.StressIndexResponse  "Success"
// @Failure      500  {object}  dto.ErrorResponse        "Internal Error"
// @Router       /api/v1/analytics/stress-index [get]
func (h *Handler) GetStressIndex(c *gin.Context) {
	weeks, err := h.svc.Stress(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to compute stress index", err))
		return
	}

	c.JSON(http.StatusOK, dto.StressIndexResponse{Weeks: weeks})
}

// GetAnalyticsSummary handles GET /api/v1/analytics/summary requests.
// The four blocks are computed concurrently; the first failure aborts the rest.
//
// GetAnalyticsSummary godoc
// @Summary      Full analytics summary
// @Description  Returns volatility, correlations, anomalies, and the stress index in one response
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  dto.AnalyticsSummaryResponse  "Success"
// @Failure      500  {object}  dto.ErrorResponse             "Internal Error"
// @Router       /api/v1/analytics/summary [get]
func (h *Handler) GetAnalyticsSummary(c *gin.Context) {
	var resp dto.AnalyticsSummaryResponse
	g, ctx := errgroup.WithContext(c.Request.Context())

	g.Go(func() error {
		points, err := h.svc.Volatility(ctx, "", analytics.DefaultWindow)
		if err != nil {
			return err
		}
		resp.Volatility = dto.VolatilityResponse{Window: analytics.DefaultWindow, Points: points}
		return nil
	})
	g.Go(func() error {
		matrices, err := h.svc.Correlations(ctx, false, false)
		if err != nil {
			return err
		}
		resp.Correlations = dto.CorrelationsResponse{GroupBy: "type", Matrices: matrices}
		return nil
	})
	g.Go(func() error {
		anomalies, err := h.svc.Anomalies(ctx, analytics.DefaultZThreshold)
		if err != nil {
			return err
		}
		resp.Anomalies = dto.AnomaliesResponse{Threshold: analytics.DefaultZThreshold, Anomalies: anomalies}
		return nil
	})
	g.Go(func() error {
		weeks, err := h.svc.Stress(ctx)
		if err != nil {
			return err
		}
		resp.StressIndex = dto.StressIndexResponse{Weeks: weeks}
		return nil
	})

	if err := g.Wait(); err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to compute analytics summary", err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetAuctions handles GET /api/v1/auctions requests.
//
// GetAuctions godoc
// @Summary      List auctions
// @Description  Returns auctions matching the filter, newest first
// @Tags         auctions
// @Produce      json
// @Param        cusip          query     string  false  "Exact CUSIP" example(912796YB9)
// @Param        security_type  query     string  false  "Security type" example(Note)
// @Param        from           query     string  false  "Earliest auction date (YYYY-MM-DD)" example(2024-01-01)
// @Param        to             query     string  false  "Latest auction date (YYYY-MM-DD)" example(2024-12-31)
// @Param        limit          query     int     false  "Maximum rows (default 100, cap 1000)" example(100)
// @Success      200            {array}   models.Auction     "Success"
// @Failure      400            {object}  dto.ErrorResponse  "Bad Request"
// @Failure      500            {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/auctions [get]
func (h *Handler) GetAuctions(c *gin.Context) {
	filter := storage.AuctionFilter{
		CUSIP:        strings.TrimSpace(c.Query("cusip")),
		SecurityType: strings.TrimSpace(c.Query("security_type")),
	}

	if s := c.Query("from"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid from date, expected YYYY-MM-DD", err))
			return
		}
		filter.From = &parsed
	}
	if s := c.Query("to"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid to date, expected YYYY-MM-DD", err))
			return
		}
		filter.To = &parsed
	}
	if s := c.Query("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("limit must be a positive integer", err))
			return
		}
		filter.Limit = parsed
	}

	auctions, err := h.repo.ListAuctions(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to list auctions", err))
		return
	}

	c.JSON(http.StatusOK, auctions)
}

// GetUpdates handles GET /api/v1/updates requests.
//
// GetUpdates godoc
// @Summary      Recent pipeline runs
// @Description  Returns the newest entries of the ingestion audit log
// @Tags         pipeline
// @Produce      json
// @Param        limit  query     int  false  "Maximum rows" example(20)
// @Success      200    {array}   models.DataUpdate  "Success"
// @Failure      400    {object}  dto.ErrorResponse  "Bad Request"
// @Failure      500    {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/updates [get]
func (h *Handler) GetUpdates(c *gin.Context) {
	limit := 20
	if s := c.Query("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("limit must be a positive integer", err))
			return
		}
		limit = parsed
	}

	updates, err := h.repo.RecentDataUpdates(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to list updates", err))
		return
	}

	c.JSON(http.StatusOK, updates)
}

// TriggerPipelineRun handles POST /api/v1/pipeline/run requests.
//
// TriggerPipelineRun godoc
// @Summary      Trigger a manual ingestion run
// @Description  Runs the fetch-and-upsert pipeline synchronously; only one run may be active at a time
// @Tags         pipeline
// @Produce      json
// @Success      200  {object}  dto.PipelineRunResponse  "Run finished"
// @Failure      409  {object}  dto.ErrorResponse        "Another run is active"
// @Router       /api/v1/pipeline/run [post]
func (h *Handler) TriggerPipelineRun(c *gin.Context) {
	if !h.pipelineBusy.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, dto.NewErrorResponse("a pipeline run is already in progress", nil))
		return
	}
	defer h.pipelineBusy.Store(false)

	// Detached context: the run must not be cut short by the request timeout.
	result := h.runner.Run(context.Background(), models.RunTypeManual)

	c.JSON(http.StatusOK, dto.PipelineRunResponse{
		Status:   result.Status,
		Fetched:  result.Fetched,
		Inserted: result.Inserted,
		Updated:  result.Updated,
		Errors:   result.Errors,
		Error:    result.Error,
	})
}
