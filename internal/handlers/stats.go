package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/staffmeal/validation-service/internal/stats"
	"github.com/staffmeal/validation-service/internal/store"
)

// StatsRequest represents query parameters for the statistics endpoints
type StatsRequest struct {
	From    string `form:"from" json:"from"`
	Until   string `form:"until" json:"until"`
	Compare bool   `form:"compare" json:"compare"`
}

// StatsResponse represents the statistics response
type StatsResponse struct {
	From       time.Time        `json:"from" jsonschema:"required"`
	Until      time.Time        `json:"until" jsonschema:"required"`
	Statistics stats.Statistics `json:"statistics" jsonschema:"required"`
}

// AlertsResponse represents the alerts response
type AlertsResponse struct {
	Alerts []stats.Alert `json:"alerts" jsonschema:"required"`
}

// GetStatistics returns aggregate metrics for a time window
// @Summary Aggregate validation statistics
// @Description Computes completion and error rates, trend deltas and breakdowns for the given window. Defaults to the last 7 days; compare=true adds trend deltas against the adjacent prior window
// @Tags stats
// @Accept json
// @Produce json
// @Param from query string false "Window start (RFC 3339, inclusive)"
// @Param until query string false "Window end (RFC 3339, exclusive)"
// @Param compare query bool false "Compute trend deltas against the prior window"
// @Success 200 {object} StatsResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 503 {object} map[string]string "Record store unavailable"
// @Router /api/v1/stats [get]
func (a *API) GetStatistics(c *gin.Context) {
	statistics, period, ok := a.computeStatistics(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		From:       period.Start,
		Until:      period.End,
		Statistics: statistics,
	})
}

// GetAlerts returns the alerts firing for a time window
// @Summary Threshold alerts
// @Description Derives critical/warning/info alerts from the window's statistics; all qualifying alerts are returned
// @Tags stats
// @Accept json
// @Produce json
// @Param from query string false "Window start (RFC 3339, inclusive)"
// @Param until query string false "Window end (RFC 3339, exclusive)"
// @Success 200 {object} AlertsResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 503 {object} map[string]string "Record store unavailable"
// @Router /api/v1/stats/alerts [get]
func (a *API) GetAlerts(c *gin.Context) {
	statistics, _, ok := a.computeStatistics(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, AlertsResponse{Alerts: stats.DetectAlerts(statistics, a.Alerts)})
}

// computeStatistics parses the window, loads the matching records and
// aggregates them. Writes the error response itself when it fails.
func (a *API) computeStatistics(c *gin.Context) (stats.Statistics, stats.Period, bool) {
	var req StatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return stats.Statistics{}, stats.Period{}, false
	}

	from, until, err := parseWindow(req.From, req.Until)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return stats.Statistics{}, stats.Period{}, false
	}
	period := defaultPeriod(from, until)

	// Fetch wide enough to cover the comparison window too.
	queryFrom := period.Start
	var comparison *stats.Period
	if req.Compare {
		prior := period.Previous()
		comparison = &prior
		queryFrom = prior.Start
	}

	records, err := a.Store.Query(c.Request.Context(), store.Filter{
		From:  queryFrom,
		Until: period.End,
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return stats.Statistics{}, stats.Period{}, false
	}

	return stats.Aggregate(records, period, comparison), period, true
}

// defaultPeriod fills missing bounds: last 7 days ending now.
func defaultPeriod(from, until time.Time) stats.Period {
	if until.IsZero() {
		until = time.Now().UTC()
	}
	if from.IsZero() {
		from = until.AddDate(0, 0, -7)
	}
	return stats.Period{Start: from, End: until}
}
