package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/staffmeal/validation-service/internal/export"
	"github.com/staffmeal/validation-service/internal/store"
)

// ExportStatistics streams the window's records and statistics as an
// XLSX workbook.
// @Summary Export validation history as XLSX
// @Tags stats
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param from query string false "Window start (RFC 3339, inclusive)"
// @Param until query string false "Window end (RFC 3339, exclusive)"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 503 {object} map[string]string "Record store unavailable"
// @Router /api/v1/stats/export [get]
func (a *API) ExportStatistics(c *gin.Context) {
	statistics, period, ok := a.computeStatistics(c)
	if !ok {
		return
	}

	records, err := a.Store.Query(c.Request.Context(), store.Filter{
		From:  period.Start,
		Until: period.End,
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	workbook, err := export.Workbook(records, statistics)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build workbook"})
		return
	}
	defer workbook.Close()

	filename := fmt.Sprintf("validations_%s.xlsx", period.End.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)

	if err := workbook.Write(c.Writer); err != nil {
		// Headers are already out; nothing useful left to send.
		c.Abort()
	}
}
