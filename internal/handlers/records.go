package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/staffmeal/validation-service/internal/order"
	"github.com/staffmeal/validation-service/internal/record"
	"github.com/staffmeal/validation-service/internal/store"
)

// ListRecordsRequest represents query parameters for listing validation records
type ListRecordsRequest struct {
	OrderID  string `form:"orderId" json:"orderId"`
	Operator string `form:"operator" json:"operator"`
	Source   string `form:"source" json:"source" jsonschema:"enum=ubereats,enum=deliveroo"`
	From     string `form:"from" json:"from"`
	Until    string `form:"until" json:"until"`
	Limit    int    `form:"limit" json:"limit" binding:"min=0,max=1000" jsonschema:"minimum=0,maximum=1000"`
}

// ListRecordsResponse represents the response for listing validation records
type ListRecordsResponse struct {
	Records []record.ValidationRecord `json:"records" jsonschema:"required"`
	Total   int                       `json:"total" jsonschema:"required"`
}

// ListRecords returns validation records matching the filters
// @Summary List validation records
// @Description Returns validation records matching the given order, operator, source and time filters
// @Tags validations
// @Accept json
// @Produce json
// @Param orderId query string false "Filter by order id"
// @Param operator query string false "Filter by operator"
// @Param source query string false "Filter by source" Enums(ubereats, deliveroo)
// @Param from query string false "Window start (RFC 3339, inclusive)"
// @Param until query string false "Window end (RFC 3339, exclusive)"
// @Param limit query int false "Maximum records to return" default(100) minimum(0) maximum(1000)
// @Success 200 {object} ListRecordsResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 503 {object} map[string]string "Record store unavailable"
// @Router /api/v1/validations [get]
func (a *API) ListRecords(c *gin.Context) {
	var req ListRecordsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Limit == 0 {
		req.Limit = 100
	}

	filter := store.Filter{
		OrderID:  req.OrderID,
		Operator: req.Operator,
		Limit:    req.Limit,
	}

	if req.Source != "" {
		source, err := order.ParseSource(req.Source)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.Source = source
	}

	var err error
	if filter.From, filter.Until, err = parseWindow(req.From, req.Until); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := a.Store.Query(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListRecordsResponse{Records: records, Total: len(records)})
}

// parseWindow parses optional RFC 3339 bounds.
func parseWindow(from, until string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if from != "" {
		start, err = time.Parse(time.RFC3339, from)
		if err != nil {
			return start, end, err
		}
	}
	if until != "" {
		end, err = time.Parse(time.RFC3339, until)
		if err != nil {
			return start, end, err
		}
	}
	return start, end, nil
}
