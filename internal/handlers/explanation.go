package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/staffmeal/validation-service/internal/store"
)

// ExplanationRequest asks for a staff-facing explanation of the most
// recent validation of an order
type ExplanationRequest struct {
	OrderID  string `json:"order_id" binding:"required" jsonschema:"required"`
	Language string `json:"language" jsonschema:"example=fr"`
}

// ExplanationResponse carries the generated explanation
type ExplanationResponse struct {
	OrderID     string `json:"order_id" jsonschema:"required"`
	Language    string `json:"language" jsonschema:"required"`
	Explanation string `json:"explanation" jsonschema:"required"`
}

// ExplainValidation generates an explanation for the latest
// validation of the given order.
// @Summary Explain a validation outcome
// @Description Generates a short natural-language explanation of the most recent validation of the order, in the requested language (BCP 47 tag, default fr)
// @Tags validations
// @Accept json
// @Produce json
// @Param request body ExplanationRequest true "Order and language"
// @Success 200 {object} ExplanationResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "No validation found"
// @Failure 502 {object} map[string]string "Explanation generation failed"
// @Failure 503 {object} map[string]string "Record store unavailable"
// @Router /api/v1/validations/explanation [post]
func (a *API) ExplainValidation(c *gin.Context) {
	var req ExplanationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lang := language.Und
	if req.Language != "" {
		var err error
		lang, err = language.Parse(req.Language)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid language tag"})
			return
		}
	}

	records, err := a.Store.Query(c.Request.Context(), store.Filter{OrderID: req.OrderID})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no validation found for order"})
		return
	}

	// Query results carry no ordering guarantee; explain the most
	// recent validation of the order.
	rec := records[0]
	for _, r := range records[1:] {
		if r.Timestamp.After(rec.Timestamp) {
			rec = r
		}
	}
	text, err := a.Explainer.Explain(
		c.Request.Context(),
		&rec.ExpectedOrder, &rec.DetectedOrder,
		rec.ComparisonResult,
		lang,
	)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if lang == language.Und {
		lang = language.French
	}
	c.JSON(http.StatusOK, ExplanationResponse{
		OrderID:     req.OrderID,
		Language:    lang.String(),
		Explanation: text,
	})
}
