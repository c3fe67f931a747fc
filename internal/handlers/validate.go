package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/staffmeal/validation-service/internal/inference"
	"github.com/staffmeal/validation-service/internal/order"
	"github.com/staffmeal/validation-service/internal/record"
	"github.com/staffmeal/validation-service/internal/store"
)

// maxImageBytes caps uploaded bag photos at 10 MiB.
const maxImageBytes = 10 << 20

// ValidateBag runs one bag validation from a multipart form.
// @Summary Validate a bag against its expected order
// @Description Detects the bag contents from the uploaded photo, compares them against the expected order payload and records the outcome
// @Tags validations
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Bag photo"
// @Param expected formData string true "Expected order QR payload (JSON)"
// @Param operator formData string false "Operator identifier"
// @Success 200 {object} validation.Outcome
// @Failure 400 {object} map[string]string "Invalid order or image"
// @Failure 409 {object} map[string]string "Mismatched order id"
// @Failure 502 {object} map[string]string "Inference unavailable"
// @Failure 503 {object} map[string]string "Record store unavailable"
// @Router /api/v1/validations [post]
func (a *API) ValidateBag(c *gin.Context) {
	payload := c.PostForm("expected")
	if payload == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing expected order payload"})
		return
	}

	expected, err := order.DecodePayload([]byte(payload))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing bag image"})
		return
	}
	if fileHeader.Size > maxImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bag image exceeds the 10 MiB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable bag image"})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable bag image"})
		return
	}

	outcome, err := a.Validator.ValidateBag(c.Request.Context(), expected, image, c.PostForm("operator"))
	if err != nil {
		writeValidationError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// writeValidationError maps the error taxonomy onto HTTP statuses.
// Error kinds stay distinguishable; nothing is swallowed.
func writeValidationError(c *gin.Context, err error) {
	var invalidOrder *order.InvalidOrderError
	var mismatched *record.MismatchedOrderIDError
	var unavailable *inference.UnavailableError
	var ambiguous *inference.AmbiguousError
	var storeDown *store.UnavailableError

	switch {
	case errors.As(err, &invalidOrder):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &mismatched):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &ambiguous):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.As(err, &storeDown):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
