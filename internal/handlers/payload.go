package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/staffmeal/validation-service/internal/catalog"
	"github.com/staffmeal/validation-service/internal/order"
)

// PayloadLine is one item line in a payload request
type PayloadLine struct {
	Item     string `json:"item" jsonschema:"required"`
	Quantity int    `json:"quantity" jsonschema:"required,minimum=1"`
}

// EncodePayloadRequest represents an order to encode as a QR payload
type EncodePayloadRequest struct {
	OrderID string        `json:"order_id" binding:"required" jsonschema:"required"`
	Source  string        `json:"source" binding:"required" jsonschema:"required,enum=ubereats,enum=deliveroo"`
	Items   []PayloadLine `json:"items" binding:"required" jsonschema:"required"`
}

// EncodePayloadResponse carries the serialized QR payload
type EncodePayloadResponse struct {
	Payload string `json:"payload" jsonschema:"required"`
}

// EncodePayload validates an order and returns its QR payload JSON.
// The caller renders the actual QR image.
// @Summary Encode an order QR payload
// @Tags orders
// @Accept json
// @Produce json
// @Param request body EncodePayloadRequest true "Order to encode"
// @Success 200 {object} EncodePayloadResponse
// @Failure 400 {object} map[string]string "Invalid order"
// @Router /api/v1/orders/payload [post]
func (a *API) EncodePayload(c *gin.Context) {
	var req EncodePayloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lines := make([]order.Line, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, order.Line{Item: catalog.Item(it.Item), Quantity: it.Quantity})
	}

	o, err := order.New(req.OrderID, order.Source(req.Source), lines)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload, err := order.EncodePayload(o)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, EncodePayloadResponse{Payload: string(payload)})
}

// DecodePayloadRequest carries a raw QR payload to decode
type DecodePayloadRequest struct {
	Payload string `json:"payload" binding:"required" jsonschema:"required"`
}

// DecodePayload parses and validates a QR payload into an order.
// @Summary Decode an order QR payload
// @Tags orders
// @Accept json
// @Produce json
// @Param request body DecodePayloadRequest true "Payload to decode"
// @Success 200 {object} order.Order
// @Failure 400 {object} map[string]string "Invalid payload"
// @Router /api/v1/orders/payload/decode [post]
func (a *API) DecodePayload(c *gin.Context) {
	var req DecodePayloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	o, err := order.DecodePayload([]byte(req.Payload))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, o)
}
