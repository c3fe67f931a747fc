package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/staffmeal/validation-service/internal/catalog"
	"github.com/staffmeal/validation-service/internal/compare"
	"github.com/staffmeal/validation-service/internal/order"
	"github.com/staffmeal/validation-service/internal/record"
	"github.com/staffmeal/validation-service/internal/stats"
	"github.com/staffmeal/validation-service/internal/store"
	"github.com/staffmeal/validation-service/internal/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubDetector implements inference.Provider with a canned result.
type stubDetector struct {
	detected *order.Order
	err      error
}

func (d *stubDetector) DetectOrder(ctx context.Context, image []byte, expected *order.Order) (*order.Order, error) {
	return d.detected, d.err
}

func (d *stubDetector) ModelVersion() string { return "stub" }

// stubExplainer implements explain.Explainer and records what it was
// asked to explain.
type stubExplainer struct {
	text   string
	err    error
	lang   language.Tag
	result compare.Result
}

func (e *stubExplainer) Explain(ctx context.Context, expected, detected *order.Order, result compare.Result, lang language.Tag) (string, error) {
	e.lang = lang
	e.result = result
	return e.text, e.err
}

// testAPI wires an API around a memory store.
func testAPI(t *testing.T, detector *stubDetector, explainer *stubExplainer) (*API, *store.MemoryStore) {
	t.Helper()
	memStore := store.NewMemoryStore()
	if detector == nil {
		detector = &stubDetector{}
	}
	if explainer == nil {
		explainer = &stubExplainer{text: "ok"}
	}
	validator := validation.NewService(memStore, detector, zerolog.Nop())
	return NewAPI(memStore, validator, explainer, stats.DefaultAlertConfig()), memStore
}

func testRouter(api *API) *gin.Engine {
	router := gin.New()
	v1 := router.Group("/api/v1")
	{
		v1.POST("/validations", api.ValidateBag)
		v1.GET("/validations", api.ListRecords)
		v1.POST("/validations/explanation", api.ExplainValidation)
		v1.GET("/stats", api.GetStatistics)
		v1.GET("/stats/alerts", api.GetAlerts)
		v1.GET("/stats/export", api.ExportStatistics)
		v1.POST("/orders/payload", api.EncodePayload)
		v1.POST("/orders/payload/decode", api.DecodePayload)
	}
	return router
}

func performRequest(router *gin.Engine, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// multipartBody builds a bag-validation form.
func multipartBody(t *testing.T, payload, operator string, image []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if payload != "" {
		require.NoError(t, w.WriteField("expected", payload))
	}
	if operator != "" {
		require.NoError(t, w.WriteField("operator", operator))
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "bag.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes(), w.FormDataContentType()
}

func seedStoreRecord(t *testing.T, s *store.MemoryStore, orderID string, ts time.Time, missing ...catalog.Item) {
	t.Helper()

	expected, err := order.New(orderID, order.SourceUberEats, []order.Line{
		{Item: catalog.Ramen, Quantity: 1},
		{Item: catalog.Sauce, Quantity: 1},
	})
	require.NoError(t, err)

	detectedLines := []order.Line{{Item: catalog.Ramen, Quantity: 1}, {Item: catalog.Sauce, Quantity: 1}}
	if len(missing) > 0 {
		detectedLines = []order.Line{{Item: catalog.Ramen, Quantity: 1}}
	}
	detected, err := order.New(orderID, order.SourceUberEats, detectedLines)
	require.NoError(t, err)

	rec, err := record.Assembler{Now: func() time.Time { return ts }}.
		Assemble(expected, detected, compare.Compare(expected, detected), "marie")
	require.NoError(t, err)

	_, err = s.Append(context.Background(), rec)
	require.NoError(t, err)
}
