package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffmeal/validation-service/internal/catalog"
	"github.com/staffmeal/validation-service/internal/inference"
	"github.com/staffmeal/validation-service/internal/order"
	"github.com/staffmeal/validation-service/internal/validation"
)

const expectedPayload = `{"order_id":"UE-1","source":"ubereats","items":[{"item":"Ramen","quantity":1},{"item":"Sauce","quantity":2}]}`

func detectedFixture(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.New("UE-1", order.SourceUberEats, []order.Line{
		{Item: catalog.Ramen, Quantity: 1},
	})
	require.NoError(t, err)
	return o
}

func TestValidateBagHandler(t *testing.T) {
	api, memStore := testAPI(t, &stubDetector{detected: detectedFixture(t)}, nil)
	router := testRouter(api)

	body, contentType := multipartBody(t, expectedPayload, "marie", []byte("fake-png"))
	w := performRequest(router, http.MethodPost, "/api/v1/validations", body, contentType)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var outcome validation.Outcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.Equal(t, int64(1), outcome.RecordID)
	assert.Equal(t, "UE-1", outcome.Record.OrderID)
	assert.Equal(t, "marie", outcome.Record.Operator)
	assert.False(t, outcome.Record.IsComplete, "sauce is short")
	assert.Equal(t, 1, memStore.Len())
}

func TestValidateBagHandlerBadRequests(t *testing.T) {
	api, _ := testAPI(t, &stubDetector{detected: detectedFixture(t)}, nil)
	router := testRouter(api)

	t.Run("missing payload", func(t *testing.T) {
		body, contentType := multipartBody(t, "", "", []byte("img"))
		w := performRequest(router, http.MethodPost, "/api/v1/validations", body, contentType)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid payload", func(t *testing.T) {
		body, contentType := multipartBody(t, `{"order_id":"","source":"ubereats","items":[]}`, "", []byte("img"))
		w := performRequest(router, http.MethodPost, "/api/v1/validations", body, contentType)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing image", func(t *testing.T) {
		body, contentType := multipartBody(t, expectedPayload, "", nil)
		w := performRequest(router, http.MethodPost, "/api/v1/validations", body, contentType)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestValidateBagHandlerErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{
			"ambiguous detection maps to 422",
			&inference.AmbiguousError{Reason: "no valid items detected"},
			http.StatusUnprocessableEntity,
		},
		{
			"vendor down maps to 502",
			&inference.UnavailableError{Provider: "gemini", Err: errors.New("quota exceeded")},
			http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, memStore := testAPI(t, &stubDetector{err: tt.err}, nil)
			router := testRouter(api)

			body, contentType := multipartBody(t, expectedPayload, "", []byte("img"))
			w := performRequest(router, http.MethodPost, "/api/v1/validations", body, contentType)

			assert.Equal(t, tt.status, w.Code)
			assert.Zero(t, memStore.Len(), "no record on inference failure")
		})
	}
}

func TestValidateBagHandlerMismatchedID(t *testing.T) {
	other, err := order.New("UE-999", order.SourceUberEats, []order.Line{
		{Item: catalog.Ramen, Quantity: 1},
	})
	require.NoError(t, err)

	api, _ := testAPI(t, &stubDetector{detected: other}, nil)
	router := testRouter(api)

	body, contentType := multipartBody(t, expectedPayload, "", []byte("img"))
	w := performRequest(router, http.MethodPost, "/api/v1/validations", body, contentType)

	assert.Equal(t, http.StatusConflict, w.Code)
}
