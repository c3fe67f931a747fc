package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/staffmeal/validation-service/internal/catalog"
)

func TestExplainValidationHandler(t *testing.T) {
	explainer := &stubExplainer{text: "Il manque une sauce."}
	api, memStore := testAPI(t, nil, explainer)
	router := testRouter(api)

	seedStoreRecord(t, memStore, "UE-1", time.Now().UTC(), catalog.Sauce)

	t.Run("default language is French", func(t *testing.T) {
		body := []byte(`{"order_id":"UE-1"}`)
		w := performRequest(router, http.MethodPost, "/api/v1/validations/explanation", body, "application/json")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp ExplanationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "UE-1", resp.OrderID)
		assert.Equal(t, "fr", resp.Language)
		assert.Equal(t, "Il manque une sauce.", resp.Explanation)
		assert.Equal(t, language.Und, explainer.lang, "undetermined tag passes through; the explainer applies the default")
	})

	t.Run("explicit language", func(t *testing.T) {
		body := []byte(`{"order_id":"UE-1","language":"en"}`)
		w := performRequest(router, http.MethodPost, "/api/v1/validations/explanation", body, "application/json")
		require.Equal(t, http.StatusOK, w.Code)

		var resp ExplanationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "en", resp.Language)
		assert.Equal(t, language.English, explainer.lang)
	})

	t.Run("invalid language tag", func(t *testing.T) {
		body := []byte(`{"order_id":"UE-1","language":"not a tag"}`)
		w := performRequest(router, http.MethodPost, "/api/v1/validations/explanation", body, "application/json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown order", func(t *testing.T) {
		body := []byte(`{"order_id":"UE-404"}`)
		w := performRequest(router, http.MethodPost, "/api/v1/validations/explanation", body, "application/json")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing order id", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/v1/validations/explanation", []byte(`{}`), "application/json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestExplainValidationUsesNewestRecord(t *testing.T) {
	explainer := &stubExplainer{text: "Commande complète."}
	api, memStore := testAPI(t, nil, explainer)
	router := testRouter(api)

	// The first validation caught a missing sauce; a later re-scan of
	// the same order was complete. The explanation must cover the
	// re-scan even though the store returns the records oldest-first.
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	seedStoreRecord(t, memStore, "UE-2", base, catalog.Sauce)
	seedStoreRecord(t, memStore, "UE-2", base.Add(10*time.Minute))

	body := []byte(`{"order_id":"UE-2"}`)
	w := performRequest(router, http.MethodPost, "/api/v1/validations/explanation", body, "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.True(t, explainer.result.IsComplete, "explainer should see the newest validation")
	assert.Empty(t, explainer.result.MissingItems)
}

func TestExplainValidationHandlerGenerationFailure(t *testing.T) {
	api, memStore := testAPI(t, nil, &stubExplainer{err: errors.New("model overloaded")})
	router := testRouter(api)

	seedStoreRecord(t, memStore, "UE-1", time.Now().UTC())

	body := []byte(`{"order_id":"UE-1"}`)
	w := performRequest(router, http.MethodPost, "/api/v1/validations/explanation", body, "application/json")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
