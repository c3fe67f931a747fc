// Package handlers exposes the validation service over HTTP. Handlers
// hold their collaborators explicitly; nothing reaches for globals
// except the database health check.
package handlers

import (
	"github.com/staffmeal/validation-service/internal/explain"
	"github.com/staffmeal/validation-service/internal/stats"
	"github.com/staffmeal/validation-service/internal/store"
	"github.com/staffmeal/validation-service/internal/validation"
)

// API bundles the handler dependencies.
type API struct {
	Store     store.Store
	Validator *validation.Service
	Explainer explain.Explainer
	Alerts    stats.AlertConfig
}

// NewAPI creates the handler set.
func NewAPI(st store.Store, validator *validation.Service, explainer explain.Explainer, alerts stats.AlertConfig) *API {
	return &API{
		Store:     st,
		Validator: validator,
		Explainer: explainer,
		Alerts:    alerts,
	}
}
