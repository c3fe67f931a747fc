// Package validation orchestrates one bag validation: detect the
// order on the bag image, compare it against the expected order,
// assemble the record and append it to the store. The comparison and
// aggregation cores stay pure; everything effectful lives here.
package validation

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/staffmeal/validation-service/internal/compare"
	"github.com/staffmeal/validation-service/internal/inference"
	"github.com/staffmeal/validation-service/internal/order"
	"github.com/staffmeal/validation-service/internal/record"
	"github.com/staffmeal/validation-service/internal/store"
)

// Outcome is the result of one validation run.
type Outcome struct {
	RecordID int64                    `json:"record_id"`
	Record   *record.ValidationRecord `json:"record"`
}

// Service wires the collaborators for the validation flow. Store and
// Provider are injected; the service holds no other state and is safe
// for concurrent use.
type Service struct {
	store     store.Store
	provider  inference.Provider
	assembler record.Assembler
	logger    zerolog.Logger
}

// NewService creates a validation service.
func NewService(st store.Store, provider inference.Provider, logger zerolog.Logger) *Service {
	return &Service{
		store:    st,
		provider: provider,
		logger:   logger,
	}
}

// ValidateBag runs the full flow for one bag. Inference failure means
// no comparison is attempted and no record is written; the error
// propagates with its kind intact so the caller can decide whether to
// re-prompt for a new photo.
func (s *Service) ValidateBag(ctx context.Context, expected *order.Order, image []byte, operator string) (*Outcome, error) {
	start := time.Now()
	detected, err := s.provider.DetectOrder(ctx, image, expected)
	recordInference(time.Since(start))
	if err != nil {
		var unavailable *inference.UnavailableError
		var ambiguous *inference.AmbiguousError
		switch {
		case errors.As(err, &unavailable):
			recordInferenceFailure("unavailable")
		case errors.As(err, &ambiguous):
			recordInferenceFailure("ambiguous")
		}
		s.logger.Warn().
			Err(err).
			Str("order_id", expected.OrderID).
			Msg("Inference failed, no comparison attempted")
		return nil, err
	}

	return s.ValidateDetected(ctx, expected, detected, operator)
}

// ValidateDetected compares an already-detected order against the
// expected one and persists the outcome. Used directly by the CLI and
// by callers that obtained the detected order elsewhere.
func (s *Service) ValidateDetected(ctx context.Context, expected, detected *order.Order, operator string) (*Outcome, error) {
	result := compare.Compare(expected, detected)

	rec, err := s.assembler.Assemble(expected, detected, result, operator)
	if err != nil {
		return nil, err
	}

	id, err := s.store.Append(ctx, rec)
	if err != nil {
		storeAppendFailures.Inc()
		s.logger.Error().
			Err(err).
			Str("order_id", rec.OrderID).
			Msg("Failed to append validation record")
		return nil, err
	}
	rec.ID = id

	recordValidation(result.IsComplete, string(expected.Source), len(result.MissingItems))
	s.logger.Info().
		Str("order_id", rec.OrderID).
		Bool("is_complete", result.IsComplete).
		Int("missing", len(result.MissingItems)).
		Int("extra", len(result.ExtraItems)).
		Msg("Validation recorded")

	return &Outcome{RecordID: id, Record: rec}, nil
}
