package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffmeal/validation-service/internal/catalog"
	"github.com/staffmeal/validation-service/internal/inference"
	"github.com/staffmeal/validation-service/internal/order"
	"github.com/staffmeal/validation-service/internal/record"
	"github.com/staffmeal/validation-service/internal/store"
)

// stubProvider returns a canned detection or error.
type stubProvider struct {
	detected *order.Order
	err      error
	calls    int
}

func (p *stubProvider) DetectOrder(ctx context.Context, image []byte, expected *order.Order) (*order.Order, error) {
	p.calls++
	return p.detected, p.err
}

func (p *stubProvider) ModelVersion() string { return "stub-1" }

// failingStore rejects every append.
type failingStore struct {
	store.Store
}

func (s *failingStore) Append(ctx context.Context, rec *record.ValidationRecord) (int64, error) {
	return 0, &store.UnavailableError{Op: "append", Err: errors.New("connection refused")}
}

func serviceFixture(t *testing.T) (*order.Order, *order.Order) {
	t.Helper()
	expected, err := order.New("UE-5", order.SourceUberEats, []order.Line{
		{Item: catalog.Gyoza, Quantity: 2},
		{Item: catalog.Sauce, Quantity: 1},
	})
	require.NoError(t, err)
	detected, err := order.New("UE-5", order.SourceUberEats, []order.Line{
		{Item: catalog.Gyoza, Quantity: 2},
	})
	require.NoError(t, err)
	return expected, detected
}

func TestValidateBag(t *testing.T) {
	ctx := context.Background()
	expected, detected := serviceFixture(t)

	memStore := store.NewMemoryStore()
	provider := &stubProvider{detected: detected}
	svc := NewService(memStore, provider, zerolog.Nop())

	outcome, err := svc.ValidateBag(ctx, expected, []byte("image"), "marie")
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, int64(1), outcome.RecordID)
	assert.Equal(t, outcome.RecordID, outcome.Record.ID)
	assert.Equal(t, "UE-5", outcome.Record.OrderID)
	assert.Equal(t, "marie", outcome.Record.Operator)
	assert.False(t, outcome.Record.IsComplete)
	require.Len(t, outcome.Record.ComparisonResult.MissingItems, 1)
	assert.Equal(t, catalog.Sauce, outcome.Record.ComparisonResult.MissingItems[0].Item)

	assert.Equal(t, 1, memStore.Len(), "record persisted")
}

func TestValidateBagInferenceFailure(t *testing.T) {
	ctx := context.Background()
	expected, _ := serviceFixture(t)

	tests := []struct {
		name string
		err  error
	}{
		{"vendor unavailable", &inference.UnavailableError{Provider: "gemini", Err: errors.New("quota")}},
		{"ambiguous detection", &inference.AmbiguousError{Reason: "no valid items detected"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memStore := store.NewMemoryStore()
			svc := NewService(memStore, &stubProvider{err: tt.err}, zerolog.Nop())

			_, err := svc.ValidateBag(ctx, expected, []byte("image"), "marie")

			// The error kind survives for the handler's taxonomy.
			assert.ErrorIs(t, err, tt.err)
			assert.Zero(t, memStore.Len(), "no record on inference failure")
		})
	}
}

func TestValidateDetectedMismatchedOrderID(t *testing.T) {
	ctx := context.Background()
	expected, _ := serviceFixture(t)
	other, err := order.New("UE-6", order.SourceUberEats, []order.Line{
		{Item: catalog.Gyoza, Quantity: 2},
	})
	require.NoError(t, err)

	memStore := store.NewMemoryStore()
	svc := NewService(memStore, &stubProvider{}, zerolog.Nop())

	_, err = svc.ValidateDetected(ctx, expected, other, "marie")

	var mismatch *record.MismatchedOrderIDError
	require.ErrorAs(t, err, &mismatch)
	assert.Zero(t, memStore.Len())
}

func TestValidateDetectedStoreFailure(t *testing.T) {
	ctx := context.Background()
	expected, detected := serviceFixture(t)

	svc := NewService(&failingStore{}, &stubProvider{}, zerolog.Nop())

	_, err := svc.ValidateDetected(ctx, expected, detected, "marie")

	var unavailable *store.UnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestValidateDetectedCompleteBag(t *testing.T) {
	ctx := context.Background()
	expected, _ := serviceFixture(t)

	memStore := store.NewMemoryStore()
	svc := NewService(memStore, &stubProvider{}, zerolog.Nop())

	outcome, err := svc.ValidateDetected(ctx, expected, expected, "")
	require.NoError(t, err)

	assert.True(t, outcome.Record.IsComplete)
	assert.Empty(t, outcome.Record.Operator)
}
