package broadcaster

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/abdoElHodaky/tradsys-core/internal/adapter"
	"github.com/abdoElHodaky/tradsys-core/internal/domain"
	"github.com/abdoElHodaky/tradsys-core/pkg/fixed"
	"github.com/abdoElHodaky/tradsys-core/pkg/ids"
)

// fakeAdapter is a minimal adapter.Adapter stub for exercising the
// fan-out/first-success-wins/circuit-breaker behavior without a real
// venue connection.
type fakeAdapter struct {
	name  string
	delay time.Duration
	err   error
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) SubmitOrder(ctx context.Context, req adapter.SubmitRequest) (adapter.OrderStatusReport, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return adapter.OrderStatusReport{}, ctx.Err()
		}
	}
	if f.err != nil {
		return adapter.OrderStatusReport{}, f.err
	}
	return adapter.OrderStatusReport{VenueOrderId: ids.VenueOrderId("v-" + f.name), Status: domain.StatusAccepted}, nil
}

func (f *fakeAdapter) CancelOrder(ctx context.Context, instrumentId ids.InstrumentId, clientOrderId ids.ClientOrderId) (adapter.OrderStatusReport, error) {
	return adapter.OrderStatusReport{}, nil
}

func (f *fakeAdapter) ModifyOrder(ctx context.Context, instrumentId ids.InstrumentId, clientOrderId ids.ClientOrderId, newPrice *fixed.Price, newQty *fixed.Quantity) (adapter.OrderStatusReport, error) {
	return adapter.OrderStatusReport{}, nil
}

func (f *fakeAdapter) CancelAll(ctx context.Context, instrumentId ids.InstrumentId, side *domain.Side) error {
	return nil
}

func (f *fakeAdapter) HealthCheck(ctx context.Context) error { return f.err }

func (f *fakeAdapter) AddInstrument(ctx context.Context, instrument *domain.Instrument) error {
	return nil
}

func testSubmitRequest() adapter.SubmitRequest {
	return adapter.SubmitRequest{
		InstrumentId: "BTCUSD.SIM", ClientOrderId: "co-1",
		Side: domain.Buy, Type: domain.OrderTypeMarket, Quantity: fixed.NewQuantity(1, 0),
	}
}

func TestSubmitReturnsFirstSuccess(t *testing.T) {
	b, err := New([]ClientConfig{
		{Name: "slow", Adapter: &fakeAdapter{name: "slow", delay: 50 * time.Millisecond}},
		{Name: "fast", Adapter: &fakeAdapter{name: "fast"}},
	}, 4, NewMetrics(nil), nil)
	assert.NoError(t, err)
	defer b.Close()

	report, err := b.Submit(context.Background(), testSubmitRequest())

	assert.NoError(t, err)
	assert.Equal(t, ids.VenueOrderId("v-fast"), report.VenueOrderId)
}

func TestSubmitFailsWhenEveryClientErrors(t *testing.T) {
	b, err := New([]ClientConfig{
		{Name: "a", Adapter: &fakeAdapter{name: "a", err: fmt.Errorf("boom-a")}},
		{Name: "b", Adapter: &fakeAdapter{name: "b", err: fmt.Errorf("boom-b")}},
	}, 4, NewMetrics(nil), nil)
	assert.NoError(t, err)
	defer b.Close()

	_, err = b.Submit(context.Background(), testSubmitRequest())

	assert.Error(t, err)
}

func TestSubmitSkipsUnhealthyClients(t *testing.T) {
	b, err := New([]ClientConfig{
		{Name: "good", Adapter: &fakeAdapter{name: "good"}},
	}, 4, NewMetrics(nil), nil)
	assert.NoError(t, err)
	defer b.Close()
	b.clients[0].healthy = false

	_, err = b.Submit(context.Background(), testSubmitRequest())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no healthy adapter clients")
}

func TestIsExpectedDuplicateRejectMatchesWrappedCanceled(t *testing.T) {
	wrapped := fmt.Errorf("submit failed: %w", context.Canceled)
	assert.True(t, isExpectedDuplicateReject(wrapped))
	assert.False(t, isExpectedDuplicateReject(fmt.Errorf("some other error")))
}
