package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	logs []*repository.AuditLog
	err  error
}

func (w *recordingWriter) CreateAuditLog(_ context.Context, log *repository.AuditLog) error {
	if w.err != nil {
		return w.err
	}
	w.logs = append(w.logs, log)
	return nil
}

func TestAuditHandler_WritesEntry(t *testing.T) {
	w := &recordingWriter{}
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := AuditHandler(w)(context.Background(), models.OrderEvent{
		Type:           models.EventOrderStatusChanged,
		OrderID:        "o1",
		UserID:         "u1",
		Status:         models.StatusShipped,
		PreviousStatus: models.StatusProcessing,
		TotalAmount:    1130,
		OccurredAt:     at,
	})
	require.NoError(t, err)
	require.Len(t, w.logs, 1)

	entry := w.logs[0]
	assert.Equal(t, "storefront", entry.Service)
	assert.Equal(t, "order.status_changed", entry.Action)
	assert.Equal(t, "o1", entry.EntityID)
	assert.Equal(t, "Shipped", entry.Data["status"])
	assert.Equal(t, "Processing", entry.Data["previous_status"])
	assert.Equal(t, 1130.0, entry.Data["total_amount"])
	assert.NotContains(t, entry.Data, "coupon_code")
}

func TestAuditHandler_Errors(t *testing.T) {
	err := AuditHandler(&recordingWriter{})(context.Background(), models.OrderEvent{Type: models.EventOrderCreated})
	assert.Error(t, err)

	err = AuditHandler(&recordingWriter{err: errors.New("mongo down")})(context.Background(), models.OrderEvent{
		Type: models.EventOrderCreated, OrderID: "o1",
	})
	assert.ErrorContains(t, err, "mongo down")
}
