package events

import (
	"context"
	"fmt"

	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
)

// AuditService is the service name stamped on audit entries.
const AuditService = "storefront"

type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *repository.AuditLog) error
}

// AuditEntry maps an order event onto an audit log row.
func AuditEntry(ev models.OrderEvent) *repository.AuditLog {
	data := bson.M{
		"user_id":      ev.UserID,
		"status":       string(ev.Status),
		"total_amount": ev.TotalAmount,
		"occurred_at":  ev.OccurredAt,
	}
	if ev.PreviousStatus != "" {
		data["previous_status"] = string(ev.PreviousStatus)
	}
	if ev.CouponCode != "" {
		data["coupon_code"] = ev.CouponCode
	}
	return &repository.AuditLog{
		Service:  AuditService,
		Action:   ev.Type,
		EntityID: ev.OrderID,
		Data:     data,
	}
}

// AuditHandler writes every consumed event to the audit log.
func AuditHandler(w AuditWriter) Handler {
	return func(ctx context.Context, ev models.OrderEvent) error {
		if ev.OrderID == "" {
			return fmt.Errorf("event %q has no order id", ev.Type)
		}
		if err := w.CreateAuditLog(ctx, AuditEntry(ev)); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	}
}
