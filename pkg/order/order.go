// Package order owns the order lifecycle: creation, customer cancellation
// and admin status changes.
package order

import (
	"context"
	"strings"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/pricing"
	"go.uber.org/zap"
)

const (
	CodeNotFound        = "order_not_found"
	CodeInvalidStatus   = "invalid_status"
	CodeEmptyOrder      = "empty_order"
	CodeNotCancellable  = "order_not_cancellable"
	CodeInvalidQuantity = "invalid_quantity"
)

const maxPageSize = 100

type Store interface {
	InsertOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, f models.OrderFilter) ([]*models.Order, int64, error)
	// SetOrderStatus sets the status in one step and returns the document as
	// it was before the write.
	SetOrderStatus(ctx context.Context, id string, status models.OrderStatus, now time.Time) (*models.Order, error)
	// CancelOrder cancels the order only if it belongs to userID and its
	// status is one of from. No match is reported as NotFound.
	CancelOrder(ctx context.Context, id, userID string, from []models.OrderStatus, now time.Time) (*models.Order, error)
}

type StockDecrementer interface {
	DecrementStock(ctx context.Context, productID string, qty int) error
}

type Publisher interface {
	Publish(ctx context.Context, ev models.OrderEvent) error
}

// NewOrder is what the customer submits at checkout.
type NewOrder struct {
	Items                []models.OrderItem     `json:"items"`
	ShippingFee          float64                `json:"shippingFee"`
	TotalAmount          float64                `json:"totalAmount"`
	ShippingAddress      models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod        string                 `json:"paymentMethod"`
	AppliedCouponCode    string                 `json:"appliedCouponCode,omitempty"`
	CouponDiscountAmount *float64               `json:"couponDiscountAmount"`
}

func (n NewOrder) validate() error {
	if len(n.Items) == 0 {
		return apperr.Validation("Order must contain at least one item").WithCode(CodeEmptyOrder)
	}
	for _, it := range n.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return apperr.Validation("Every item needs a product id")
		}
		if it.Quantity < 1 {
			return apperr.Validation("Item quantity must be at least 1").WithCode(CodeInvalidQuantity)
		}
		if it.Price < 0 {
			return apperr.Validation("Item price must not be negative")
		}
	}
	a := n.ShippingAddress
	if blank(a.FullName) || blank(a.Phone) || blank(a.Address) || blank(a.City) {
		return apperr.Validation("Shipping address requires full name, phone, address and city")
	}
	if blank(n.PaymentMethod) {
		return apperr.Validation("Payment method is required")
	}
	if n.TotalAmount < 0 {
		return apperr.Validation("Total amount must not be negative")
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Page is one slice of an order listing.
type Page struct {
	Orders   []*models.Order `json:"orders"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

type Service struct {
	store     Store
	stock     StockDecrementer
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(store Store, stock StockDecrementer, publisher Publisher, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		stock:     stock,
		publisher: publisher,
		logger:    logger.Named("order"),
		now:       time.Now,
	}
}

// Create stores a Pending order. Item prices and the total are taken as
// given; the checkout package decides whether they are trusted.
func (s *Service) Create(ctx context.Context, userID string, in NewOrder) (*models.Order, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	o := &models.Order{
		UserID:               userID,
		Items:                in.Items,
		Subtotal:             pricing.Subtotal(in.Items),
		ShippingFee:          in.ShippingFee,
		TotalAmount:          in.TotalAmount,
		ShippingAddress:      in.ShippingAddress,
		PaymentMethod:        strings.TrimSpace(in.PaymentMethod),
		OrderStatus:          models.StatusPending,
		AppliedCouponCode:    models.NormalizeCouponCode(in.AppliedCouponCode),
		CouponDiscountAmount: in.CouponDiscountAmount,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.store.InsertOrder(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("order_id", o.ID),
		zap.String("user_id", userID),
		zap.Int("items", len(o.Items)),
		zap.Float64("total", o.TotalAmount))
	s.publish(ctx, models.EventOrderCreated, o, "")
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.NotFound("Order not found").WithCode(CodeNotFound)
	}
	return o, err
}

// GetForUser hides other users' orders behind NotFound.
func (s *Service) GetForUser(ctx context.Context, userID, id string) (*models.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.NotFound("Order not found").WithCode(CodeNotFound)
	}
	return o, nil
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]*models.Order, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}
	orders, _, err := s.store.ListOrders(ctx, models.OrderFilter{UserID: userID})
	return orders, err
}

func (s *Service) List(ctx context.Context, f models.OrderFilter) (*Page, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validationf("Unknown order status %q", f.Status).WithCode(CodeInvalidStatus)
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 || f.PageSize > maxPageSize {
		f.PageSize = 20
	}

	orders, total, err := s.store.ListOrders(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Page{Orders: orders, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// UpdateStatus lets an admin move an order to any status. The first move into
// Delivered stamps deliveredAt and takes the items out of stock.
func (s *Service) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperr.Validationf("Unknown order status %q", status).WithCode(CodeInvalidStatus)
	}

	now := s.now().UTC()
	previous, err := s.store.SetOrderStatus(ctx, id, status, now)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.NotFound("Order not found").WithCode(CodeNotFound)
	}
	if err != nil {
		return nil, err
	}

	updated := *previous
	updated.OrderStatus = status
	updated.UpdatedAt = now
	if status == models.StatusDelivered && previous.OrderStatus != models.StatusDelivered {
		updated.DeliveredAt = &now
		s.decrementStock(ctx, previous)
	}
	if previous.OrderStatus.Terminal() && previous.OrderStatus != status {
		s.logger.Warn("Order moved out of a terminal status",
			zap.String("order_id", id),
			zap.String("from", string(previous.OrderStatus)),
			zap.String("to", string(status)))
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", id),
		zap.String("from", string(previous.OrderStatus)),
		zap.String("to", string(status)))
	s.publish(ctx, models.EventOrderStatusChanged, &updated, previous.OrderStatus)
	return &updated, nil
}

// decrementStock is best effort: a failed item is logged and the rest
// still go through.
func (s *Service) decrementStock(ctx context.Context, o *models.Order) {
	for _, it := range o.Items {
		if err := s.stock.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			s.logger.Error("Failed to decrement stock",
				zap.String("order_id", o.ID),
				zap.String("product_id", it.ProductID),
				zap.Int("quantity", it.Quantity),
				zap.Error(err))
		}
	}
}

// Cancel lets the owner cancel while the order is Pending or Processing.
func (s *Service) Cancel(ctx context.Context, userID, id string) (*models.Order, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}

	from := []models.OrderStatus{models.StatusPending, models.StatusProcessing}
	o, err := s.store.CancelOrder(ctx, id, userID, from, s.now().UTC())
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, s.classifyCancelMiss(ctx, userID, id)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order cancelled", zap.String("order_id", id), zap.String("user_id", userID))
	s.publish(ctx, models.EventOrderCancelled, o, "")
	return o, nil
}

// classifyCancelMiss works out why the conditional cancel matched nothing.
func (s *Service) classifyCancelMiss(ctx context.Context, userID, id string) error {
	current, err := s.GetForUser(ctx, userID, id)
	if err != nil {
		return err
	}
	return apperr.Conflict("Order can no longer be cancelled (status: " + string(current.OrderStatus) + ")").
		WithCode(CodeNotCancellable)
}

func (s *Service) publish(ctx context.Context, eventType string, o *models.Order, previous models.OrderStatus) {
	if s.publisher == nil {
		return
	}
	ev := models.OrderEvent{
		Type:           eventType,
		OrderID:        o.ID,
		UserID:         o.UserID,
		Status:         o.OrderStatus,
		PreviousStatus: previous,
		TotalAmount:    o.TotalAmount,
		CouponCode:     o.AppliedCouponCode,
		OccurredAt:     s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish order event",
			zap.String("type", eventType),
			zap.String("order_id", o.ID),
			zap.Error(err))
	}
}
