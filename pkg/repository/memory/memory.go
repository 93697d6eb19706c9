// Package memory keeps every storefront collection in process. It backs the
// "memory" storage driver and the service tests, and mirrors the atomic
// semantics of the Mongo stores under a single mutex.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu        sync.Mutex
	products  map[string]*models.Product
	carts     map[string]*models.Cart
	coupons   map[string]*models.Coupon
	orders    map[string]*models.Order
	wishlists map[string]*models.Wishlist
}

func New() *Store {
	return &Store{
		products:  make(map[string]*models.Product),
		carts:     make(map[string]*models.Cart),
		coupons:   make(map[string]*models.Coupon),
		orders:    make(map[string]*models.Order),
		wishlists: make(map[string]*models.Wishlist),
	}
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

// Products

func (s *Store) GetProduct(_ context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, apperr.NotFound("Product not found")
	}
	return copyProduct(p), nil
}

func (s *Store) InsertProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = newID()
	}
	if _, ok := s.products[p.ID]; ok {
		return apperr.Duplicate("Product already exists")
	}
	s.products[p.ID] = copyProduct(p)
	return nil
}

func (s *Store) UpdateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; !ok {
		return apperr.NotFound("Product not found")
	}
	s.products[p.ID] = copyProduct(p)
	return nil
}

func (s *Store) DecrementStock(_ context.Context, id string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return apperr.NotFound("Product not found")
	}
	p.Stock -= qty
	return nil
}

// Carts

func (s *Store) GetCart(_ context.Context, userID string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		return nil, apperr.NotFound("Cart not found")
	}
	return copyCart(c), nil
}

func (s *Store) AddCartItem(_ context.Context, userID string, item models.CartItem, now time.Time) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		c = &models.Cart{ID: newID(), UserID: userID, Items: []models.CartItem{}, CreatedAt: now}
		s.carts[userID] = c
	}
	if i, found := c.Find(item.CartKey); found {
		c.Items[i].Quantity += item.Quantity
	} else {
		c.Items = append(c.Items, item)
	}
	c.UpdatedAt = now
	return copyCart(c), nil
}

func (s *Store) SetCartItemQuantity(_ context.Context, userID, cartKey string, qty int, now time.Time) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		return nil, apperr.NotFound("Cart item not found")
	}
	i, found := c.Find(cartKey)
	if !found {
		return nil, apperr.NotFound("Cart item not found")
	}
	c.Items[i].Quantity = qty
	c.UpdatedAt = now
	return copyCart(c), nil
}

func (s *Store) RemoveCartItem(_ context.Context, userID, cartKey string, now time.Time) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		return models.EmptyCart(userID), nil
	}
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.CartKey != cartKey {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	c.UpdatedAt = now
	return copyCart(c), nil
}

func (s *Store) ClearCart(_ context.Context, userID string, now time.Time) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		return models.EmptyCart(userID), nil
	}
	c.Items = []models.CartItem{}
	c.UpdatedAt = now
	return copyCart(c), nil
}

// Coupons

func (s *Store) GetCouponByCode(_ context.Context, code string) (*models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.coupons {
		if c.Code == code {
			return copyCoupon(c), nil
		}
	}
	return nil, apperr.NotFound("Coupon not found")
}

func (s *Store) GetCoupon(_ context.Context, id string) (*models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[id]
	if !ok {
		return nil, apperr.NotFound("Coupon not found")
	}
	return copyCoupon(c), nil
}

func (s *Store) ListCoupons(_ context.Context) ([]*models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Coupon, 0, len(s.coupons))
	for _, c := range s.coupons {
		out = append(out, copyCoupon(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) InsertCoupon(_ context.Context, c *models.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.coupons {
		if existing.Code == c.Code {
			return apperr.Duplicate("Coupon code already exists")
		}
	}
	if c.ID == "" {
		c.ID = newID()
	}
	s.coupons[c.ID] = copyCoupon(c)
	return nil
}

func (s *Store) UpdateCoupon(_ context.Context, c *models.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.coupons[c.ID]
	if !ok {
		return apperr.NotFound("Coupon not found")
	}
	for id, other := range s.coupons {
		if id != c.ID && other.Code == c.Code {
			return apperr.Duplicate("Coupon code already exists")
		}
	}
	updated := copyCoupon(c)
	// usage is owned by IncrementCouponUsage
	updated.UsageCount = existing.UsageCount
	updated.RedeemedOrderIDs = existing.RedeemedOrderIDs
	s.coupons[c.ID] = updated
	return nil
}

func (s *Store) DeleteCoupon(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.coupons[id]; !ok {
		return apperr.NotFound("Coupon not found")
	}
	delete(s.coupons, id)
	return nil
}

func (s *Store) IncrementCouponUsage(_ context.Context, id, orderID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[id]
	if !ok || c.RedeemedFor(orderID) || c.Exhausted() {
		return false, nil
	}
	c.UsageCount++
	c.RedeemedOrderIDs = append(c.RedeemedOrderIDs, orderID)
	c.UpdatedAt = now
	return true, nil
}

// Orders

func (s *Store) InsertOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == "" {
		o.ID = newID()
	}
	s.orders[o.ID] = copyOrder(o)
	return nil
}

func (s *Store) GetOrder(_ context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.NotFound("Order not found")
	}
	return copyOrder(o), nil
}

func (s *Store) ListOrders(_ context.Context, f models.OrderFilter) ([]*models.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Order
	for _, o := range s.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.OrderStatus != f.Status {
			continue
		}
		matched = append(matched, o)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := f.Skip()
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if f.PageSize > 0 && start+f.PageSize < end {
		end = start + f.PageSize
	}

	out := make([]*models.Order, 0, end-start)
	for _, o := range matched[start:end] {
		out = append(out, copyOrder(o))
	}
	return out, total, nil
}

func (s *Store) SetOrderStatus(_ context.Context, id string, status models.OrderStatus, now time.Time) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.NotFound("Order not found")
	}
	previous := copyOrder(o)
	o.OrderStatus = status
	o.UpdatedAt = now
	if status == models.StatusDelivered && previous.OrderStatus != models.StatusDelivered {
		at := now
		o.DeliveredAt = &at
	}
	return previous, nil
}

func (s *Store) CancelOrder(_ context.Context, id, userID string, from []models.OrderStatus, now time.Time) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok || o.UserID != userID || !statusIn(o.OrderStatus, from) {
		return nil, apperr.NotFound("Order not found")
	}
	o.OrderStatus = models.StatusCancelled
	o.UpdatedAt = now
	return copyOrder(o), nil
}

// Wishlists

func (s *Store) GetWishlist(_ context.Context, userID string) (*models.Wishlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wishlists[userID]
	if !ok {
		return nil, apperr.NotFound("Wishlist not found")
	}
	return copyWishlist(w), nil
}

func (s *Store) AddToWishlist(_ context.Context, userID, productID string, now time.Time) (*models.Wishlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wishlists[userID]
	if !ok {
		w = &models.Wishlist{ID: newID(), UserID: userID, ProductIDs: []string{}, CreatedAt: now}
		s.wishlists[userID] = w
	}
	if !w.Contains(productID) {
		w.ProductIDs = append(w.ProductIDs, productID)
	}
	w.UpdatedAt = now
	return copyWishlist(w), nil
}

func (s *Store) RemoveFromWishlist(_ context.Context, userID, productID string, now time.Time) (*models.Wishlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wishlists[userID]
	if !ok {
		return &models.Wishlist{UserID: userID, ProductIDs: []string{}}, nil
	}
	kept := w.ProductIDs[:0]
	for _, id := range w.ProductIDs {
		if id != productID {
			kept = append(kept, id)
		}
	}
	w.ProductIDs = kept
	w.UpdatedAt = now
	return copyWishlist(w), nil
}

func statusIn(s models.OrderStatus, set []models.OrderStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func copyProduct(p *models.Product) *models.Product {
	c := *p
	c.Colors = append([]models.Color(nil), p.Colors...)
	c.Sizes = append([]string(nil), p.Sizes...)
	return &c
}

func copyCart(c *models.Cart) *models.Cart {
	out := *c
	out.Items = append([]models.CartItem{}, c.Items...)
	return &out
}

func copyCoupon(c *models.Coupon) *models.Coupon {
	out := *c
	out.RedeemedOrderIDs = append([]string(nil), c.RedeemedOrderIDs...)
	if c.MinPurchaseAmount != nil {
		v := *c.MinPurchaseAmount
		out.MinPurchaseAmount = &v
	}
	if c.UsageLimit != nil {
		v := *c.UsageLimit
		out.UsageLimit = &v
	}
	return &out
}

func copyOrder(o *models.Order) *models.Order {
	out := *o
	out.Items = append([]models.OrderItem(nil), o.Items...)
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		out.DeliveredAt = &t
	}
	if o.CouponDiscountAmount != nil {
		v := *o.CouponDiscountAmount
		out.CouponDiscountAmount = &v
	}
	return &out
}

func copyWishlist(w *models.Wishlist) *models.Wishlist {
	out := *w
	out.ProductIDs = append([]string{}, w.ProductIDs...)
	return &out
}
