package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/cart"
	"github.com/example/storefront/pkg/catalog"
	"github.com/example/storefront/pkg/checkout"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/coupon"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/order"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/repository/memory"
	"github.com/example/storefront/pkg/wishlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAuditReader struct {
	entityID string
	limit    int64
	entries  []*repository.AuditLog
}

func (f *fakeAuditReader) GetAuditLogs(_ context.Context, entityID string, limit int64) ([]*repository.AuditLog, error) {
	f.entityID = entityID
	f.limit = limit
	return f.entries, nil
}

type testEnv struct {
	handler  http.Handler
	store    *memory.Store
	audit    *fakeAuditReader
	customer string
	other    string
	admin    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.InsertProduct(ctx, &models.Product{
		ID: "shirt", Name: "Linen shirt", Price: 1000, DiscountType: models.DiscountPercentage, DiscountValue: 20, Stock: 10,
	}))
	require.NoError(t, store.InsertProduct(ctx, &models.Product{ID: "mug", Name: "Mug", Price: 200, Stock: 3}))
	require.NoError(t, store.InsertCoupon(ctx, &models.Coupon{
		Code: "SAVE100", DiscountType: models.DiscountFixed, DiscountValue: 100,
		ExpiryDate: time.Now().Add(24 * time.Hour), IsActive: true,
	}))

	logger := zap.NewNop()
	products := catalog.NewService(store, logger)
	carts := cart.NewService(store, products, logger)
	coupons := coupon.NewService(store, logger)
	orders := order.NewService(store, products, nil, logger)
	audit := &fakeAuditReader{}
	services := Services{
		Catalog:  products,
		Cart:     carts,
		Coupons:  coupons,
		Orders:   orders,
		Wishlist: wishlist.NewService(store, products, logger),
		Checkout: checkout.NewService(checkout.Config{ShippingFee: 50, VerifyTotals: true}, carts, coupons, orders, products, logger),
		Audit:    audit,
	}

	cfg := &config.Config{Gateway: config.GatewayConfig{Swagger: false}}
	authn := auth.NewAuthenticator("test-secret", "storefront")
	gw := NewGateway(cfg, logger, services, authn)
	gw.SetupRoutes()

	token := func(user, role string) string {
		tok, err := authn.Issue(user, role, time.Hour)
		require.NoError(t, err)
		return tok
	}
	return &testEnv{
		handler:  gw.Handler(),
		store:    store,
		audit:    audit,
		customer: token("u1", auth.RoleCustomer),
		other:    token("u2", auth.RoleCustomer),
		admin:    token("admin-1", auth.RoleAdmin),
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func TestHealthAndRequestID(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAuthBoundary(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", body["message"])

	rec, _ = env.do(t, http.MethodGet, "/api/v1/cart", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = env.do(t, http.MethodGet, "/api/v1/orders", env.customer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin role required", body["message"])

	rec, _ = env.do(t, http.MethodGet, "/api/v1/products/shirt", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetProductIncludesEffectivePrice(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodGet, "/api/v1/products/shirt", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Linen shirt", body["name"])
	assert.Equal(t, 800.0, body["effectivePrice"])
	assert.Equal(t, 1000.0, body["originalPrice"])
	assert.Equal(t, "20% OFF", body["discountLabel"])

	rec, body = env.do(t, http.MethodGet, "/api/v1/products/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found", body["message"])
}

func TestCartRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodGet, "/api/v1/cart", env.customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, body["items"])

	add := map[string]interface{}{"productId": "shirt", "quantity": 2, "size": "M"}
	env.do(t, http.MethodPost, "/api/v1/cart/item", env.customer, add)
	rec, body = env.do(t, http.MethodPost, "/api/v1/cart/item", env.customer, add)
	require.Equal(t, http.StatusOK, rec.Code)
	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	line := items[0].(map[string]interface{})
	assert.Equal(t, 4.0, line["quantity"])
	assert.Equal(t, "shirt-M-defaultcolor", line["cartKey"])

	rec, body = env.do(t, http.MethodPut, "/api/v1/cart/item", env.customer, map[string]interface{}{"cartKey": "shirt-M-defaultcolor", "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Quantity must be at least 1", body["message"])

	rec, _ = env.do(t, http.MethodDelete, "/api/v1/cart/item", env.customer, map[string]interface{}{"cartKey": "shirt-M-defaultcolor"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = env.do(t, http.MethodDelete, "/api/v1/cart", env.customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["items"])

	rec, body = env.do(t, http.MethodPost, "/api/v1/cart/item", env.customer, "not an object")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", body["message"])
}

func TestValidateCoupon(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/v1/coupons/validate-checkout", env.customer,
		map[string]interface{}{"couponCode": "save100", "cartSubtotal": 1000})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SAVE100", body["code"])
	assert.Equal(t, 100.0, body["discountAmount"])
	assert.Equal(t, "Coupon applied successfully", body["message"])

	rec, body = env.do(t, http.MethodPost, "/api/v1/coupons/validate-checkout", env.customer,
		map[string]interface{}{"couponCode": "NOPE", "cartSubtotal": 1000})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Coupon not found", body["message"])

	rec, body = env.do(t, http.MethodPost, "/api/v1/coupons/validate-checkout", env.customer,
		map[string]interface{}{"couponCode": "save100", "cartSubtotal": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cart subtotal must not be negative", body["message"])
}

func TestCheckoutAndOrderLifecycle(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/v1/cart/item", env.customer, map[string]interface{}{"productId": "shirt", "quantity": 1})
	env.do(t, http.MethodPost, "/api/v1/cart/item", env.customer, map[string]interface{}{"productId": "mug", "quantity": 1})

	rec, quote := env.do(t, http.MethodPost, "/api/v1/checkout/quote", env.customer, map[string]interface{}{"couponCode": "SAVE100"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1000.0, quote["subtotal"])
	assert.Equal(t, 950.0, quote["grandTotal"])

	placeOrder := map[string]interface{}{
		"items": []map[string]interface{}{
			{"productId": "shirt", "name": "Linen shirt", "price": 800, "quantity": 1},
			{"productId": "mug", "name": "Mug", "price": 200, "quantity": 1},
		},
		"totalAmount":       950,
		"shippingAddress":   map[string]string{"fullName": "Rahim Uddin", "phone": "01700000000", "address": "House 7", "city": "Dhaka"},
		"paymentMethod":     "cod",
		"orderStatus":       "Pending",
		"appliedCouponCode": "SAVE100",
	}
	rec, created := env.do(t, http.MethodPost, "/api/v1/orders", env.customer, placeOrder)
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID, _ := created["orderId"].(string)
	require.NotEmpty(t, orderID)

	rec, cartBody := env.do(t, http.MethodGet, "/api/v1/cart", env.customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, cartBody["items"])

	rec, _ = env.do(t, http.MethodGet, "/api/v1/my-orders/"+orderID, env.other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, mine := env.do(t, http.MethodGet, "/api/v1/my-orders/"+orderID, env.customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Pending", mine["orderStatus"])
	assert.Equal(t, 950.0, mine["totalAmount"])

	rec, body := env.do(t, http.MethodPut, "/api/v1/orders/"+orderID+"/status", env.admin, map[string]string{"newStatus": "Shipped"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Shipped", body["orderStatus"])

	rec, body = env.do(t, http.MethodPost, "/api/v1/my-orders/"+orderID+"/cancel", env.customer, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["message"], "can no longer be cancelled")

	rec, body = env.do(t, http.MethodPut, "/api/v1/orders/"+orderID+"/status", env.admin, map[string]string{"newStatus": "Delivered"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, body["deliveredAt"])

	p, err := env.store.GetProduct(context.Background(), "mug")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stock)

	rec, body = env.do(t, http.MethodPut, "/api/v1/orders/"+orderID+"/status", env.admin, map[string]string{"newStatus": "Lost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body["message"])

	rec, page := env.do(t, http.MethodGet, "/api/v1/orders?status=Delivered", env.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, page["total"])
}

func TestCreateOrder_TotalMismatchRejected(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/v1/orders", env.customer, map[string]interface{}{
		"items":           []map[string]interface{}{{"productId": "mug", "name": "Mug", "price": 200, "quantity": 1}},
		"totalAmount":     1,
		"shippingAddress": map[string]string{"fullName": "A", "phone": "1", "address": "x", "city": "Dhaka"},
		"paymentMethod":   "cod",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Order total does not match the current prices", body["message"])
}

func TestWishlistRoutes(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 2; i++ {
		rec, body := env.do(t, http.MethodPost, "/api/v1/wishlist/add", env.customer, map[string]string{"productId": "mug"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []interface{}{"mug"}, body["productIds"])
	}

	rec, body := env.do(t, http.MethodPost, "/api/v1/wishlist/remove", env.customer, map[string]string{"productId": "mug"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, body["productIds"])

	rec, _ = env.do(t, http.MethodPost, "/api/v1/wishlist/add", env.customer, map[string]string{"productId": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminCouponAndProductRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec, created := env.do(t, http.MethodPost, "/api/v1/coupons", env.admin, map[string]interface{}{
		"code": "eid25", "discountType": "percentage", "discountValue": 25,
		"expiryDate": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "EID25", created["code"])
	id := created["id"].(string)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/coupons", env.admin, map[string]interface{}{
		"code": "EID25", "discountType": "percentage", "discountValue": 5,
		"expiryDate": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/api/v1/coupons/"+id, env.admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodDelete, "/api/v1/coupons/"+id, env.admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = env.do(t, http.MethodGet, "/api/v1/coupons/"+id, env.admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body := env.do(t, http.MethodPost, "/api/v1/products", env.admin, map[string]interface{}{
		"name": "Cap", "price": 300, "discountType": "fixed", "discountValue": 300,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Fixed discount must be less than the price", body["message"])

	rec, _ = env.do(t, http.MethodPost, "/api/v1/products", env.customer, map[string]interface{}{"name": "Cap", "price": 300})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrderAuditRoute(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.store.InsertOrder(ctx, &models.Order{ID: "order-9", UserID: "u1", OrderStatus: models.StatusPending}))
	env.audit.entries = []*repository.AuditLog{
		{ID: "log-2", Service: "storefront", Action: "order.status_changed", EntityID: "order-9"},
		{ID: "log-1", Service: "storefront", Action: "order.created", EntityID: "order-9"},
	}

	rec, body := env.do(t, http.MethodGet, "/api/v1/orders/order-9/audit", env.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "order-9", body["orderId"])
	assert.Len(t, body["entries"], 2)
	assert.Equal(t, "order-9", env.audit.entityID)
	assert.Equal(t, int64(50), env.audit.limit)

	rec, _ = env.do(t, http.MethodGet, "/api/v1/orders/order-9/audit?limit=500", env.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(200), env.audit.limit)

	rec, _ = env.do(t, http.MethodGet, "/api/v1/orders/order-9/audit?limit=abc", env.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(50), env.audit.limit)

	rec, body = env.do(t, http.MethodGet, "/api/v1/orders/ghost/audit", env.admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", body["message"])

	rec, _ = env.do(t, http.MethodGet, "/api/v1/orders/order-9/audit", env.customer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
