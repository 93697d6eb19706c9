package catalog

import (
	"context"
	"testing"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateAndQuote(t *testing.T) {
	svc := NewService(memory.New(), zap.NewNop())
	ctx := context.Background()

	p, err := svc.Create(ctx, ProductInput{
		Name: " Linen shirt ", Price: 1000, DiscountType: models.DiscountPercentage, DiscountValue: 20, Stock: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Linen shirt", p.Name)

	got, q, err := svc.Quote(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, 800.0, q.EffectivePrice)
	require.NotNil(t, q.OriginalPrice)
	assert.Equal(t, 1000.0, *q.OriginalPrice)
	assert.Equal(t, "20% OFF", q.DiscountLabel)
}

func TestCreate_RejectsBadDiscounts(t *testing.T) {
	svc := NewService(memory.New(), zap.NewNop())
	ctx := context.Background()

	bad := []ProductInput{
		{Name: "", Price: 10},
		{Name: "x", Price: 10, Stock: -1},
		{Name: "x", Price: 100, DiscountType: models.DiscountPercentage, DiscountValue: 100},
		{Name: "x", Price: 100, DiscountType: models.DiscountFixed, DiscountValue: 100},
		{Name: "x", Price: 100, DiscountType: "bogo", DiscountValue: 1},
	}
	for i, in := range bad {
		_, err := svc.Create(ctx, in)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "case %d", i)
	}
}

func TestUpdate_ClearsDiscount(t *testing.T) {
	svc := NewService(memory.New(), zap.NewNop())
	ctx := context.Background()
	p, err := svc.Create(ctx, ProductInput{Name: "Mug", Price: 500, DiscountType: models.DiscountFixed, DiscountValue: 100})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, p.ID, ProductInput{Name: "Mug", Price: 550, DiscountValue: 100})
	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.DiscountValue)

	_, q, err := svc.Quote(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 550.0, q.EffectivePrice)
	assert.Nil(t, q.OriginalPrice)

	_, err = svc.Update(ctx, "missing", ProductInput{Name: "Mug", Price: 1})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDecrementStock_HasNoFloor(t *testing.T) {
	store := memory.New()
	svc := NewService(store, zap.NewNop())
	ctx := context.Background()
	p, err := svc.Create(ctx, ProductInput{Name: "Mug", Price: 500, Stock: 1})
	require.NoError(t, err)

	require.NoError(t, svc.DecrementStock(ctx, p.ID, 3))
	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, -2, got.Stock)

	assert.True(t, apperr.Is(svc.DecrementStock(ctx, p.ID, 0), apperr.KindValidation))
	assert.True(t, apperr.Is(svc.DecrementStock(ctx, "missing", 1), apperr.KindNotFound))
}
