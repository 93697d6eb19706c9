package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoRepository) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return m.findCoupon(ctx, bson.M{"code": code})
}

func (m *MongoRepository) GetCoupon(ctx context.Context, id string) (*models.Coupon, error) {
	return m.findCoupon(ctx, bson.M{"_id": id})
}

func (m *MongoRepository) findCoupon(ctx context.Context, filter bson.M) (*models.Coupon, error) {
	var c models.Coupon
	if err := m.collection(couponsCollection).FindOne(ctx, filter).Decode(&c); err != nil {
		return nil, notFound(err, "Coupon not found", "find coupon")
	}
	return &c, nil
}

func (m *MongoRepository) ListCoupons(ctx context.Context) ([]*models.Coupon, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.collection(couponsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer cursor.Close(ctx)

	coupons := []*models.Coupon{}
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, fmt.Errorf("failed to decode coupons: %w", err)
	}
	return coupons, nil
}

func (m *MongoRepository) InsertCoupon(ctx context.Context, c *models.Coupon) error {
	if c.ID == "" {
		c.ID = newID()
	}
	if _, err := m.collection(couponsCollection).InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Duplicate("Coupon code already exists")
		}
		return fmt.Errorf("failed to insert coupon: %w", err)
	}
	return nil
}

// UpdateCoupon never touches usageCount or the redemption ledger.
func (m *MongoRepository) UpdateCoupon(ctx context.Context, c *models.Coupon) error {
	res, err := m.collection(couponsCollection).UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{
		"$set": bson.M{
			"code":              c.Code,
			"discountType":      c.DiscountType,
			"discountValue":     c.DiscountValue,
			"expiryDate":        c.ExpiryDate,
			"minPurchaseAmount": c.MinPurchaseAmount,
			"usageLimit":        c.UsageLimit,
			"isActive":          c.IsActive,
			"updatedAt":         c.UpdatedAt,
		},
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Duplicate("Coupon code already exists")
		}
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("Coupon not found")
	}
	return nil
}

func (m *MongoRepository) DeleteCoupon(ctx context.Context, id string) error {
	res, err := m.collection(couponsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("Coupon not found")
	}
	return nil
}

// IncrementCouponUsage is one conditional update: it matches only while the
// order is not yet in the ledger and the limit has room.
func (m *MongoRepository) IncrementCouponUsage(ctx context.Context, id, orderID string, now time.Time) (bool, error) {
	filter := bson.M{
		"_id":              id,
		"redeemedOrderIds": bson.M{"$ne": orderID},
		"$or": bson.A{
			bson.M{"usageLimit": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$usageCount", "$usageLimit"}}},
		},
	}
	update := bson.M{
		"$inc":  bson.M{"usageCount": 1},
		"$push": bson.M{"redeemedOrderIds": orderID},
		"$set":  bson.M{"updatedAt": now},
	}

	res, err := m.collection(couponsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to redeem coupon: %w", err)
	}
	return res.ModifiedCount == 1, nil
}
