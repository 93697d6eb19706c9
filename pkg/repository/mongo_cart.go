package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (m *MongoRepository) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	var c models.Cart
	err := m.collection(cartsCollection).FindOne(ctx, bson.M{"userId": userID}).Decode(&c)
	if err != nil {
		return nil, notFound(err, "Cart not found", "find cart")
	}
	return normalizeCart(&c), nil
}

// AddCartItem raises the quantity of an existing line or pushes a new one.
// The push is guarded by the cart key so two concurrent adds of the same
// variant cannot create two lines; losing the upsert race retries the
// increment once.
func (m *MongoRepository) AddCartItem(ctx context.Context, userID string, item models.CartItem, now time.Time) (*models.Cart, error) {
	c, err := m.incrementCartItem(ctx, userID, item, now)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	c, err = m.pushCartItem(ctx, userID, item, now)
	if err == nil {
		return c, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	c, err = m.incrementCartItem(ctx, userID, item, now)
	if err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	return c, nil
}

func (m *MongoRepository) incrementCartItem(ctx context.Context, userID string, item models.CartItem, now time.Time) (*models.Cart, error) {
	var c models.Cart
	err := m.collection(cartsCollection).FindOneAndUpdate(ctx,
		bson.M{"userId": userID, "items.cartKey": item.CartKey},
		bson.M{
			"$inc": bson.M{"items.$.quantity": item.Quantity},
			"$set": bson.M{"updatedAt": now},
		},
		after(),
	).Decode(&c)
	if err != nil {
		return nil, err
	}
	return normalizeCart(&c), nil
}

func (m *MongoRepository) pushCartItem(ctx context.Context, userID string, item models.CartItem, now time.Time) (*models.Cart, error) {
	var c models.Cart
	err := m.collection(cartsCollection).FindOneAndUpdate(ctx,
		bson.M{"userId": userID, "items.cartKey": bson.M{"$ne": item.CartKey}},
		bson.M{
			"$push":        bson.M{"items": item},
			"$set":         bson.M{"updatedAt": now},
			"$setOnInsert": bson.M{"_id": newID(), "createdAt": now},
		},
		after().SetUpsert(true),
	).Decode(&c)
	if err != nil {
		return nil, err
	}
	return normalizeCart(&c), nil
}

func (m *MongoRepository) SetCartItemQuantity(ctx context.Context, userID, cartKey string, qty int, now time.Time) (*models.Cart, error) {
	var c models.Cart
	err := m.collection(cartsCollection).FindOneAndUpdate(ctx,
		bson.M{"userId": userID, "items.cartKey": cartKey},
		bson.M{"$set": bson.M{"items.$.quantity": qty, "updatedAt": now}},
		after(),
	).Decode(&c)
	if err != nil {
		return nil, notFound(err, "Cart item not found", "update cart item")
	}
	return normalizeCart(&c), nil
}

func (m *MongoRepository) RemoveCartItem(ctx context.Context, userID, cartKey string, now time.Time) (*models.Cart, error) {
	return m.updateCart(ctx, userID, bson.M{
		"$pull": bson.M{"items": bson.M{"cartKey": cartKey}},
		"$set":  bson.M{"updatedAt": now},
	})
}

func (m *MongoRepository) ClearCart(ctx context.Context, userID string, now time.Time) (*models.Cart, error) {
	return m.updateCart(ctx, userID, bson.M{
		"$set": bson.M{"items": []models.CartItem{}, "updatedAt": now},
	})
}

// updateCart applies update to an existing cart. A user without a cart
// gets an empty one back.
func (m *MongoRepository) updateCart(ctx context.Context, userID string, update bson.M) (*models.Cart, error) {
	var c models.Cart
	err := m.collection(cartsCollection).FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, after()).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.EmptyCart(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	return normalizeCart(&c), nil
}

func normalizeCart(c *models.Cart) *models.Cart {
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	return c
}
