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

func (m *MongoRepository) GetWishlist(ctx context.Context, userID string) (*models.Wishlist, error) {
	var w models.Wishlist
	if err := m.collection(wishlistsCollection).FindOne(ctx, bson.M{"userId": userID}).Decode(&w); err != nil {
		return nil, notFound(err, "Wishlist not found", "find wishlist")
	}
	return normalizeWishlist(&w), nil
}

func (m *MongoRepository) AddToWishlist(ctx context.Context, userID, productID string, now time.Time) (*models.Wishlist, error) {
	update := bson.M{
		"$addToSet":    bson.M{"productIds": productID},
		"$set":         bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{"_id": newID(), "createdAt": now},
	}
	w, err := m.upsertWishlist(ctx, userID, update)
	if mongo.IsDuplicateKeyError(err) {
		// a concurrent first add created the document
		w, err = m.upsertWishlist(ctx, userID, update)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add to wishlist: %w", err)
	}
	return w, nil
}

func (m *MongoRepository) upsertWishlist(ctx context.Context, userID string, update bson.M) (*models.Wishlist, error) {
	var w models.Wishlist
	err := m.collection(wishlistsCollection).FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, after().SetUpsert(true)).Decode(&w)
	if err != nil {
		return nil, err
	}
	return normalizeWishlist(&w), nil
}

func (m *MongoRepository) RemoveFromWishlist(ctx context.Context, userID, productID string, now time.Time) (*models.Wishlist, error) {
	var w models.Wishlist
	err := m.collection(wishlistsCollection).FindOneAndUpdate(ctx,
		bson.M{"userId": userID},
		bson.M{"$pull": bson.M{"productIds": productID}, "$set": bson.M{"updatedAt": now}},
		after(),
	).Decode(&w)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &models.Wishlist{UserID: userID, ProductIDs: []string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to remove from wishlist: %w", err)
	}
	return normalizeWishlist(&w), nil
}

func normalizeWishlist(w *models.Wishlist) *models.Wishlist {
	if w.ProductIDs == nil {
		w.ProductIDs = []string{}
	}
	return w
}
