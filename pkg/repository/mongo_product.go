package repository

import (
	"context"
	"fmt"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (m *MongoRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := m.collection(productsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		return nil, notFound(err, "Product not found", "find product")
	}
	return &p, nil
}

func (m *MongoRepository) InsertProduct(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if _, err := m.collection(productsCollection).InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Duplicate("Product already exists")
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (m *MongoRepository) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := m.collection(productsCollection).ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("Product not found")
	}
	return nil
}

// DecrementStock lowers stock in a single $inc. There is no floor.
func (m *MongoRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	res, err := m.collection(productsCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"stock": -qty}})
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("Product not found")
	}
	return nil
}
