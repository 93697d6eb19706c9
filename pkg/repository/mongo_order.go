package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoRepository) InsertOrder(ctx context.Context, o *models.Order) error {
	if o.ID == "" {
		o.ID = newID()
	}
	if _, err := m.collection(ordersCollection).InsertOne(ctx, o); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (m *MongoRepository) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := m.collection(ordersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, notFound(err, "Order not found", "find order")
	}
	return &o, nil
}

func (m *MongoRepository) ListOrders(ctx context.Context, f models.OrderFilter) ([]*models.Order, int64, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if f.Status != "" {
		filter["orderStatus"] = f.Status
	}

	collection := m.collection(ordersCollection)
	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.PageSize > 0 {
		opts.SetSkip(int64(f.Skip())).SetLimit(int64(f.PageSize))
	}
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []*models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, total, nil
}

// SetOrderStatus is a single pipeline update so deliveredAt is stamped only
// on the transition into Delivered, judged against the stored status.
func (m *MongoRepository) SetOrderStatus(ctx context.Context, id string, status models.OrderStatus, now time.Time) (*models.Order, error) {
	set := bson.D{
		{Key: "orderStatus", Value: status},
		{Key: "updatedAt", Value: now},
	}
	if status == models.StatusDelivered {
		set = append(set, bson.E{Key: "deliveredAt", Value: bson.M{
			"$cond": bson.A{
				bson.M{"$eq": bson.A{"$orderStatus", models.StatusDelivered}},
				"$deliveredAt",
				now,
			},
		}})
	}

	var previous models.Order
	err := m.collection(ordersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		mongo.Pipeline{{{Key: "$set", Value: set}}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&previous)
	if err != nil {
		return nil, notFound(err, "Order not found", "update order status")
	}
	return &previous, nil
}

func (m *MongoRepository) CancelOrder(ctx context.Context, id, userID string, from []models.OrderStatus, now time.Time) (*models.Order, error) {
	var o models.Order
	err := m.collection(ordersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": id, "userId": userID, "orderStatus": bson.M{"$in": from}},
		bson.M{"$set": bson.M{"orderStatus": models.StatusCancelled, "updatedAt": now}},
		after(),
	).Decode(&o)
	if err != nil {
		return nil, notFound(err, "Order not found", "cancel order")
	}
	return &o, nil
}
