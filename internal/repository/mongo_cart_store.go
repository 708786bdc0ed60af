package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoCartStore struct {
	collection *mongo.Collection
}

func NewMongoCartStore(db *mongo.Database) *MongoCartStore {
	return &MongoCartStore{
		collection: db.Collection("cart_items"),
	}
}

func (m *MongoCartStore) List(ctx context.Context, userID string) ([]domain.CartLineItem, error) {
	filter := bson.M{"user_id": userID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]domain.CartLineItem, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode cart items: %w", err)
	}
	return items, nil
}

func (m *MongoCartStore) Add(ctx context.Context, item domain.CartLineItem) error {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	_, err := m.collection.InsertOne(ctx, item)
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

func (m *MongoCartStore) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	filter := bson.M{"_id": itemID, "user_id": userID}
	update := bson.M{"$set": bson.M{"quantity": quantity}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update item quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (m *MongoCartStore) Remove(ctx context.Context, userID, itemID string) error {
	filter := bson.M{"_id": itemID, "user_id": userID}

	if _, err := m.collection.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	return nil
}

func (m *MongoCartStore) Clear(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID}

	if _, err := m.collection.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (m *MongoCartStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
