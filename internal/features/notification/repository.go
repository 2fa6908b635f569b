package notification

import (
	"context"
	"time"

	"go-claims/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	// ListByCustomer returns newest first. An empty status matches all.
	ListByCustomer(ctx context.Context, customerID string, status Status) ([]Notification, error)
	// MarkRead reports false when no notification with that id belongs to the customer.
	MarkRead(ctx context.Context, id primitive.ObjectID, customerID string) (bool, error)
}

type NotificationRepositoryImpl struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *database.MongodbDB) NotificationRepository {
	return &NotificationRepositoryImpl{
		collection: db.DB.Collection("notifications"),
	}
}

func (r *NotificationRepositoryImpl) Create(ctx context.Context, n *Notification) error {
	result, err := r.collection.InsertOne(ctx, n)
	if err != nil {
		return err
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		n.ID = id
	}
	return nil
}

func (r *NotificationRepositoryImpl) ListByCustomer(ctx context.Context, customerID string, status Status) ([]Notification, error) {
	filter := bson.M{"customer_id": customerID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "notification_date", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepositoryImpl) MarkRead(ctx context.Context, id primitive.ObjectID, customerID string) (bool, error) {
	now := time.Now().UTC()
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "customer_id": customerID},
		bson.M{
			"$set": bson.M{
				"status":  StatusRead,
				"read_at": now,
			},
		},
	)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}
