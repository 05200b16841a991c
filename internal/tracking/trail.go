package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/angelmondragon/mealbridge-backend/pkg/types"
)

// Breadcrumb is one recorded courier position.
type Breadcrumb struct {
	OrderID    uuid.UUID            `json:"-"`
	CourierID  uuid.UUID            `json:"courierId"`
	Location   types.GeographyPoint `json:"location"`
	RecordedAt time.Time            `json:"recordedAt"`
}

// TrailStore keeps the append-only breadcrumb history of a delivery.
type TrailStore interface {
	Append(ctx context.Context, crumb Breadcrumb) error
	Recent(ctx context.Context, orderID uuid.UUID, limit int) ([]Breadcrumb, error)
}

type breadcrumbDocument struct {
	OrderID    string             `bson:"orderId"`
	CourierID  string             `bson:"courierId"`
	Location   types.GeoJSONPoint `bson:"location"`
	RecordedAt time.Time          `bson:"recordedAt"`
}

// MongoTrail stores breadcrumbs in the delivery_locations collection.
type MongoTrail struct {
	coll *mongo.Collection
}

// NewMongoTrail returns a nil TrailStore when coll is nil, which disables the trail.
func NewMongoTrail(coll *mongo.Collection) TrailStore {
	if coll == nil {
		return nil
	}
	return &MongoTrail{coll: coll}
}

func (t *MongoTrail) Append(ctx context.Context, crumb Breadcrumb) error {
	doc := breadcrumbDocument{
		OrderID:    crumb.OrderID.String(),
		CourierID:  crumb.CourierID.String(),
		Location:   crumb.Location.GeoJSON(),
		RecordedAt: crumb.RecordedAt.UTC(),
	}
	if _, err := t.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert breadcrumb: %w", err)
	}
	return nil
}

// Recent returns up to limit breadcrumbs, newest first.
func (t *MongoTrail) Recent(ctx context.Context, orderID uuid.UUID, limit int) ([]Breadcrumb, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "recordedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := t.coll.Find(ctx, bson.M{"orderId": orderID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("find breadcrumbs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []breadcrumbDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode breadcrumbs: %w", err)
	}

	crumbs := make([]Breadcrumb, 0, len(docs))
	for _, doc := range docs {
		courierID, _ := uuid.Parse(doc.CourierID)
		crumbs = append(crumbs, Breadcrumb{
			OrderID:   orderID,
			CourierID: courierID,
			Location: types.GeographyPoint{
				Lat: doc.Location.Coordinates[1],
				Lng: doc.Location.Coordinates[0],
			},
			RecordedAt: doc.RecordedAt.UTC(),
		})
	}
	return crumbs, nil
}
