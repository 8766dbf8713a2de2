package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const EventsColName = "events"

var ErrPersistenceFailed = errors.New("persistence failed")

// EventDocument is an event record persisted off-chain after a verified
// creation-fee payment. The caller's event data is kept as sent in Fields;
// only the title is required. The remaining struct fields are set by the
// server and win over caller keys of the same name.
type EventDocument struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty"`
	Title     string                 `bson:"title" validate:"required,max=200"`
	Owner     string                 `bson:"owner" validate:"required,eth_addr"`
	OrderID   string                 `bson:"order_id"`
	PaymentID string                 `bson:"payment_id"`
	CreatedAt time.Time              `bson:"created_at"`
	Fields    map[string]interface{} `bson:",inline"`
}

// reservedKeys are the json and bson names of the server-owned fields.
var reservedKeys = []string{
	"_id", "id", "title", "owner",
	"orderId", "order_id", "paymentId", "payment_id", "createdAt", "created_at",
}

// NewEventDocument builds a document from caller-supplied event data. A
// title that is not a string is left empty and fails validation.
func NewEventDocument(data map[string]interface{}) EventDocument {
	doc := EventDocument{Fields: make(map[string]interface{}, len(data))}
	for k, v := range data {
		doc.Fields[k] = v
	}
	doc.Title, _ = data["title"].(string)
	for _, k := range reservedKeys {
		delete(doc.Fields, k)
	}
	return doc
}

// MarshalJSON flattens Fields next to the server-owned fields.
func (d EventDocument) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(d.Fields)+6)
	for k, v := range d.Fields {
		out[k] = v
	}
	out["_id"] = d.ID
	out["title"] = d.Title
	out["owner"] = d.Owner
	out["orderId"] = d.OrderID
	out["paymentId"] = d.PaymentID
	out["createdAt"] = d.CreatedAt
	return json.Marshal(out)
}

type EventDocsRepo interface {
	InsertEvent(ctx context.Context, doc *EventDocument) (*EventDocument, bool, error)
	ListEventsByOwner(ctx context.Context, owner string) ([]*EventDocument, error)
	DeleteEvent(ctx context.Context, id primitive.ObjectID, owner string) (bool, error)
	EnsureIndexes(ctx context.Context) error
}

func (d *EventDocument) BeforeCreate() {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	d.Owner = NormalizeAddress(d.Owner)
}

// EnsureIndexes creates the uniqueness guard on (order_id, payment_id) and the owner lookup index.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "order_id", Value: 1},
				{Key: "payment_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("order_payment_unique"),
		},
		{
			Keys: bson.D{
				{Key: "owner", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("owner_created_at_idx"),
		},
	}

	if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("error creating indexes: %v", err)
	}
	return nil
}

// InsertEvent stores doc. When a document with the same order and payment ids
// already exists, that document is returned with created=false.
func (mdb *MongodbRepo) InsertEvent(ctx context.Context, doc *EventDocument) (*EventDocument, bool, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	doc.BeforeCreate()

	_, err = col.InsertOne(ctx, doc)
	if err == nil {
		return doc, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, false, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	var existing EventDocument
	filter := bson.M{"order_id": doc.OrderID, "payment_id": doc.PaymentID}
	if err := col.FindOne(ctx, filter).Decode(&existing); err != nil {
		return nil, false, fmt.Errorf("%w: loading existing event: %v", ErrPersistenceFailed, err)
	}
	return &existing, false, nil
}

// ListEventsByOwner returns every document when owner is empty.
func (mdb *MongodbRepo) ListEventsByOwner(ctx context.Context, owner string) ([]*EventDocument, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	filter := bson.M{}
	if owner != "" {
		filter["owner"] = NormalizeAddress(owner)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding events: %v", err)
	}
	defer cursor.Close(ctx)

	events := []*EventDocument{}
	for cursor.Next(ctx) {
		var doc EventDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding event: %v", err)
		}
		events = append(events, &doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}
	return events, nil
}

// DeleteEvent removes the document only when it belongs to owner.
func (mdb *MongodbRepo) DeleteEvent(ctx context.Context, id primitive.ObjectID, owner string) (bool, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return false, fmt.Errorf("error getting collection: %v", err)
	}

	res, err := col.DeleteOne(ctx, bson.M{"_id": id, "owner": NormalizeAddress(owner)})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return res.DeletedCount > 0, nil
}
