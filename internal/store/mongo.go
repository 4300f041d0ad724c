package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"wayfarer/internal/model"
)

// mongoDoc is the stored shape: the itinerary fields plus a creation time
// used for stable list ordering.
type mongoDoc struct {
	model.Itinerary `bson:",inline"`
	CreatedAt       time.Time `bson:"createdAt"`
}

type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &Mongo{client: client, coll: client.Database(database).Collection("itineraries")}, nil
}

func (m *Mongo) Ping(ctx context.Context) error { return m.client.Ping(ctx, nil) }

func (m *Mongo) Close(ctx context.Context) error { return m.client.Disconnect(ctx) }

// Migrate creates the lookup indexes.
func (m *Mongo) Migrate(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}}},
	})
	return err
}

func (m *Mongo) ListItineraries(ctx context.Context, userID *int) ([]model.Itinerary, error) {
	filter := bson.M{}
	if userID != nil {
		filter["userId"] = *userID
	}
	cur, err := m.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()
	out := []model.Itinerary{}
	for cur.Next(ctx) {
		var doc mongoDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		doc.Itinerary.Normalize()
		out = append(out, doc.Itinerary)
	}
	return out, cur.Err()
}

func (m *Mongo) GetItinerary(ctx context.Context, id string) (model.Itinerary, error) {
	var doc mongoDoc
	err := m.coll.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Itinerary{}, ErrNotFound
	}
	if err != nil {
		return model.Itinerary{}, err
	}
	doc.Itinerary.Normalize()
	return doc.Itinerary, nil
}

func (m *Mongo) CreateItinerary(ctx context.Context, in model.NewItinerary) (model.Itinerary, error) {
	it := in.WithID(uuid.New().String())
	it.Normalize()
	if _, err := m.coll.InsertOne(ctx, mongoDoc{Itinerary: it, CreatedAt: time.Now().UTC()}); err != nil {
		return model.Itinerary{}, err
	}
	return it, nil
}

func (m *Mongo) ReplaceItinerary(ctx context.Context, it model.Itinerary) (model.Itinerary, error) {
	it = it.Clone()
	it.Normalize()
	var doc mongoDoc
	err := m.coll.FindOneAndUpdate(ctx, bson.M{"id": it.ID}, bson.M{"$set": bson.M{
		"name":         it.Name,
		"startDate":    it.StartDate,
		"endDate":      it.EndDate,
		"description":  it.Description,
		"destinations": it.Destinations,
	}}, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Itinerary{}, ErrNotFound
	}
	if err != nil {
		return model.Itinerary{}, err
	}
	doc.Itinerary.Normalize()
	return doc.Itinerary, nil
}

func (m *Mongo) DeleteItinerary(ctx context.Context, id string) (model.Itinerary, error) {
	var doc mongoDoc
	err := m.coll.FindOneAndDelete(ctx, bson.M{"id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Itinerary{}, ErrNotFound
	}
	if err != nil {
		return model.Itinerary{}, err
	}
	doc.Itinerary.Normalize()
	return doc.Itinerary, nil
}
