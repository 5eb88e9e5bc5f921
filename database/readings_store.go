package database

import (
	"context"
	"fmt"
	"time"

	"github.com/stationlab/weatherapi/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ReadingFilter narrows List. Nil bounds are open.
type ReadingFilter struct {
	DeviceName string
	From       *time.Time
	To         *time.Time
}

type ReadingStore interface {
	Insert(ctx context.Context, reading *models.Reading) (bson.ObjectID, error)
	InsertMany(ctx context.Context, readings []models.Reading) ([]bson.ObjectID, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Reading, error)
	FindAt(ctx context.Context, deviceName string, at time.Time) (*models.Reading, error)
	List(ctx context.Context, filter ReadingFilter, page, limit int) ([]models.Reading, int64, error)
	MaxPrecipitation(ctx context.Context, deviceName string, since time.Time) (*models.Reading, error)
	MaxTemperatureByDevice(ctx context.Context, from, to time.Time) ([]models.StationMax, error)
	Replace(ctx context.Context, id bson.ObjectID, reading *models.Reading) (int64, error)
	SetPrecipitation(ctx context.Context, id bson.ObjectID, value float64) (int64, error)
	Delete(ctx context.Context, id bson.ObjectID) (int64, error)
}

type MongoReadingStore struct {
	col *mongo.Collection
}

func NewMongoReadingStore(db *DB) *MongoReadingStore {
	return &MongoReadingStore{col: db.OpenCollection(ReadingsCollection)}
}

func (s *MongoReadingStore) Insert(ctx context.Context, reading *models.Reading) (bson.ObjectID, error) {
	if reading.ID.IsZero() {
		reading.ID = bson.NewObjectID()
	}
	if _, err := s.col.InsertOne(ctx, reading); err != nil {
		return bson.NilObjectID, fmt.Errorf("insert reading: %w", err)
	}
	return reading.ID, nil
}

func (s *MongoReadingStore) InsertMany(ctx context.Context, readings []models.Reading) ([]bson.ObjectID, error) {
	ids := make([]bson.ObjectID, len(readings))
	for i := range readings {
		if readings[i].ID.IsZero() {
			readings[i].ID = bson.NewObjectID()
		}
		ids[i] = readings[i].ID
	}
	if _, err := s.col.InsertMany(ctx, readings); err != nil {
		return nil, fmt.Errorf("insert readings: %w", err)
	}
	return ids, nil
}

func (s *MongoReadingStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.Reading, error) {
	var r models.Reading
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *MongoReadingStore) FindAt(ctx context.Context, deviceName string, at time.Time) (*models.Reading, error) {
	var r models.Reading
	if err := s.col.FindOne(ctx, bson.M{"deviceName": deviceName, "time": at}).Decode(&r); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func readingQuery(f ReadingFilter) bson.M {
	q := bson.M{}
	if f.DeviceName != "" {
		q["deviceName"] = f.DeviceName
	}
	if f.From != nil || f.To != nil {
		rng := bson.M{}
		if f.From != nil {
			rng["$gte"] = *f.From
		}
		if f.To != nil {
			rng["$lte"] = *f.To
		}
		q["time"] = rng
	}
	return q
}

func (s *MongoReadingStore) List(ctx context.Context, filter ReadingFilter, page, limit int) ([]models.Reading, int64, error) {
	q := readingQuery(filter)
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "time", Value: -1}})

	cursor, err := s.col.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list readings: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]models.Reading, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode readings: %w", err)
	}

	total, err := s.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count readings: %w", err)
	}
	return items, total, nil
}

// MaxPrecipitation returns the reading with the highest precipitation for a
// device since the given time.
func (s *MongoReadingStore) MaxPrecipitation(ctx context.Context, deviceName string, since time.Time) (*models.Reading, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "precipitation", Value: -1}, {Key: "time", Value: -1}})
	var r models.Reading
	err := s.col.FindOne(ctx, bson.M{
		"deviceName": deviceName,
		"time":       bson.M{"$gte": since},
	}, opts).Decode(&r)
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// MaxTemperatureByDevice groups the readings in [from, to] by device and
// keeps the hottest one of each, ordered by device name.
func (s *MongoReadingStore) MaxTemperatureByDevice(ctx context.Context, from, to time.Time) ([]models.StationMax, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"time": bson.M{"$gte": from, "$lte": to}}}},
		{{Key: "$sort", Value: bson.D{{Key: "temperature", Value: -1}, {Key: "time", Value: -1}}}},
		{{Key: "$group", Value: bson.M{
			"_id":         "$deviceName",
			"temperature": bson.M{"$first": "$temperature"},
			"time":        bson.M{"$first": "$time"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate max temperature: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]models.StationMax, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode max temperature: %w", err)
	}
	return out, nil
}

func (s *MongoReadingStore) Replace(ctx context.Context, id bson.ObjectID, reading *models.Reading) (int64, error) {
	reading.ID = id
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": id}, reading)
	if err != nil {
		return 0, fmt.Errorf("replace reading %s: %w", id.Hex(), err)
	}
	return res.MatchedCount, nil
}

func (s *MongoReadingStore) SetPrecipitation(ctx context.Context, id bson.ObjectID, value float64) (int64, error) {
	res, err := s.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"precipitation": value}})
	if err != nil {
		return 0, fmt.Errorf("update reading %s: %w", id.Hex(), err)
	}
	return res.MatchedCount, nil
}

func (s *MongoReadingStore) Delete(ctx context.Context, id bson.ObjectID) (int64, error) {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("delete reading %s: %w", id.Hex(), err)
	}
	return res.DeletedCount, nil
}
