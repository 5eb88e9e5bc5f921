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

// UserFilter narrows List. Zero values match everything.
type UserFilter struct {
	Role models.Role
}

// UserStore is the credential store. Find* methods return ErrNotFound when
// nothing matches.
type UserStore interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByToken(ctx context.Context, token string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) (bson.ObjectID, error)
	Replace(ctx context.Context, id bson.ObjectID, user *models.User) (int64, error)
	Delete(ctx context.Context, id bson.ObjectID) (int64, error)
	DeleteMany(ctx context.Context, ids []bson.ObjectID) (int64, error)
	List(ctx context.Context, filter UserFilter, page, limit int) ([]models.User, int64, error)
	SetRoleCreatedBetween(ctx context.Context, from, to time.Time, role models.Role) (int64, error)
	FindStudentsLastLoginBetween(ctx context.Context, from, to time.Time) ([]models.User, error)
}

type MongoUserStore struct {
	col *mongo.Collection
}

func NewMongoUserStore(db *DB) *MongoUserStore {
	return &MongoUserStore{col: db.OpenCollection(UsersCollection)}
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.col.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *MongoUserStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoUserStore) FindByToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"authToken": token})
}

func (s *MongoUserStore) Insert(ctx context.Context, user *models.User) (bson.ObjectID, error) {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	if _, err := s.col.InsertOne(ctx, user); err != nil {
		return bson.NilObjectID, fmt.Errorf("insert user: %w", err)
	}
	return user.ID, nil
}

// Replace overwrites the whole document and returns the matched count.
func (s *MongoUserStore) Replace(ctx context.Context, id bson.ObjectID, user *models.User) (int64, error) {
	user.ID = id
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": id}, user)
	if err != nil {
		return 0, fmt.Errorf("replace user %s: %w", id.Hex(), err)
	}
	return res.MatchedCount, nil
}

func (s *MongoUserStore) Delete(ctx context.Context, id bson.ObjectID) (int64, error) {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("delete user %s: %w", id.Hex(), err)
	}
	return res.DeletedCount, nil
}

func (s *MongoUserStore) DeleteMany(ctx context.Context, ids []bson.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("delete users: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoUserStore) List(ctx context.Context, filter UserFilter, page, limit int) ([]models.User, int64, error) {
	q := bson.M{}
	if filter.Role != "" {
		q["role"] = filter.Role
	}

	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := s.col.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]models.User, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}

	total, err := s.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return items, total, nil
}

// SetRoleCreatedBetween changes the role of every user created in [from, to]
// and returns the number of modified documents.
func (s *MongoUserStore) SetRoleCreatedBetween(ctx context.Context, from, to time.Time, role models.Role) (int64, error) {
	res, err := s.col.UpdateMany(ctx, bson.M{
		"createdAt": bson.M{"$gte": from, "$lte": to},
	}, bson.M{
		"$set": bson.M{"role": role},
	})
	if err != nil {
		return 0, fmt.Errorf("update roles: %w", err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoUserStore) FindStudentsLastLoginBetween(ctx context.Context, from, to time.Time) ([]models.User, error) {
	cursor, err := s.col.Find(ctx, bson.M{
		"role":      models.RoleStudent,
		"lastLogin": bson.M{"$gte": from, "$lte": to},
	})
	if err != nil {
		return nil, fmt.Errorf("find students: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]models.User, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode students: %w", err)
	}
	return items, nil
}
