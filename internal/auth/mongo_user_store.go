package auth

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoUserStore struct {
	coll *mongo.Collection
}

// NewMongoUserStore wires the users collection on an already-connected
// client and ensures the unique email index.
func NewMongoUserStore(ctx context.Context, cli *mongo.Client, db, coll string) (*MongoUserStore, error) {
	c := cli.Database(db).Collection(coll)

	_, err := c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}

	return &MongoUserStore{coll: c}, nil
}

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	PassHash  string             `bson:"pass_hash"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// Add inserts a new user and returns it with the assigned id.
func (s *MongoUserStore) Add(u *User) (*User, error) {
	doc := userDoc{
		Name:      u.Name,
		Email:     normalizeEmail(u.Email),
		PassHash:  u.PassHash,
		CreatedAt: time.Now().UTC(),
	}
	res, err := s.coll.InsertOne(context.Background(), doc)
	if wex, ok := err.(mongo.WriteException); ok {
		for _, we := range wex.WriteErrors {
			if we.Code == 11000 { // duplicate key
				return nil, ErrUserExists
			}
		}
	}
	if err != nil {
		return nil, err
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.user(), nil
}

func (s *MongoUserStore) FindByEmail(email string) (*User, error) {
	return s.findOne(bson.M{"email": normalizeEmail(email)})
}

func (s *MongoUserStore) FindByID(id string) (*User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.findOne(bson.M{"_id": oid})
}

func (s *MongoUserStore) findOne(filter interface{}) (*User, error) {
	var doc userDoc
	err := s.coll.FindOne(context.Background(), filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.user(), nil
}

func (d userDoc) user() *User {
	return &User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		PassHash:  d.PassHash,
		CreatedAt: d.CreatedAt,
	}
}
