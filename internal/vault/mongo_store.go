package vault

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	coll   *mongo.Collection
	logger *log.Logger
}

// NewMongoStore wires the vaults collection on an already-connected client
// and ensures the owner index used by listings.
func NewMongoStore(ctx context.Context, cli *mongo.Client, db, coll string, logger *log.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = log.Default()
	}
	c := cli.Database(db).Collection(coll)

	_, err := c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}},
	})
	if err != nil {
		return nil, err
	}

	return &MongoStore{coll: c, logger: logger}, nil
}

type recordDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	User            primitive.ObjectID `bson:"user"`
	Service         string             `bson:"service"`
	UsernameOrEmail string             `bson:"usernameOrEmail"`
	Password        string             `bson:"password"`
	IV              string             `bson:"iv"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

func (d recordDoc) record() Record {
	return Record{
		ID:              d.ID.Hex(),
		OwnerID:         d.User.Hex(),
		Service:         d.Service,
		UsernameOrEmail: d.UsernameOrEmail,
		Password:        d.Password,
		IV:              d.IV,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// ownerFilter builds the compound (id, owner) predicate. A malformed id is
// treated as not-found rather than an error: from the caller's point of view
// an id that cannot exist and an id that does not exist are the same thing.
func ownerFilter(id, ownerID string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	uid, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, ErrNotFound
	}
	return bson.M{"_id": oid, "user": uid}, nil
}

func (s *MongoStore) Create(ctx context.Context, ownerID string, f Fields) (*Record, error) {
	uid, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	doc := recordDoc{
		User:            uid,
		Service:         f.Service,
		UsernameOrEmail: f.UsernameOrEmail,
		Password:        f.Password,
		IV:              f.IV,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	rec := doc.record()
	return &rec, nil
}

func (s *MongoStore) ListByOwner(ctx context.Context, ownerID string) ([]Record, error) {
	uid, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, err
	}
	cur, err := s.coll.Find(ctx, bson.M{"user": uid})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Record
	for cur.Next(ctx) {
		var doc recordDoc
		if err := cur.Decode(&doc); err != nil {
			// same per-entry isolation as decrypt failures: skip, but say so
			s.logger.Printf("skipping undecodable vault record: %v", err)
			continue
		}
		out = append(out, doc.record())
	}
	return out, cur.Err()
}

func (s *MongoStore) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*Record, error) {
	filter, err := ownerFilter(id, ownerID)
	if err != nil {
		return nil, err
	}
	var doc recordDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec := doc.record()
	return &rec, nil
}

// UpdateByIDAndOwner replaces service, identity, ciphertext and iv in one
// atomic find-and-modify. There is no separate read+write, so concurrent
// updates to the same record cannot interleave into a split-field state.
func (s *MongoStore) UpdateByIDAndOwner(ctx context.Context, id, ownerID string, f Fields) (*Record, error) {
	filter, err := ownerFilter(id, ownerID)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{
		"service":         f.Service,
		"usernameOrEmail": f.UsernameOrEmail,
		"password":        f.Password,
		"iv":              f.IV,
		"updatedAt":       time.Now().UTC(),
	}}
	var doc recordDoc
	err = s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec := doc.record()
	return &rec, nil
}

func (s *MongoStore) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error {
	filter, err := ownerFilter(id, ownerID)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
