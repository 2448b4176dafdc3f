package auth

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoPendingStore struct {
	coll *mongo.Collection
}

// NewMongoPendingStore wires the pending-signups collection and ensures a
// unique email index plus the TTL index that garbage-collects abandoned
// signups after PendingTTL.
func NewMongoPendingStore(ctx context.Context, cli *mongo.Client, db, coll string) (*MongoPendingStore, error) {
	c := cli.Database(db).Collection(coll)

	_, err := c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	_, err = c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(PendingTTL / time.Second)),
	})
	if err != nil {
		return nil, err
	}

	return &MongoPendingStore{coll: c}, nil
}

type pendingDoc struct {
	Name        string    `bson:"name"`
	Email       string    `bson:"email"`
	PassHash    string    `bson:"pass_hash"`
	OTP         string    `bson:"otp"`
	Attempts    int       `bson:"attempts"`
	LastOTPSent time.Time `bson:"lastOtpSent"`
	CreatedAt   time.Time `bson:"createdAt"`
}

func (s *MongoPendingStore) Upsert(p *PendingUser) error {
	now := time.Now().UTC()
	_, err := s.coll.UpdateOne(
		context.Background(),
		bson.M{"email": normalizeEmail(p.Email)},
		bson.M{"$set": bson.M{
			"name":        p.Name,
			"pass_hash":   p.PassHash,
			"otp":         p.OTP,
			"attempts":    0,
			"lastOtpSent": now,
			"createdAt":   now, // resets the TTL clock on re-registration
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoPendingStore) FindByEmail(email string) (*PendingUser, error) {
	var doc pendingDoc
	err := s.coll.FindOne(context.Background(), bson.M{"email": normalizeEmail(email)}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrPendingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &PendingUser{
		Name:        doc.Name,
		Email:       doc.Email,
		PassHash:    doc.PassHash,
		OTP:         doc.OTP,
		Attempts:    doc.Attempts,
		LastOTPSent: doc.LastOTPSent,
		CreatedAt:   doc.CreatedAt,
	}, nil
}

func (s *MongoPendingStore) RefreshOTP(email, code string) error {
	now := time.Now().UTC()
	res, err := s.coll.UpdateOne(
		context.Background(),
		bson.M{"email": normalizeEmail(email)},
		bson.M{"$set": bson.M{
			"otp":         code,
			"attempts":    0,
			"lastOtpSent": now,
			"createdAt":   now,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPendingNotFound
	}
	return nil
}

func (s *MongoPendingStore) RecordAttempt(email string) (int, error) {
	var doc pendingDoc
	err := s.coll.FindOneAndUpdate(
		context.Background(),
		bson.M{"email": normalizeEmail(email)},
		bson.M{"$inc": bson.M{"attempts": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return 0, ErrPendingNotFound
	}
	if err != nil {
		return 0, err
	}
	return doc.Attempts, nil
}

func (s *MongoPendingStore) Delete(email string) error {
	_, err := s.coll.DeleteOne(context.Background(), bson.M{"email": normalizeEmail(email)})
	return err
}
