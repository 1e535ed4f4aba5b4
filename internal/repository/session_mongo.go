package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ahmednasr/repomind/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSessionStore persists sessions in the "sessions" collection.
//
// Expected schema:
//
//	sessions
//	  { _id: uuid, context, metadata, messages, token_count, created_at, created_date }
//
// created_date duplicates created_at as a BSON date so a TTL index can expire
// documents server-side. The TTL monitor only runs about once a minute, so
// reads check the age as well.
type MongoSessionStore struct {
	col *mongo.Collection
	ttl time.Duration
	now func() time.Time
}

type sessionDocument struct {
	ID             string `bson:"_id"`
	models.Session `bson:",inline"`
	CreatedDate    time.Time `bson:"created_date"`
}

// NewMongoSessionStore returns a store on the "sessions" collection of db.
func NewMongoSessionStore(db *mongo.Database) *MongoSessionStore {
	return &MongoSessionStore{
		col: db.Collection("sessions"),
		ttl: SessionTTL,
		now: time.Now,
	}
}

// EnsureIndexes creates the TTL index on created_date if it is missing.
func (r *MongoSessionStore) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_date", Value: 1}},
		Options: options.Index().
			SetName("session_ttl").
			SetExpireAfterSeconds(int32(r.ttl.Seconds())),
	})
	if err != nil {
		return fmt.Errorf("create session ttl index: %w", err)
	}
	return nil
}

// Create inserts sess under a fresh id.
func (r *MongoSessionStore) Create(ctx context.Context, sess *models.Session) (string, error) {
	id := uuid.NewString()
	doc := sessionDocument{
		ID:          id,
		Session:     *sess,
		CreatedDate: sess.Created(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		log.Printf("[Session Store] Error inserting session: %v", err)
		return "", err
	}
	return id, nil
}

// Get fetches a live session by id.
func (r *MongoSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	var doc sessionDocument
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		log.Printf("[Session Store] Error finding session %s: %v", id, err)
		return nil, err
	}
	if doc.Session.Expired(r.now(), r.ttl) {
		return nil, models.ErrSessionNotFound
	}
	if doc.Session.Messages == nil {
		doc.Session.Messages = []models.Message{}
	}
	return &doc.Session, nil
}

// Set overwrites the mutable fields of an existing session. created_at and
// created_date are never touched, so the expiry clock keeps running.
func (r *MongoSessionStore) Set(ctx context.Context, id string, sess *models.Session) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{
			"_id":          id,
			"created_date": bson.M{"$gte": r.now().Add(-r.ttl)},
		},
		bson.M{"$set": bson.M{
			"context":     sess.Context,
			"metadata":    sess.Metadata,
			"messages":    sess.Messages,
			"token_count": sess.TokenCount,
		}},
	)
	if err != nil {
		log.Printf("[Session Store] Error updating session %s: %v", id, err)
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

// Append pushes msgs onto the stored history in a single update.
func (r *MongoSessionStore) Append(ctx context.Context, id string, msgs ...models.Message) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{
			"_id":          id,
			"created_date": bson.M{"$gte": r.now().Add(-r.ttl)},
		},
		bson.M{"$push": bson.M{"messages": bson.M{"$each": msgs}}},
	)
	if err != nil {
		log.Printf("[Session Store] Error appending to session %s: %v", id, err)
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

// Delete removes id. Deleting an unknown id is not an error.
func (r *MongoSessionStore) Delete(ctx context.Context, id string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoSessionStore) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (r *MongoSessionStore) Close(ctx context.Context) error {
	return r.col.Database().Client().Disconnect(ctx)
}
