package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
	"github.com/mern-eats/my-user-gateway/internal/core/ports"
)

const provisioningCollection = "provisioning_events"

// ProvisioningRepository stores one document per provisioning attempt.
type ProvisioningRepository struct {
	coll *mongo.Collection
}

var _ ports.ProvisioningRepository = (*ProvisioningRepository)(nil)

func NewProvisioningRepository(db *mongo.Database) *ProvisioningRepository {
	return &ProvisioningRepository{coll: db.Collection(provisioningCollection)}
}

type provisioningDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	JobID      string             `bson:"job_id"`
	SessionID  string             `bson:"session_id"`
	Subject    string             `bson:"auth0_id"`
	Email      string             `bson:"email"`
	Outcome    string             `bson:"outcome"`
	Error      string             `bson:"error,omitempty"`
	DurationMs int64              `bson:"duration_ms"`
	CreatedAt  time.Time          `bson:"created_at"`
}

// EnsureIndexes creates the lookup index used by ListBySubject.
func (r *ProvisioningRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "auth0_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create provisioning index: %w", err)
	}
	return nil
}

func (r *ProvisioningRepository) Record(ctx context.Context, rec *domain.ProvisioningRecord) error {
	res, err := r.coll.InsertOne(ctx, toDoc(rec))
	if err != nil {
		return fmt.Errorf("insert provisioning record: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = oid.Hex()
	}
	return nil
}

// ListBySubject returns up to limit records for subject, newest first.
func (r *ProvisioningRepository) ListBySubject(ctx context.Context, subject string, limit int64) ([]*domain.ProvisioningRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, bson.M{"auth0_id": subject}, opts)
	if err != nil {
		return nil, fmt.Errorf("find provisioning records: %w", err)
	}
	defer cur.Close(ctx)

	var docs []provisioningDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode provisioning records: %w", err)
	}

	out := make([]*domain.ProvisioningRecord, 0, len(docs))
	for i := range docs {
		out = append(out, fromDoc(&docs[i]))
	}
	return out, nil
}

func toDoc(rec *domain.ProvisioningRecord) provisioningDoc {
	return provisioningDoc{
		JobID:      rec.JobID,
		SessionID:  rec.SessionID,
		Subject:    rec.Subject,
		Email:      rec.Email,
		Outcome:    string(rec.Outcome),
		Error:      rec.Error,
		DurationMs: rec.Duration.Milliseconds(),
		CreatedAt:  rec.CreatedAt.UTC(),
	}
}

func fromDoc(d *provisioningDoc) *domain.ProvisioningRecord {
	return &domain.ProvisioningRecord{
		ID:        d.ID.Hex(),
		JobID:     d.JobID,
		SessionID: d.SessionID,
		Subject:   d.Subject,
		Email:     d.Email,
		Outcome:   domain.ProvisioningOutcome(d.Outcome),
		Error:     d.Error,
		Duration:  time.Duration(d.DurationMs) * time.Millisecond,
		CreatedAt: d.CreatedAt.UTC(),
	}
}
