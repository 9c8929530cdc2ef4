package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eduvisory/consulting-platform/internal/core/domain"
	"github.com/eduvisory/consulting-platform/internal/core/ports"
)

const collectionLeads = "leads"

type LeadRepository struct {
	col *mongo.Collection
}

func NewLeadRepository(db *mongo.Database) *LeadRepository {
	return &LeadRepository{col: db.Collection(collectionLeads)}
}

type leadDoc struct {
	ID                   primitive.ObjectID        `bson:"_id,omitempty"`
	ClientID             string                    `bson:"client_id"`
	AssignedConsultantID string                    `bson:"assigned_consultant_id,omitempty"`
	Status               domain.LeadStatus         `bson:"status"`
	CreatedAt            time.Time                 `bson:"created_at"`
	UpdatedAt            time.Time                 `bson:"updated_at"`
	History              []domain.LeadHistoryEntry `bson:"history"`
}

func (d leadDoc) toDomain() *domain.Lead {
	return &domain.Lead{
		ID:                   d.ID.Hex(),
		ClientID:             d.ClientID,
		AssignedConsultantID: d.AssignedConsultantID,
		Status:               d.Status,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
		History:              d.History,
	}
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := leadDoc{
		ID:                   primitive.NewObjectID(),
		ClientID:             lead.ClientID,
		AssignedConsultantID: lead.AssignedConsultantID,
		Status:               lead.Status,
		CreatedAt:            lead.CreatedAt,
		UpdatedAt:            lead.UpdatedAt,
		History:              lead.History,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert lead: %w", err)
	}

	created := *lead
	created.ID = doc.ID.Hex()
	return &created, nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*domain.Lead, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrLeadNotFound
	}

	var doc leadDoc
	err = readWithRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
		return r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, fmt.Errorf("find lead: %w", err)
	}
	return doc.toDomain(), nil
}

// UpdateStatus moves the lead from the expected current status to the new
// one and appends the history entry in one atomic update. Filtering on the
// expected status turns a lost race with a concurrent transition into
// domain.ErrInvalidTransition rather than a silent double-apply.
func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, from, to domain.LeadStatus, entry domain.LeadHistoryEntry) (*domain.Lead, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrLeadNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc leadDoc
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": from},
		bson.M{
			"$set":  bson.M{"status": to, "updated_at": entry.Timestamp},
			"$push": bson.M{"history": entry},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Either the lead is gone or its status moved underneath us.
			if _, findErr := r.FindByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, fmt.Errorf("%w (lead changed concurrently)", domain.ErrInvalidTransition)
		}
		return nil, fmt.Errorf("update lead status: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *LeadRepository) UpdateAssignee(ctx context.Context, id, consultantID string, entry domain.LeadHistoryEntry) (*domain.Lead, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrLeadNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc leadDoc
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$set":  bson.M{"assigned_consultant_id": consultantID, "updated_at": entry.Timestamp},
			"$push": bson.M{"history": entry},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, fmt.Errorf("update lead assignee: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *LeadRepository) List(ctx context.Context, filter ports.LeadFilter) ([]*domain.Lead, error) {
	query := bson.M{}
	if filter.ClientID != "" {
		query["client_id"] = filter.ClientID
	}
	if filter.ConsultantID != "" {
		query["assigned_consultant_id"] = filter.ConsultantID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	var out []*domain.Lead
	err := readWithRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		cur, err := r.col.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
		if err != nil {
			return err
		}
		defer cur.Close(ctx)

		out = out[:0]
		for cur.Next(ctx) {
			var doc leadDoc
			if err := cur.Decode(&doc); err != nil {
				return fmt.Errorf("decode lead: %w", err)
			}
			out = append(out, doc.toDomain())
		}
		return cur.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return out, nil
}

// EnsureIndexes creates the scoping indexes used by role-filtered listings.
func (r *LeadRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "client_id", Value: 1}}},
		{Keys: bson.D{{Key: "assigned_consultant_id", Value: 1}}},
	})
	return err
}
