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
)

const (
	collectionThreads  = "threads"
	collectionMessages = "messages"
)

type ThreadRepository struct {
	threads  *mongo.Collection
	messages *mongo.Collection
}

func NewThreadRepository(db *mongo.Database) *ThreadRepository {
	return &ThreadRepository{
		threads:  db.Collection(collectionThreads),
		messages: db.Collection(collectionMessages),
	}
}

type threadDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	ClientID     string             `bson:"client_id"`
	ConsultantID string             `bson:"consultant_id"`
	Seq          int64              `bson:"seq"`
	CreatedAt    time.Time          `bson:"created_at"`
	LastActivity time.Time          `bson:"last_activity"`
}

func (d threadDoc) toDomain() *domain.Thread {
	return &domain.Thread{
		ID:           d.ID.Hex(),
		ClientID:     d.ClientID,
		ConsultantID: d.ConsultantID,
		Seq:          d.Seq,
		CreatedAt:    d.CreatedAt,
		LastActivity: d.LastActivity,
	}
}

type messageDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	ThreadID string             `bson:"thread_id"`
	SenderID string             `bson:"sender_id"`
	Seq      int64              `bson:"seq"`
	Body     string             `bson:"body"`
	SentAt   time.Time          `bson:"sent_at"`
}

func (d messageDoc) toDomain() *domain.Message {
	return &domain.Message{
		ID:       d.ID.Hex(),
		ThreadID: d.ThreadID,
		SenderID: d.SenderID,
		Seq:      d.Seq,
		Body:     d.Body,
		SentAt:   d.SentAt,
	}
}

// GetOrCreate resolves the unique thread for the pair with one upsert keyed
// by the (client_id, consultant_id) unique index. Concurrent first contacts
// race on the index, not on a read-then-write, so exactly one document wins.
func (r *ThreadRepository) GetOrCreate(ctx context.Context, clientID, consultantID string, now time.Time) (*domain.Thread, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"client_id": clientID, "consultant_id": consultantID}
	update := bson.M{"$setOnInsert": bson.M{
		"seq":           int64(0),
		"created_at":    now,
		"last_activity": now,
	}}

	res, err := r.threads.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// A concurrent upsert may still surface a duplicate-key error; the
		// winning document is fetched below either way.
		if !mongo.IsDuplicateKeyError(err) {
			return nil, false, fmt.Errorf("upsert thread: %w", err)
		}
		res = &mongo.UpdateResult{}
	}

	var doc threadDoc
	if err := r.threads.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, false, fmt.Errorf("find thread: %w", err)
	}
	return doc.toDomain(), res.UpsertedID != nil, nil
}

func (r *ThreadRepository) FindByID(ctx context.Context, id string) (*domain.Thread, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrThreadNotFound
	}

	var doc threadDoc
	err = readWithRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
		return r.threads.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrThreadNotFound
		}
		return nil, fmt.Errorf("find thread: %w", err)
	}
	return doc.toDomain(), nil
}

// NextSeq increments the thread's message counter and advances last_activity
// in a single atomic update. $max keeps last_activity monotone, and the
// post-update value doubles as the message's sent-at timestamp: whichever
// writer allocates the higher seq also carries the equal-or-later time, no
// matter how long it stalled before reaching this update.
func (r *ThreadRepository) NextSeq(ctx context.Context, threadID string, now time.Time) (int64, time.Time, error) {
	oid, err := primitive.ObjectIDFromHex(threadID)
	if err != nil {
		return 0, time.Time{}, domain.ErrThreadNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc threadDoc
	err = r.threads.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$inc": bson.M{"seq": 1}, "$max": bson.M{"last_activity": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, time.Time{}, domain.ErrThreadNotFound
		}
		return 0, time.Time{}, fmt.Errorf("allocate message seq: %w", err)
	}
	return doc.Seq, doc.LastActivity, nil
}

func (r *ThreadRepository) InsertMessage(ctx context.Context, msg *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := messageDoc{
		ID:       primitive.NewObjectID(),
		ThreadID: msg.ThreadID,
		SenderID: msg.SenderID,
		Seq:      msg.Seq,
		Body:     msg.Body,
		SentAt:   msg.SentAt,
	}
	if _, err := r.messages.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	msg.ID = doc.ID.Hex()
	return nil
}

// ListMessages returns up to limit messages after the cursor in seq order,
// which is consistent with sent_at because NextSeq allocates both from the
// same atomic update.
func (r *ThreadRepository) ListMessages(ctx context.Context, threadID string, afterSeq int64, limit int) ([]*domain.Message, error) {
	var out []*domain.Message
	err := readWithRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		cur, err := r.messages.Find(ctx,
			bson.M{"thread_id": threadID, "seq": bson.M{"$gt": afterSeq}},
			options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}).SetLimit(int64(limit)),
		)
		if err != nil {
			return err
		}
		defer cur.Close(ctx)

		out = out[:0]
		for cur.Next(ctx) {
			var doc messageDoc
			if err := cur.Decode(&doc); err != nil {
				return fmt.Errorf("decode message: %w", err)
			}
			out = append(out, doc.toDomain())
		}
		return cur.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}

// ListForAccount returns every thread the account participates in, most
// recently active first.
func (r *ThreadRepository) ListForAccount(ctx context.Context, accountID string) ([]*domain.Thread, error) {
	var out []*domain.Thread
	err := readWithRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		cur, err := r.threads.Find(ctx,
			bson.M{"$or": bson.A{
				bson.M{"client_id": accountID},
				bson.M{"consultant_id": accountID},
			}},
			options.Find().SetSort(bson.D{{Key: "last_activity", Value: -1}}),
		)
		if err != nil {
			return err
		}
		defer cur.Close(ctx)

		out = out[:0]
		for cur.Next(ctx) {
			var doc threadDoc
			if err := cur.Decode(&doc); err != nil {
				return fmt.Errorf("decode thread: %w", err)
			}
			out = append(out, doc.toDomain())
		}
		return cur.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	return out, nil
}

// EnsureIndexes creates the pair-uniqueness and ordering indexes.
func (r *ThreadRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := r.threads.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "client_id", Value: 1}, {Key: "consultant_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "last_activity", Value: -1}}},
	}); err != nil {
		return err
	}

	_, err := r.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "thread_id", Value: 1}, {Key: "seq", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
