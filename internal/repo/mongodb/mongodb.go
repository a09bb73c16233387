// Package mongodb implements the repositories on top of the MongoDB driver.
// Driver errors are translated to the domain sentinels: a malformed id is
// domain.ErrInvalidID, a missing document or a by-id write that matched
// nothing is domain.ErrNotFound.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
)

const (
	UsersCollection        = "users"
	TestsCollection        = "tests"
	BannersCollection      = "banners"
	ReservationsCollection = "reservations"

	defaultTimeout = 5 * time.Second
)

type base struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func newBase(db *mongo.Database, name string, timeout time.Duration) base {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return base{coll: db.Collection(name), timeout: timeout}
}

func (b base) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

// ParseID converts a hex string to an ObjectID.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	return oid, nil
}

// EnsureIndexes creates the indexes the repositories rely on. The unique
// email index turns a concurrent duplicate registration into a duplicate
// key error.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	specs := map[string][]mongo.IndexModel{
		UsersCollection: {{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		ReservationsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "testId", Value: 1}}},
		},
		TestsCollection: {{Keys: bson.D{{Key: "date", Value: 1}}}},
	}
	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return fmt.Errorf("find %s: %w", what, err)
}

func updateResult(res *mongo.UpdateResult) domain.UpdateResult {
	if res == nil {
		return domain.UpdateResult{}
	}
	return domain.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
	}
}

// byIDUpdate reports a by-id write that matched nothing as not found.
func byIDUpdate(res *mongo.UpdateResult, err error, what string) (domain.UpdateResult, error) {
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("update %s: %w", what, err)
	}
	if res.MatchedCount == 0 {
		return domain.UpdateResult{}, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return updateResult(res), nil
}

func byIDDelete(res *mongo.DeleteResult, err error, what string) (domain.DeleteResult, error) {
	if err != nil {
		return domain.DeleteResult{}, fmt.Errorf("delete %s: %w", what, err)
	}
	if res.DeletedCount == 0 {
		return domain.DeleteResult{}, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return domain.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func insertedID(res *mongo.InsertOneResult) (primitive.ObjectID, error) {
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid, nil
}

// newestFirst sorts by _id descending and applies page when it is set.
func newestFirst(page *domain.Page) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if page != nil {
		opts.SetSkip(page.Skip()).SetLimit(int64(page.Size))
	}
	return opts
}

// dateFilter matches the whole date field case-insensitively. The value is
// quoted so user input cannot inject pattern syntax.
func dateFilter(date string) bson.M {
	return bson.M{"date": primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(strings.TrimSpace(date)) + "$",
		Options: "i",
	}}
}

func findAll[T any](ctx context.Context, b base, filter any, opts *options.FindOptions, what string) ([]T, error) {
	ctx, cancel := b.ctx(ctx)
	defer cancel()

	cur, err := b.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", what, err)
	}
	defer cur.Close(ctx)

	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", what, err)
	}
	return out, nil
}

func findOne[T any](ctx context.Context, b base, filter any, what string) (*T, error) {
	ctx, cancel := b.ctx(ctx)
	defer cancel()

	var v T
	if err := b.coll.FindOne(ctx, filter).Decode(&v); err != nil {
		return nil, notFound(err, what)
	}
	return &v, nil
}
