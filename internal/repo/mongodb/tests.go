package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
)

type TestsRepo interface {
	// List returns the catalog newest first; a nil page returns all of it.
	List(ctx context.Context, page *domain.Page) ([]domain.Test, error)
	Count(ctx context.Context) (int64, error)
	FindByDate(ctx context.Context, date string) ([]domain.Test, error)
	FindByID(ctx context.Context, id string) (*domain.Test, error)
	Insert(ctx context.Context, t *domain.Test) (primitive.ObjectID, error)
	Replace(ctx context.Context, id string, in domain.TestInput) (domain.UpdateResult, error)
	Delete(ctx context.Context, id string) (domain.DeleteResult, error)
	// ReserveSlot moves one slot to bookings only while slots remain. A zero
	// MatchedCount means the test is missing or sold out.
	ReserveSlot(ctx context.Context, id primitive.ObjectID) (domain.UpdateResult, error)
	ReleaseSlot(ctx context.Context, id primitive.ObjectID) (domain.UpdateResult, error)
}

type TestsRepoImpl struct{ base }

func NewTestsRepo(db *mongo.Database, timeout time.Duration) *TestsRepoImpl {
	return &TestsRepoImpl{newBase(db, TestsCollection, timeout)}
}

func (r *TestsRepoImpl) List(ctx context.Context, page *domain.Page) ([]domain.Test, error) {
	return findAll[domain.Test](ctx, r.base, bson.M{}, newestFirst(page), "tests")
}

func (r *TestsRepoImpl) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	n, err := r.coll.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("count tests: %w", err)
	}
	return n, nil
}

func (r *TestsRepoImpl) FindByDate(ctx context.Context, date string) ([]domain.Test, error) {
	return findAll[domain.Test](ctx, r.base, dateFilter(date), newestFirst(nil), "tests")
}

func (r *TestsRepoImpl) FindByID(ctx context.Context, id string) (*domain.Test, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return findOne[domain.Test](ctx, r.base, bson.M{"_id": oid}, "test")
}

func (r *TestsRepoImpl) Insert(ctx context.Context, t *domain.Test) (primitive.ObjectID, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.coll.InsertOne(ctx, t)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert test: %w", err)
	}
	return insertedID(res)
}

// replaceUpdate sets every editable field. Bookings are left alone.
func replaceUpdate(in domain.TestInput) bson.M {
	return bson.M{"$set": bson.M{
		"name":    in.Name,
		"image":   in.Image,
		"price":   in.Price,
		"date":    in.Date,
		"details": in.Details,
		"slots":   in.Slots,
	}}
}

func (r *TestsRepoImpl) Replace(ctx context.Context, id string, in domain.TestInput) (domain.UpdateResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, replaceUpdate(in))
	return byIDUpdate(res, err, "test")
}

func (r *TestsRepoImpl) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	return byIDDelete(res, err, "test")
}

func reserveSlot(id primitive.ObjectID) (filter, update bson.M) {
	return bson.M{"_id": id, "slots": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"slots": -1, "bookings": 1}}
}

func releaseSlot(id primitive.ObjectID) (filter, update bson.M) {
	return bson.M{"_id": id, "bookings": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"slots": 1, "bookings": -1}}
}

func (r *TestsRepoImpl) ReserveSlot(ctx context.Context, id primitive.ObjectID) (domain.UpdateResult, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	filter, update := reserveSlot(id)
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("reserve slot: %w", err)
	}
	return updateResult(res), nil
}

func (r *TestsRepoImpl) ReleaseSlot(ctx context.Context, id primitive.ObjectID) (domain.UpdateResult, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	filter, update := releaseSlot(id)
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("release slot: %w", err)
	}
	return updateResult(res), nil
}

var _ TestsRepo = (*TestsRepoImpl)(nil)
