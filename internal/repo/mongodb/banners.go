package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
)

type BannersRepo interface {
	List(ctx context.Context) ([]domain.Banner, error)
	FindByID(ctx context.Context, id string) (*domain.Banner, error)
	FindActive(ctx context.Context) (*domain.Banner, error)
	Insert(ctx context.Context, b *domain.Banner) (primitive.ObjectID, error)
	Delete(ctx context.Context, id string) (domain.DeleteResult, error)
	DeactivateAll(ctx context.Context) (domain.UpdateResult, error)
	Activate(ctx context.Context, id string) (domain.UpdateResult, error)
}

type BannersRepoImpl struct{ base }

func NewBannersRepo(db *mongo.Database, timeout time.Duration) *BannersRepoImpl {
	return &BannersRepoImpl{newBase(db, BannersCollection, timeout)}
}

func (r *BannersRepoImpl) List(ctx context.Context) ([]domain.Banner, error) {
	return findAll[domain.Banner](ctx, r.base, bson.M{}, options.Find(), "banners")
}

func (r *BannersRepoImpl) FindByID(ctx context.Context, id string) (*domain.Banner, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return findOne[domain.Banner](ctx, r.base, bson.M{"_id": oid}, "banner")
}

// activeFilter also matches banners flagged with the legacy string "true".
func activeFilter() bson.M {
	return bson.M{"isActive": bson.M{"$in": bson.A{true, "true"}}}
}

func (r *BannersRepoImpl) FindActive(ctx context.Context) (*domain.Banner, error) {
	return findOne[domain.Banner](ctx, r.base, activeFilter(), "active banner")
}

func (r *BannersRepoImpl) Insert(ctx context.Context, b *domain.Banner) (primitive.ObjectID, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.coll.InsertOne(ctx, b)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert banner: %w", err)
	}
	return insertedID(res)
}

func (r *BannersRepoImpl) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	return byIDDelete(res, err, "banner")
}

func (r *BannersRepoImpl) DeactivateAll(ctx context.Context) (domain.UpdateResult, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx, bson.M{}, bson.M{"$set": bson.M{"isActive": false}})
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("deactivate banners: %w", err)
	}
	return updateResult(res), nil
}

func (r *BannersRepoImpl) Activate(ctx context.Context, id string) (domain.UpdateResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"isActive": true}})
	return byIDUpdate(res, err, "banner")
}

var _ BannersRepo = (*BannersRepoImpl)(nil)
