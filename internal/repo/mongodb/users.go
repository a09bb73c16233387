package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
)

type UsersRepo interface {
	List(ctx context.Context) ([]domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Insert returns domain.ErrConflict when the email is already registered.
	Insert(ctx context.Context, u *domain.User) (primitive.ObjectID, error)
	UpdateProfile(ctx context.Context, email string, p domain.ProfilePatch) (domain.UpdateResult, error)
	SetRole(ctx context.Context, id string, role domain.Role) (domain.UpdateResult, error)
	SetStatus(ctx context.Context, id string, status domain.UserStatus) (domain.UpdateResult, error)
}

type UsersRepoImpl struct{ base }

func NewUsersRepo(db *mongo.Database, timeout time.Duration) *UsersRepoImpl {
	return &UsersRepoImpl{newBase(db, UsersCollection, timeout)}
}

func normalizeUsers(users []domain.User) []domain.User {
	for i := range users {
		users[i].Normalize()
	}
	return users
}

func (r *UsersRepoImpl) List(ctx context.Context) ([]domain.User, error) {
	users, err := findAll[domain.User](ctx, r.base, bson.M{}, options.Find(), "users")
	if err != nil {
		return nil, err
	}
	return normalizeUsers(users), nil
}

func (r *UsersRepoImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := findOne[domain.User](ctx, r.base, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}, "user")
	if err != nil {
		return nil, err
	}
	u.Normalize()
	return u, nil
}

func (r *UsersRepoImpl) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	u, err := findOne[domain.User](ctx, r.base, bson.M{"_id": oid}, "user")
	if err != nil {
		return nil, err
	}
	u.Normalize()
	return u, nil
}

func (r *UsersRepoImpl) Insert(ctx context.Context, u *domain.User) (primitive.ObjectID, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.coll.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, fmt.Errorf("user %s: %w", u.Email, domain.ErrConflict)
		}
		return primitive.NilObjectID, fmt.Errorf("insert user: %w", err)
	}
	return insertedID(res)
}

// profileUpdate builds the $set document for the self-service fields that
// are present in p.
func profileUpdate(p domain.ProfilePatch) bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Avatar != nil {
		set["avatar"] = *p.Avatar
	}
	if p.BloodGroup != nil {
		set["bloodGroup"] = *p.BloodGroup
	}
	if p.District != nil {
		set["district"] = *p.District
	}
	if p.Upazila != nil {
		set["upazila"] = *p.Upazila
	}
	return bson.M{"$set": set}
}

func (r *UsersRepoImpl) UpdateProfile(ctx context.Context, email string, p domain.ProfilePatch) (domain.UpdateResult, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}, profileUpdate(p))
	return byIDUpdate(res, err, "user")
}

func (r *UsersRepoImpl) setField(ctx context.Context, id, field string, value any) (domain.UpdateResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{field: value}})
	return byIDUpdate(res, err, "user")
}

func (r *UsersRepoImpl) SetRole(ctx context.Context, id string, role domain.Role) (domain.UpdateResult, error) {
	return r.setField(ctx, id, "role", string(role))
}

func (r *UsersRepoImpl) SetStatus(ctx context.Context, id string, status domain.UserStatus) (domain.UpdateResult, error) {
	return r.setField(ctx, id, "status", string(status))
}

var _ UsersRepo = (*UsersRepoImpl)(nil)
