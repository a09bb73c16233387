package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
)

type ReservationsRepo interface {
	List(ctx context.Context) ([]domain.Reservation, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Reservation, error)
	FindByID(ctx context.Context, id string) (*domain.Reservation, error)
	Insert(ctx context.Context, r *domain.Reservation) (primitive.ObjectID, error)
	// Update and Delete apply only while the stored status is still from.
	// A status changed in between yields domain.ErrConflict.
	Update(ctx context.Context, id string, from domain.ReservationStatus, status *domain.ReservationStatus, report *string) (domain.UpdateResult, error)
	Delete(ctx context.Context, id string, from domain.ReservationStatus) (domain.DeleteResult, error)
}

type ReservationsRepoImpl struct{ base }

func NewReservationsRepo(db *mongo.Database, timeout time.Duration) *ReservationsRepoImpl {
	return &ReservationsRepoImpl{newBase(db, ReservationsCollection, timeout)}
}

func (r *ReservationsRepoImpl) List(ctx context.Context) ([]domain.Reservation, error) {
	return findAll[domain.Reservation](ctx, r.base, bson.M{}, newestFirst(nil), "reservations")
}

func (r *ReservationsRepoImpl) ListByEmail(ctx context.Context, email string) ([]domain.Reservation, error) {
	filter := bson.M{"email": strings.ToLower(strings.TrimSpace(email))}
	return findAll[domain.Reservation](ctx, r.base, filter, newestFirst(nil), "reservations")
}

func (r *ReservationsRepoImpl) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return findOne[domain.Reservation](ctx, r.base, bson.M{"_id": oid}, "reservation")
}

func (r *ReservationsRepoImpl) Insert(ctx context.Context, res *domain.Reservation) (primitive.ObjectID, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	out, err := r.coll.InsertOne(ctx, res)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert reservation: %w", err)
	}
	return insertedID(out)
}

func reservationUpdate(status *domain.ReservationStatus, report *string) bson.M {
	set := bson.M{}
	if status != nil {
		set["status"] = string(*status)
	}
	if report != nil {
		set["report"] = *report
	}
	return bson.M{"$set": set}
}

// withStatus matches the reservation while its status is still from.
// Documents without a status field count as pending.
func withStatus(oid primitive.ObjectID, from domain.ReservationStatus) bson.M {
	if from == "" || from == domain.ReservationPending {
		return bson.M{"_id": oid, "status": bson.M{"$in": bson.A{string(domain.ReservationPending), nil}}}
	}
	return bson.M{"_id": oid, "status": string(from)}
}

// missingOrChanged explains a guarded write that matched nothing.
func (r *ReservationsRepoImpl) missingOrChanged(ctx context.Context, oid primitive.ObjectID) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("count reservation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("reservation: %w", domain.ErrNotFound)
	}
	return fmt.Errorf("reservation status changed: %w", domain.ErrConflict)
}

func (r *ReservationsRepoImpl) Update(ctx context.Context, id string, from domain.ReservationStatus, status *domain.ReservationStatus, report *string) (domain.UpdateResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, withStatus(oid, from), reservationUpdate(status, report))
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("update reservation: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.UpdateResult{}, r.missingOrChanged(ctx, oid)
	}
	return updateResult(res), nil
}

func (r *ReservationsRepoImpl) Delete(ctx context.Context, id string, from domain.ReservationStatus) (domain.DeleteResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, withStatus(oid, from))
	if err != nil {
		return domain.DeleteResult{}, fmt.Errorf("delete reservation: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.DeleteResult{}, r.missingOrChanged(ctx, oid)
	}
	return domain.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

var _ ReservationsRepo = (*ReservationsRepoImpl)(nil)
