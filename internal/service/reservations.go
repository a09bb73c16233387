package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
	"github.com/razzbabu4/diagnostic-center-server/internal/repo/mongodb"
	"github.com/razzbabu4/diagnostic-center-server/pkg/events"
	"github.com/razzbabu4/diagnostic-center-server/pkg/logger"
)

type ReservationService interface {
	// Reserve books one slot of a test for email. Slots never go negative:
	// a sold out test yields domain.ErrNoSlotsAvailable and no reservation.
	Reserve(ctx context.Context, email string, req domain.ReservationReq) (*domain.ReservationResult, error)
	List(ctx context.Context) ([]domain.Reservation, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Reservation, error)
	Update(ctx context.Context, id string, patch domain.ReservationPatch) (domain.UpdateResult, error)
	// Cancel deletes a reservation on behalf of its owner or an admin and
	// gives a held slot back to the test.
	Cancel(ctx context.Context, id, callerEmail string) (domain.DeleteResult, error)
}

// RoleLookup resolves the stored role of a user by email.
type RoleLookup interface {
	Role(ctx context.Context, email string) (domain.Role, error)
}

type reservationService struct {
	reservations mongodb.ReservationsRepo
	tests        mongodb.TestsRepo
	roles        RoleLookup
	eventBus     events.Publisher
	now          func() time.Time
}

func NewReservationService(
	reservations mongodb.ReservationsRepo,
	tests mongodb.TestsRepo,
	roles RoleLookup,
	eventBus events.Publisher,
) ReservationService {
	if eventBus == nil {
		eventBus = events.NopBus{}
	}
	return &reservationService{
		reservations: reservations,
		tests:        tests,
		roles:        roles,
		eventBus:     eventBus,
		now:          time.Now,
	}
}

func (s *reservationService) Reserve(ctx context.Context, email string, req domain.ReservationReq) (*domain.ReservationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	testID, err := mongodb.ParseID(req.TestID)
	if err != nil {
		return nil, err
	}

	test, err := s.tests.FindByID(ctx, req.TestID)
	if err != nil {
		return nil, err
	}

	upd, err := s.tests.ReserveSlot(ctx, testID)
	if err != nil {
		return nil, err
	}
	if upd.MatchedCount == 0 {
		// The test existed a moment ago; tell a deletion apart from a sell-out.
		if _, err := s.tests.FindByID(ctx, req.TestID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("test %s: %w", req.TestID, domain.ErrNoSlotsAvailable)
	}

	price := req.Price
	if price == 0 {
		price = test.Price
	}
	name := req.Name
	if name == "" {
		name = email
	}
	r := &domain.Reservation{
		TestID:          testID,
		TestName:        test.Name,
		Email:           email,
		Name:            name,
		Date:            test.Date,
		Price:           price,
		Status:          domain.ReservationPending,
		PaymentIntentID: req.PaymentIntentID,
		CreatedAt:       s.now().UTC(),
	}
	id, err := s.reservations.Insert(ctx, r)
	if err != nil {
		s.releaseSlot(ctx, testID)
		return nil, err
	}
	r.ID = id

	logger.InfoContext(ctx, "Reservation created", "reservation_id", id.Hex(), "test_id", testID.Hex())
	event := events.ReservationCreatedEvent{
		ReservationID: id.Hex(),
		TestID:        testID.Hex(),
		TestName:      r.TestName,
		Email:         r.Email,
		Name:          r.Name,
		Date:          r.Date,
		Price:         r.Price,
		CreatedAt:     r.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.ReservationCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish reservation created event", "error", err, "reservation_id", id.Hex())
	}

	return &domain.ReservationResult{
		InsertResult: domain.Inserted(id),
		UpdateResult: upd,
	}, nil
}

// releaseSlot undoes ReserveSlot. It runs on a fresh context so a canceled
// request still gives the slot back.
func (s *reservationService) releaseSlot(ctx context.Context, oid primitive.ObjectID) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := s.tests.ReleaseSlot(cctx, oid); err != nil {
		logger.ErrorContext(ctx, "Failed to release test slot", "error", err, "test_id", oid.Hex())
	}
}

func (s *reservationService) List(ctx context.Context) ([]domain.Reservation, error) {
	return s.reservations.List(ctx)
}

func (s *reservationService) ListByEmail(ctx context.Context, email string) ([]domain.Reservation, error) {
	return s.reservations.ListByEmail(ctx, email)
}

func (s *reservationService) Update(ctx context.Context, id string, patch domain.ReservationPatch) (domain.UpdateResult, error) {
	status, err := patch.Validate()
	if err != nil {
		return domain.UpdateResult{}, err
	}
	existing, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	release := false
	if status != nil {
		if release, err = existing.Transition(*status); err != nil {
			return domain.UpdateResult{}, err
		}
	}
	res, err := s.reservations.Update(ctx, id, existing.Status, status, patch.Report)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	if release {
		s.releaseSlot(ctx, existing.TestID)
	}

	event := events.ReservationUpdatedEvent{
		ReservationID: id,
		Email:         existing.Email,
		Status:        string(existing.Status),
		UpdatedAt:     s.now().UTC(),
	}
	if status != nil {
		event.Status = string(*status)
	}
	if patch.Report != nil {
		event.Report = *patch.Report
	}
	if err := s.eventBus.Publish(ctx, events.ReservationUpdated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish reservation updated event", "error", err, "reservation_id", id)
	}
	return res, nil
}

func (s *reservationService) Cancel(ctx context.Context, id, callerEmail string) (domain.DeleteResult, error) {
	r, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	if !r.IsOwner(callerEmail) {
		role, err := s.roles.Role(ctx, callerEmail)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return domain.DeleteResult{}, err
		}
		if role != domain.RoleAdmin {
			return domain.DeleteResult{}, fmt.Errorf("reservation %s: %w", id, domain.ErrForbidden)
		}
	}

	res, err := s.reservations.Delete(ctx, id, r.Status)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	if r.HoldsSlot() {
		s.releaseSlot(ctx, r.TestID)
	}

	event := events.ReservationCanceledEvent{
		ReservationID: id,
		TestID:        r.TestID.Hex(),
		Email:         r.Email,
		CanceledBy:    callerEmail,
		CanceledAt:    s.now().UTC(),
	}
	if err := s.eventBus.Publish(ctx, events.ReservationCanceled, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish reservation canceled event", "error", err, "reservation_id", id)
	}
	return res, nil
}
