package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
	"github.com/razzbabu4/diagnostic-center-server/internal/repo/mongodb"
	"github.com/razzbabu4/diagnostic-center-server/pkg/events"
)

type fakeUsers struct {
	mu          sync.Mutex
	byID        map[primitive.ObjectID]*domain.User
	emailLookup int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[primitive.ObjectID]*domain.User{}}
}

func (f *fakeUsers) add(email string, role domain.Role) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &domain.User{ID: primitive.NewObjectID(), Email: email, Role: role, Status: domain.StatusActive}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) List(context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emailLookup++
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[oid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Insert(_ context.Context, u *domain.User) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return primitive.NilObjectID, domain.ErrConflict
		}
	}
	cp := *u
	cp.ID = primitive.NewObjectID()
	f.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, email string, p domain.ProfilePatch) (domain.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			if p.Name != nil {
				u.Name = *p.Name
			}
			if p.District != nil {
				u.District = *p.District
			}
			return domain.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return domain.UpdateResult{}, domain.ErrNotFound
}

func (f *fakeUsers) set(id string, fn func(*domain.User)) (domain.UpdateResult, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[oid]
	if !ok {
		return domain.UpdateResult{}, domain.ErrNotFound
	}
	fn(u)
	return domain.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeUsers) SetRole(_ context.Context, id string, role domain.Role) (domain.UpdateResult, error) {
	return f.set(id, func(u *domain.User) { u.Role = role })
}

func (f *fakeUsers) SetStatus(_ context.Context, id string, status domain.UserStatus) (domain.UpdateResult, error) {
	return f.set(id, func(u *domain.User) { u.Status = status })
}

type fakeTests struct {
	mu    sync.Mutex
	byID  map[primitive.ObjectID]*domain.Test
	order []primitive.ObjectID
}

func newFakeTests() *fakeTests {
	return &fakeTests{byID: map[primitive.ObjectID]*domain.Test{}}
}

func (f *fakeTests) add(name string, slots int) *domain.Test {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &domain.Test{ID: primitive.NewObjectID(), Name: name, Slots: slots, Price: 40, Date: "2024-06-01"}
	f.byID[t.ID] = t
	f.order = append(f.order, t.ID)
	return t
}

func (f *fakeTests) snapshot(id primitive.ObjectID) domain.Test {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byID[id]
}

func (f *fakeTests) List(_ context.Context, page *domain.Page) ([]domain.Test, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Test, 0, len(f.order))
	for i := len(f.order) - 1; i >= 0; i-- {
		if t, ok := f.byID[f.order[i]]; ok {
			out = append(out, *t)
		}
	}
	if page == nil {
		return out, nil
	}
	start := int(page.Skip())
	if start > len(out) {
		return []domain.Test{}, nil
	}
	end := start + page.Size
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (f *fakeTests) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.byID)), nil
}

func (f *fakeTests) FindByDate(_ context.Context, date string) ([]domain.Test, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Test
	for _, t := range f.byID {
		if strings.EqualFold(t.Date, date) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTests) FindByID(_ context.Context, id string) (*domain.Test, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[oid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTests) Insert(_ context.Context, t *domain.Test) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	cp.ID = primitive.NewObjectID()
	f.byID[cp.ID] = &cp
	f.order = append(f.order, cp.ID)
	return cp.ID, nil
}

func (f *fakeTests) Replace(_ context.Context, id string, in domain.TestInput) (domain.UpdateResult, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[oid]
	if !ok {
		return domain.UpdateResult{}, domain.ErrNotFound
	}
	t.Name, t.Image, t.Price, t.Date, t.Details, t.Slots = in.Name, in.Image, in.Price, in.Date, in.Details, in.Slots
	return domain.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeTests) Delete(_ context.Context, id string) (domain.DeleteResult, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[oid]; !ok {
		return domain.DeleteResult{}, domain.ErrNotFound
	}
	delete(f.byID, oid)
	return domain.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

func (f *fakeTests) ReserveSlot(_ context.Context, id primitive.ObjectID) (domain.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok || t.Slots <= 0 {
		return domain.UpdateResult{Acknowledged: true}, nil
	}
	t.Slots--
	t.Bookings++
	return domain.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeTests) ReleaseSlot(_ context.Context, id primitive.ObjectID) (domain.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok || t.Bookings <= 0 {
		return domain.UpdateResult{Acknowledged: true}, nil
	}
	t.Slots++
	t.Bookings--
	return domain.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

type fakeBanners struct {
	mu          sync.Mutex
	byID        map[primitive.ObjectID]*domain.Banner
	activateErr error
}

func newFakeBanners() *fakeBanners {
	return &fakeBanners{byID: map[primitive.ObjectID]*domain.Banner{}}
}

func (f *fakeBanners) add(name string, active bool) *domain.Banner {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := &domain.Banner{ID: primitive.NewObjectID(), Name: name, IsActive: active}
	f.byID[b.ID] = b
	return b
}

func (f *fakeBanners) activeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.byID {
		if b.IsActive {
			n++
		}
	}
	return n
}

func (f *fakeBanners) List(context.Context) ([]domain.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Banner, 0, len(f.byID))
	for _, b := range f.byID {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeBanners) FindByID(_ context.Context, id string) (*domain.Banner, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[oid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBanners) FindActive(context.Context) (*domain.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.byID {
		if b.IsActive {
			cp := *b
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBanners) Insert(_ context.Context, b *domain.Banner) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *b
	cp.ID = primitive.NewObjectID()
	f.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeBanners) Delete(_ context.Context, id string) (domain.DeleteResult, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[oid]; !ok {
		return domain.DeleteResult{}, domain.ErrNotFound
	}
	delete(f.byID, oid)
	return domain.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

func (f *fakeBanners) DeactivateAll(context.Context) (domain.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, b := range f.byID {
		if b.IsActive {
			b.IsActive = false
			n++
		}
	}
	return domain.UpdateResult{Acknowledged: true, MatchedCount: int64(len(f.byID)), ModifiedCount: n}, nil
}

func (f *fakeBanners) Activate(_ context.Context, id string) (domain.UpdateResult, error) {
	if f.activateErr != nil {
		return domain.UpdateResult{}, f.activateErr
	}
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[oid]
	if !ok {
		return domain.UpdateResult{}, domain.ErrNotFound
	}
	b.IsActive = true
	return domain.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

type fakeReservations struct {
	mu        sync.Mutex
	byID      map[primitive.ObjectID]*domain.Reservation
	insertErr error
}

func newFakeReservations() *fakeReservations {
	return &fakeReservations{byID: map[primitive.ObjectID]*domain.Reservation{}}
}

func (f *fakeReservations) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

func (f *fakeReservations) list(match func(*domain.Reservation) bool) []domain.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Reservation, 0)
	for _, r := range f.byID {
		if match(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() > out[j].ID.Hex() })
	return out
}

func (f *fakeReservations) List(context.Context) ([]domain.Reservation, error) {
	return f.list(func(*domain.Reservation) bool { return true }), nil
}

func (f *fakeReservations) ListByEmail(_ context.Context, email string) ([]domain.Reservation, error) {
	return f.list(func(r *domain.Reservation) bool { return r.Email == email }), nil
}

func (f *fakeReservations) FindByID(_ context.Context, id string) (*domain.Reservation, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[oid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReservations) Insert(_ context.Context, r *domain.Reservation) (primitive.ObjectID, error) {
	if f.insertErr != nil {
		return primitive.NilObjectID, f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	cp.ID = primitive.NewObjectID()
	f.byID[cp.ID] = &cp
	return cp.ID, nil
}

func sameStatus(a, b domain.ReservationStatus) bool {
	norm := func(s domain.ReservationStatus) domain.ReservationStatus {
		if s == "" {
			return domain.ReservationPending
		}
		return s
	}
	return norm(a) == norm(b)
}

func (f *fakeReservations) Update(_ context.Context, id string, from domain.ReservationStatus, status *domain.ReservationStatus, report *string) (domain.UpdateResult, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[oid]
	if !ok {
		return domain.UpdateResult{}, domain.ErrNotFound
	}
	if !sameStatus(r.Status, from) {
		return domain.UpdateResult{}, domain.ErrConflict
	}
	if status != nil {
		r.Status = *status
	}
	if report != nil {
		r.Report = *report
	}
	return domain.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeReservations) Delete(_ context.Context, id string, from domain.ReservationStatus) (domain.DeleteResult, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[oid]
	if !ok {
		return domain.DeleteResult{}, domain.ErrNotFound
	}
	if !sameStatus(r.Status, from) {
		return domain.DeleteResult{}, domain.ErrConflict
	}
	delete(f.byID, oid)
	return domain.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

type recordingBus struct {
	mu       sync.Mutex
	subjects []string
	payloads []interface{}
}

func (b *recordingBus) Publish(_ context.Context, subject string, data interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subjects = append(b.subjects, subject)
	b.payloads = append(b.payloads, data)
	return nil
}

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) published(subject string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, s := range b.subjects {
		if s == subject {
			n++
		}
	}
	return n
}

var errBoom = errors.New("boom")

var (
	_ mongodb.UsersRepo        = (*fakeUsers)(nil)
	_ mongodb.TestsRepo        = (*fakeTests)(nil)
	_ mongodb.BannersRepo      = (*fakeBanners)(nil)
	_ mongodb.ReservationsRepo = (*fakeReservations)(nil)
	_ events.Publisher         = (*recordingBus)(nil)
)
