package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
	"github.com/razzbabu4/diagnostic-center-server/internal/repo/mongodb"
	"github.com/razzbabu4/diagnostic-center-server/pkg/logger"
)

type TestService interface {
	List(ctx context.Context) ([]domain.Test, error)
	// Page returns one page of the catalog together with the catalog size.
	Page(ctx context.Context, page domain.Page) ([]domain.Test, int64, error)
	Count(ctx context.Context) (int64, error)
	SearchByDate(ctx context.Context, date string) ([]domain.Test, error)
	Get(ctx context.Context, id string) (*domain.Test, error)
	Create(ctx context.Context, in domain.TestInput) (domain.InsertResult, error)
	Replace(ctx context.Context, id string, in domain.TestInput) (domain.UpdateResult, error)
	Delete(ctx context.Context, id string) (domain.DeleteResult, error)
}

type testService struct {
	tests mongodb.TestsRepo
	now   func() time.Time
}

func NewTestService(tests mongodb.TestsRepo) TestService {
	return &testService{tests: tests, now: time.Now}
}

func (s *testService) List(ctx context.Context) ([]domain.Test, error) {
	return s.tests.List(ctx, nil)
}

func (s *testService) Page(ctx context.Context, page domain.Page) ([]domain.Test, int64, error) {
	var (
		items []domain.Test
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.tests.List(gctx, &page)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.tests.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *testService) Count(ctx context.Context) (int64, error) {
	return s.tests.Count(ctx)
}

func (s *testService) SearchByDate(ctx context.Context, date string) ([]domain.Test, error) {
	return s.tests.FindByDate(ctx, date)
}

func (s *testService) Get(ctx context.Context, id string) (*domain.Test, error) {
	return s.tests.FindByID(ctx, id)
}

func (s *testService) Create(ctx context.Context, in domain.TestInput) (domain.InsertResult, error) {
	if err := in.Validate(); err != nil {
		return domain.InsertResult{}, err
	}
	t := &domain.Test{
		Name:      in.Name,
		Image:     in.Image,
		Price:     in.Price,
		Date:      in.Date,
		Details:   in.Details,
		Slots:     in.Slots,
		Bookings:  0,
		CreatedAt: s.now().UTC(),
	}
	id, err := s.tests.Insert(ctx, t)
	if err != nil {
		return domain.InsertResult{}, err
	}
	logger.InfoContext(ctx, "Test created", "test_id", id.Hex(), "slots", in.Slots)
	return domain.Inserted(id), nil
}

func (s *testService) Replace(ctx context.Context, id string, in domain.TestInput) (domain.UpdateResult, error) {
	if err := in.Validate(); err != nil {
		return domain.UpdateResult{}, err
	}
	return s.tests.Replace(ctx, id, in)
}

func (s *testService) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	return s.tests.Delete(ctx, id)
}
