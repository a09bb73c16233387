package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
	"github.com/razzbabu4/diagnostic-center-server/internal/platform/cache"
	"github.com/razzbabu4/diagnostic-center-server/internal/repo/mongodb"
	"github.com/razzbabu4/diagnostic-center-server/pkg/events"
	"github.com/razzbabu4/diagnostic-center-server/pkg/logger"
)

type UserService interface {
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, email string) (*domain.User, error)
	Register(ctx context.Context, req domain.RegisterUserReq) (domain.InsertResult, error)
	UpdateProfile(ctx context.Context, email string, patch domain.ProfilePatch) (domain.UpdateResult, error)
	Promote(ctx context.Context, id string) (domain.UpdateResult, error)
	Block(ctx context.Context, id string) (domain.UpdateResult, error)
	IsAdmin(ctx context.Context, email string) (bool, error)
	// Role resolves the stored role for an email, consulting the cache
	// first. Unknown users yield domain.ErrNotFound.
	Role(ctx context.Context, email string) (domain.Role, error)
}

type userService struct {
	users    mongodb.UsersRepo
	roles    cache.RoleCache
	eventBus events.Publisher
	now      func() time.Time
}

func NewUserService(users mongodb.UsersRepo, roles cache.RoleCache, eventBus events.Publisher) UserService {
	if roles == nil {
		roles = cache.NopRoleCache{}
	}
	if eventBus == nil {
		eventBus = events.NopBus{}
	}
	return &userService{users: users, roles: roles, eventBus: eventBus, now: time.Now}
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *userService) Get(ctx context.Context, email string) (*domain.User, error) {
	return s.users.FindByEmail(ctx, email)
}

// Register inserts the user unless the email is already known, in which case
// it returns the no-insert sentinel instead of an error.
func (s *userService) Register(ctx context.Context, req domain.RegisterUserReq) (domain.InsertResult, error) {
	if err := req.Validate(); err != nil {
		return domain.InsertResult{}, err
	}

	_, err := s.users.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return domain.AlreadyExists(), nil
	case !errors.Is(err, domain.ErrNotFound):
		return domain.InsertResult{}, err
	}

	u := &domain.User{
		Email:      req.Email,
		Name:       req.Name,
		Avatar:     req.Avatar,
		BloodGroup: req.BloodGroup,
		District:   req.District,
		Upazila:    req.Upazila,
		Role:       domain.RoleStandard,
		Status:     domain.StatusActive,
		CreatedAt:  s.now().UTC(),
	}
	id, err := s.users.Insert(ctx, u)
	if errors.Is(err, domain.ErrConflict) {
		return domain.AlreadyExists(), nil
	}
	if err != nil {
		return domain.InsertResult{}, err
	}
	logger.InfoContext(ctx, "User registered", "user_id", id.Hex())
	return domain.Inserted(id), nil
}

func (s *userService) UpdateProfile(ctx context.Context, email string, patch domain.ProfilePatch) (domain.UpdateResult, error) {
	if patch.Empty() {
		return domain.UpdateResult{}, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}
	return s.users.UpdateProfile(ctx, email, patch)
}

func (s *userService) Promote(ctx context.Context, id string) (domain.UpdateResult, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	res, err := s.users.SetRole(ctx, id, domain.RoleAdmin)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	s.roleChanged(ctx, events.UserPromoted, u, domain.RoleAdmin, u.Status)
	return res, nil
}

func (s *userService) Block(ctx context.Context, id string) (domain.UpdateResult, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	res, err := s.users.SetStatus(ctx, id, domain.StatusBlocked)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	s.roleChanged(ctx, events.UserBlocked, u, u.Role, domain.StatusBlocked)
	return res, nil
}

func (s *userService) roleChanged(ctx context.Context, subject string, u *domain.User, role domain.Role, status domain.UserStatus) {
	if err := s.roles.Delete(ctx, u.Email); err != nil {
		logger.WarnContext(ctx, "Failed to invalidate cached role", "error", err, "user_id", u.ID.Hex())
	}
	event := events.UserRoleChangedEvent{
		UserID:    u.ID.Hex(),
		Email:     u.Email,
		Role:      string(role),
		Status:    string(status),
		ChangedAt: s.now().UTC(),
	}
	if err := s.eventBus.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish user event", "error", err, "subject", subject)
	}
}

func (s *userService) IsAdmin(ctx context.Context, email string) (bool, error) {
	role, err := s.Role(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return role == domain.RoleAdmin, nil
}

func (s *userService) Role(ctx context.Context, email string) (domain.Role, error) {
	role, ok, err := s.roles.Get(ctx, email)
	if err != nil {
		logger.WarnContext(ctx, "Role cache read failed", "error", err)
	}
	if ok {
		return role, nil
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if err := s.roles.Set(ctx, email, u.Role); err != nil {
		logger.WarnContext(ctx, "Role cache write failed", "error", err)
	}
	return u.Role, nil
}
