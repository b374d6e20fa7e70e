package service

import (
	"context"

	"github.com/zenith-events/zenith/internal/domain"
)

type UserService struct {
	users domain.UserRepository
	clock Clock
}

func NewUserService(users domain.UserRepository, clock Clock) *UserService {
	if clock == nil {
		clock = SystemClock
	}
	return &UserService{users: users, clock: clock}
}

// EnsureUser upserts the profile row for an authenticated principal. New
// users come in as attendees; an existing row keeps its role.
func (s *UserService) EnsureUser(ctx context.Context, id, name, email string) (*domain.User, error) {
	u, err := domain.NewAttendee(id, name, email, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return s.users.Upsert(ctx, u)
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	if !isAdmin(role) {
		return nil, domain.ErrForbidden("only admins can list users")
	}
	return s.users.List(ctx)
}
