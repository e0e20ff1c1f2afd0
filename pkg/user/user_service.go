package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Service interface {
	GetCurrentUser(ctx context.Context) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	CreateUser(ctx context.Context, user User) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, uid string) error
	GetAllUsers(ctx context.Context) ([]User, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
}

var ErrUsernameTaken = errors.New("username already taken")

type UserServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *UserServiceImpl {
	return &UserServiceImpl{repo: repo}
}

func (s *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.GetUser(ctx, userId)
}

func (s *UserServiceImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return s.repo.GetUserByUid(ctx, uid)
}

func (s *UserServiceImpl) CreateUser(ctx context.Context, user User) (User, error) {
	if err := user.Validate(); err != nil {
		return User{}, err
	}
	available, err := s.repo.IsUsernameAvailable(ctx, user.Username)
	if err != nil {
		return User{}, fmt.Errorf("failed to check username: %w", err)
	}
	if !available {
		return User{}, ErrUsernameTaken
	}
	if user.Uid == "" {
		user.Uid = uuid.NewString()
	}
	id, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	user.Id = id
	return user, nil
}

// UpdateUser changes the display name and settings of the user in ctx.
func (s *UserServiceImpl) UpdateUser(ctx context.Context, user User) (User, error) {
	current, err := CurrentUser(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	user.Username = current.Username
	if err := user.Validate(); err != nil {
		return User{}, err
	}
	return s.repo.UpdateUser(ctx, current.Id, user)
}

func (s *UserServiceImpl) DeleteUser(ctx context.Context, uid string) error {
	return s.repo.DeleteUser(ctx, uid)
}

func (s *UserServiceImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	return s.repo.GetAllUsers(ctx)
}

func (s *UserServiceImpl) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	return s.repo.IsUsernameAvailable(ctx, username)
}
