package user

import (
	"context"
	"sort"
	"sync"
)

type StubUserRepository struct {
	mu     sync.Mutex
	nextId int
	data   map[int]User
}

func NewStubUserRepository() *StubUserRepository {
	return &StubUserRepository{data: map[int]User{}}
}

func (s *StubUserRepository) CreateUser(ctx context.Context, user User) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId++
	user.Id = s.nextId
	s.data[user.Id] = user
	return user.Id, nil
}

func (s *StubUserRepository) GetUser(ctx context.Context, id int) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *StubUserRepository) GetUserByUid(ctx context.Context, uid string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.data {
		if u.Uid == uid {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *StubUserRepository) UpdateUser(ctx context.Context, userId int, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.data[userId]
	if !ok {
		return User{}, ErrUserNotFound
	}
	existing.DisplayName = user.DisplayName
	existing.Settings = user.Settings
	s.data[userId] = existing
	return existing, nil
}

func (s *StubUserRepository) DeleteUser(ctx context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.data {
		if u.Uid == uid {
			delete(s.data, id)
			return nil
		}
	}
	return ErrUserNotFound
}

func (s *StubUserRepository) GetAllUsers(ctx context.Context) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]User, 0, len(s.data))
	for _, u := range s.data {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Id < users[j].Id })
	return users, nil
}

func (s *StubUserRepository) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.data {
		if u.Username == username {
			return false, nil
		}
	}
	return true, nil
}
