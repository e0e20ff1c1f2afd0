package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repo interface {
	CreateUser(ctx context.Context, user User) (int, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	UpdateUser(ctx context.Context, userId int, user User) (User, error)
	DeleteUser(ctx context.Context, uid string) error
	GetAllUsers(ctx context.Context) ([]User, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
}

type UserRepoImpl struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

const userColumns = `id, uid, username, display_name, timezone`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.Id, &u.Uid, &u.Username, &u.DisplayName, &u.Settings.Timezone)
	return u, err
}

func (r *UserRepoImpl) CreateUser(ctx context.Context, user User) (int, error) {
	query := `INSERT INTO users (uid, username, display_name, timezone) VALUES ($1, $2, $3, $4) RETURNING id`
	var id int
	err := r.db.QueryRow(ctx, query, user.Uid, user.Username, user.DisplayName, user.Settings.Timezone).Scan(&id)
	if err != nil {
		log.Errorf("failed to create user: %v", err)
		return 0, err
	}
	return id, nil
}

func (r *UserRepoImpl) GetUser(ctx context.Context, id int) (User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debugf("user with id %d not found", id)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return u, nil
}

func (r *UserRepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debugf("user with uid %s not found", uid)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return u, nil
}

func (r *UserRepoImpl) UpdateUser(ctx context.Context, userId int, user User) (User, error) {
	query := `UPDATE users SET display_name = $1, timezone = $2 WHERE id = $3
			  RETURNING ` + userColumns
	updated, err := scanUser(r.db.QueryRow(ctx, query, user.DisplayName, user.Settings.Timezone, userId))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("user %d: %w", userId, ErrUserNotFound)
	} else if err != nil {
		log.Errorf("failed to update user: %v", err)
		return User{}, err
	}
	return updated, nil
}

func (r *UserRepoImpl) DeleteUser(ctx context.Context, uid string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE uid = $1`, uid)
	if err != nil {
		log.Errorf("failed to delete user: %v", err)
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", uid, ErrUserNotFound)
	}
	return nil
}

func (r *UserRepoImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		log.Errorf("failed to get users: %v", err)
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0, 10)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			log.Errorf("failed to scan user: %v", err)
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over rows: %v", err)
		return nil, err
	}
	return users, nil
}

func (r *UserRepoImpl) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE username = $1`, username).Scan(&count)
	if err != nil {
		log.Errorf("failed to check username availability: %v", err)
		return false, err
	}
	return count == 0, nil
}
