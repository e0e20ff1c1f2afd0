package user

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserDataInvalid = errors.New("invalid user data")
)

type User struct {
	Id          int
	Uid         string
	Username    string
	DisplayName string
	Settings    Settings
}

type Settings struct {
	// Timezone is the IANA zone in which "today" and the current time are evaluated.
	Timezone string
}

// Validate checks the fields required to create or update a user.
func (u User) Validate() error {
	if u.Username == "" || u.DisplayName == "" {
		return ErrUserDataInvalid
	}
	if u.Settings.Timezone != "" {
		if _, err := time.LoadLocation(u.Settings.Timezone); err != nil {
			return ErrUserDataInvalid
		}
	}
	return nil
}
