package users

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type UserRepo interface {
	// Create stores a new user, failing with ErrEmailTaken for a duplicate email.
	Create(user *User) error
	Upsert(user *User) error
	GetByEmail(email string) (*User, error)
	GetByID(ID string) (*User, error)
}
