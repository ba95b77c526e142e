package users

import "errors"

var UserNotFoundErr = errors.New("user not found")

type UserRepo interface {
	Upsert(user *User) error
	Delete(tenantID, username string) error
	GetByUsername(tenantID, username string) (*User, error)
	GetByID(ID string) (*User, error)
	List(tenantID string) ([]*User, error)
	SetBlocked(tenantID, username string, blocked bool) error
}
