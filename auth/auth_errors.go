package auth

import "errors"

var (
	MissingUsernameErr = errors.New("username is required")
	MissingPasswordErr = errors.New("password is required")
	UsernameTooLongErr = errors.New("username is too long")
	PersistSessionErr  = errors.New("could not persist session")
)
