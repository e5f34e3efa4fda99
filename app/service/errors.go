package service

import "errors"

var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrAttemptNotFound      = errors.New("payment attempt not found")
	ErrAttemptAlreadyExists = errors.New("payment attempt already exists")
	ErrInvalidStatus        = errors.New("invalid status")
)
