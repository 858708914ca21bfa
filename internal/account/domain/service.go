package domain

import (
	"context"
	"errors"
)

type Service interface {
	// Authenticate resolves a bearer token to an active user.
	Authenticate(ctx context.Context, token string) (User, error)
	GetByID(ctx context.Context, req GetUserRequest) (User, error)
}

type GetUserRequest struct {
	ID string
}

var (
	ErrInvalidID    = errors.New("invalid_id")
	ErrInvalidToken = errors.New("invalid_token")
	ErrNotFound     = errors.New("user_not_found")
	ErrUnavailable  = errors.New("user_unavailable")
)
