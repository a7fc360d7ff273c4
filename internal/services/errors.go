package services

import "github.com/pkg/errors"

var (
	ErrUnauthorized     = errors.New("unauthorized: must be logged in")
	ErrPostNotFound     = errors.New("post not found")
	ErrPlaceNotFound    = errors.New("place not found")
	ErrInvalidDirection = errors.New("vote direction must be up or down")
)
