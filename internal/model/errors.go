package model

import "errors"

var (
	// Identity related errors
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")

	// Session related errors
	ErrNotAuthenticated = errors.New("not authenticated")

	// Navigation related errors
	ErrRouteNotFound = errors.New("route not found")
	ErrInvalidRoute  = errors.New("invalid route")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
