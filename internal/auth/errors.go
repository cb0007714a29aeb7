package auth

import "github.com/JaimeStill/tollgate/pkg/apperr"

var (
	ErrInvalidToken = apperr.Unauthorized("InvalidToken", "Invalid token provided")
	ErrMissingToken = apperr.Unauthorized("InvalidToken", "Bearer token required")
)
