package accounts

import "github.com/JaimeStill/tollgate/pkg/apperr"

var (
	ErrNotFound      = apperr.NotFound("AccountNotFound", "Account not found")
	ErrAlreadyExists = apperr.Conflict("AccountAlreadyExists", "Account already exists")
)

// NotFoundByID reports a missing account by id.
func NotFoundByID(id string) error {
	e := *ErrNotFound
	e.Message = "Account with id " + id + " not found"
	return &e
}

// NotFoundByEmail reports a missing account by email.
func NotFoundByEmail(email string) error {
	e := *ErrNotFound
	e.Message = "Account with email " + email + " not found"
	return &e
}
