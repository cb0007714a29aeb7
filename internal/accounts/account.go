// Package accounts implements account persistence and the account services.
package accounts

import (
	"strings"
	"time"
)

// Account is a row of the accounts table. Password holds the bcrypt hash.
type Account struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	Password     string     `db:"password"`
	AccessToken  *string    `db:"access_token"`
	RefreshToken *string    `db:"refresh_token"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (a Account) EntityID() string { return a.ID }

// Profile is the public view of an account.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (a Account) Profile() Profile {
	return Profile{ID: a.ID, Email: a.Email}
}

// CreateCommand carries sign-up input.
type CreateCommand struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
