// Package engines exposes the provider's classification engines and each
// account's preferred subset.
package engines

import (
	"strconv"
	"time"

	"github.com/JaimeStill/tollgate/internal/provider"
)

// Engine is a row of the engines table.
type Engine struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Cost      float64    `db:"cost" json:"cost"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

func (e Engine) EntityID() string { return e.ID }

// PreferredCommand replaces the caller's preferred engines.
type PreferredCommand struct {
	Names []string `json:"names"`
}

// ParseCost reads the provider's decimal cost string.
func ParseCost(e provider.Engine) (float64, bool) {
	cost, err := strconv.ParseFloat(e.Cost, 64)
	return cost, err == nil
}
