// Package storage implements the embedded relational data layer over a flat
// key/value substrate: named collections with referential integrity, a
// category hierarchy with cascade rules, soft delete with recovery, typed
// settings, and derived aggregation.
//
// Concurrency model: every operation is read-collection, compute, write-back.
// There is no locking; the layer assumes a single logical caller at a time.
// Each persisted collection carries a version stamp, and a write whose base
// version no longer matches the stored one fails with common.ErrConflict, so
// a violated single-caller assumption surfaces as a detectable conflict
// instead of a silent lost update. Id allocation (max+1) relies on the same
// assumption.
package storage

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/karasuda/kakeibo/internal/kv"
	"github.com/karasuda/kakeibo/internal/model"
)

// Key namespace and collection names within the substrate.
const (
	keyPrefix = "kakeibo:"

	colUsers      = "users"
	colCategories = "categories"
	colExpenses   = "expenses"
	colIncome     = "income"
	colTrash      = "trash"
	colSettings   = "settings"

	initializedKey = keyPrefix + "initialized"
)

// Store is the data layer facade. All domain operations go through it; the
// substrate only ever sees whole-collection reads and writes.
type Store struct {
	substrate kv.Store
	validate  *validator.Validate
	now       func() time.Time
}

// NewStore creates a data layer over the given substrate. The substrate owns
// durability; NewStore performs no seeding (see Initialize).
func NewStore(substrate kv.Store) *Store {
	return &Store{
		substrate: substrate,
		validate:  validator.New(),
		now:       time.Now,
	}
}

func (s *Store) users() collection[model.User, *model.User] {
	return collection[model.User, *model.User]{store: s, name: colUsers}
}

func (s *Store) categories() collection[model.Category, *model.Category] {
	return collection[model.Category, *model.Category]{store: s, name: colCategories}
}

func (s *Store) expenses() collection[model.Expense, *model.Expense] {
	return collection[model.Expense, *model.Expense]{store: s, name: colExpenses}
}

func (s *Store) income() collection[model.Income, *model.Income] {
	return collection[model.Income, *model.Income]{store: s, name: colIncome}
}
