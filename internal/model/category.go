package model

// CategoryType indicates whether a category classifies expenses or income.
type CategoryType string

const (
	// CategoryTypeExpense represents categories for expense transactions.
	CategoryTypeExpense CategoryType = "expense"
	// CategoryTypeIncome represents categories for income transactions.
	CategoryTypeIncome CategoryType = "income"
)

// Valid reports whether t is a known category type.
func (t CategoryType) Valid() bool {
	return t == CategoryTypeExpense || t == CategoryTypeIncome
}

// Category represents a node in the classification hierarchy.
//
// Names are unique within a type. ParentID forms a self-referential tree: a
// parent must share the category's type, and the graph must stay acyclic. A
// category's type never changes after creation.
type Category struct {
	Meta
	Name     string       `json:"name" validate:"required"`
	Type     CategoryType `json:"type" validate:"required,oneof=expense income"`
	Color    string       `json:"color" validate:"omitempty,hexcolor"`
	Icon     string       `json:"icon"`
	ParentID *int         `json:"parentId,omitempty"`
	IsActive bool         `json:"isActive"`
}
