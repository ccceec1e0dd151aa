// Package service defines the contracts and shared types of the data layer.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/karasuda/kakeibo/internal/model"
)

// TransactionFilter narrows expense and income listings. Nil fields match
// everything; matching is a linear scan over the collection.
type TransactionFilter struct {
	UserID     *int
	CategoryID *int
	From       *model.Date
	To         *model.Date
	Status     string
	Tag        string
}

// CategoryPatch describes a partial update to a category. Nil fields are left
// unchanged. A category's type cannot be patched; reparenting goes through
// ReparentCategory so the cycle check always runs.
type CategoryPatch struct {
	Name  *string
	Color *string
	Icon  *string
}

// UserPatch describes a partial update to a user. Nil fields are left
// unchanged.
type UserPatch struct {
	Name       *string
	Email      *string
	Department *string
	Role       *string
	Phone      *string
	Avatar     *string
}

// ExpensePatch describes a partial update to an expense. Nil fields are left
// unchanged. Approval metadata changes go through Approve/Reject.
type ExpensePatch struct {
	Date          *model.Date
	CategoryID    *int
	Amount        *decimal.Decimal
	Description   *string
	UserID        *int
	Tags          *[]string
	AttachmentIDs *[]int
}

// IncomePatch describes a partial update to an income record.
type IncomePatch struct {
	Date          *model.Date
	CategoryID    *int
	Amount        *decimal.Decimal
	Description   *string
	UserID        *int
	Tags          *[]string
	AttachmentIDs *[]int
	Status        *model.IncomeStatus
}

// UserSummary is the per-user rollup derived from the transaction collections.
// It is recomputed on every read.
type UserSummary struct {
	LastActivity     *time.Time
	TotalExpenses    decimal.Decimal
	TotalIncome      decimal.Decimal
	ExpenseCount     int
	IncomeCount      int
	TransactionCount int
}

// CategoryTotal is the per-category rollup for one transaction kind.
type CategoryTotal struct {
	CategoryName string
	Total        decimal.Decimal
	CategoryID   int
	Count        int
}

// CleanupResult reports the outcome of an age-based trash sweep.
type CleanupResult struct {
	Deleted   int
	Remaining int
}

// ExportedSetting is one settings entry in an export document.
type ExportedSetting struct {
	Value       any               `json:"value"`
	Type        model.SettingType `json:"type"`
	Description string            `json:"description,omitempty"`
}

// SettingsExport is the settings portion of the interchange format.
type SettingsExport struct {
	ExportedAt time.Time                  `json:"exported_at"`
	Version    string                     `json:"version"`
	Settings   map[string]ExportedSetting `json:"settings"`
}

// DataPayload mirrors the in-memory collections in an export document.
type DataPayload struct {
	Users      []model.User     `json:"users"`
	Categories []model.Category `json:"categories"`
	Expenses   []model.Expense  `json:"expenses"`
	Income     []model.Income   `json:"income"`
}

// DataExport is the full-ledger interchange format.
type DataExport struct {
	ExportedAt time.Time                  `json:"exported_at"`
	Version    string                     `json:"version"`
	Data       DataPayload                `json:"data"`
	Settings   map[string]ExportedSetting `json:"settings,omitempty"`
}

// Progress is invoked once per item processed during a bulk operation. A nil
// Progress is ignored.
type Progress func()

// ImportError records a single failed item inside a bulk import.
type ImportError struct {
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

// ImportReport accumulates the outcome of a bulk import. A failed item is
// recorded and the batch continues; prior writes are not rolled back.
type ImportReport struct {
	Errors   []ImportError `json:"errors,omitempty"`
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
}

// Add records one failed item.
func (r *ImportReport) Add(item string, err error) {
	r.Errors = append(r.Errors, ImportError{Item: item, Reason: err.Error()})
}

// Storage defines the contract of the embedded relational data layer.
type Storage interface {
	// Lifecycle
	Initialize(ctx context.Context) error

	// Category operations
	CreateCategory(ctx context.Context, category *model.Category) (*model.Category, error)
	GetCategory(ctx context.Context, id int) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string, categoryType model.CategoryType) (*model.Category, error)
	ListCategories(ctx context.Context, includeInactive bool) ([]model.Category, error)
	ListChildCategories(ctx context.Context, parentID int) ([]model.Category, error)
	UpdateCategory(ctx context.Context, id int, patch CategoryPatch) (*model.Category, error)
	ReparentCategory(ctx context.Context, id int, newParentID *int) (*model.Category, error)
	DeactivateCategory(ctx context.Context, id int) error
	ReactivateCategory(ctx context.Context, id int) error
	DeleteCategory(ctx context.Context, id int) error

	// User operations
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id int) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, id int, patch UserPatch) (*model.User, error)
	DeactivateUser(ctx context.Context, id int) error
	ReactivateUser(ctx context.Context, id int) error
	DeleteUser(ctx context.Context, id int) error

	// Expense operations
	CreateExpense(ctx context.Context, expense *model.Expense) (*model.Expense, error)
	GetExpense(ctx context.Context, id int) (*model.Expense, error)
	ListExpenses(ctx context.Context, filter TransactionFilter) ([]model.Expense, error)
	UpdateExpense(ctx context.Context, id int, patch ExpensePatch) (*model.Expense, error)
	ApproveExpense(ctx context.Context, id, approverID int) (*model.Expense, error)
	RejectExpense(ctx context.Context, id int, reason string) (*model.Expense, error)

	// Income operations
	CreateIncome(ctx context.Context, income *model.Income) (*model.Income, error)
	GetIncome(ctx context.Context, id int) (*model.Income, error)
	ListIncome(ctx context.Context, filter TransactionFilter) ([]model.Income, error)
	UpdateIncome(ctx context.Context, id int, patch IncomePatch) (*model.Income, error)

	// Soft delete and recovery
	MoveToTrash(ctx context.Context, kind model.TransactionKind, id int, reason string) (*model.TrashEntry, error)
	RestoreFromTrash(ctx context.Context, trashID string) (model.TransactionKind, int, error)
	ListTrash(ctx context.Context) ([]model.TrashEntry, error)
	PermanentlyDelete(ctx context.Context, trashID string) error
	EmptyTrash(ctx context.Context) (int, error)
	CleanupOldTrash(ctx context.Context, daysOld int) (*CleanupResult, error)

	// Typed settings
	GetSetting(ctx context.Context, key string) (model.SettingValue, error)
	SetSetting(ctx context.Context, key string, value any, settingType model.SettingType, description string) error
	AllSettings(ctx context.Context) (map[string]model.SettingValue, error)
	SetSettings(ctx context.Context, values map[string]any) error
	ResetAllSettings(ctx context.Context) error
	ExportSettings(ctx context.Context) (*SettingsExport, error)
	ImportSettings(ctx context.Context, doc *SettingsExport) (*ImportReport, error)

	// Aggregation
	UserSummary(ctx context.Context, userID int) (*UserSummary, error)
	CategoryBreakdown(ctx context.Context, kind model.TransactionKind) ([]CategoryTotal, error)

	// Export/import
	ExportData(ctx context.Context) (*DataExport, error)
	ImportData(ctx context.Context, doc *DataExport, progress Progress) (*ImportReport, error)
}
