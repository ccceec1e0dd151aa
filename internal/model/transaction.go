package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind identifies the two transaction-like record kinds.
type TransactionKind string

const (
	// KindExpense identifies expense records.
	KindExpense TransactionKind = "expense"
	// KindIncome identifies income records.
	KindIncome TransactionKind = "income"
)

// Valid reports whether k is a known transaction kind.
func (k TransactionKind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

// CategoryType returns the category type a transaction of this kind must
// reference.
func (k TransactionKind) CategoryType() CategoryType {
	if k == KindIncome {
		return CategoryTypeIncome
	}
	return CategoryTypeExpense
}

// ExpenseStatus tracks an expense through its approval workflow.
type ExpenseStatus string

const (
	// ExpenseStatusPending is the initial state of a recorded expense.
	ExpenseStatusPending ExpenseStatus = "pending"
	// ExpenseStatusApproved marks an expense accepted by an approver.
	ExpenseStatusApproved ExpenseStatus = "approved"
	// ExpenseStatusRejected marks an expense declined by an approver.
	ExpenseStatusRejected ExpenseStatus = "rejected"
)

// IncomeStatus tracks whether an income record has been confirmed against a
// statement.
type IncomeStatus string

const (
	// IncomeStatusRecorded is the initial state of an income record.
	IncomeStatusRecorded IncomeStatus = "recorded"
	// IncomeStatusConfirmed marks income verified against a statement.
	IncomeStatusConfirmed IncomeStatus = "confirmed"
)

// Expense represents a single spending record.
type Expense struct {
	Meta
	Date           Date            `json:"date"`
	CategoryID     int             `json:"categoryId" validate:"required"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	UserID         int             `json:"userId" validate:"required"`
	Tags           []string        `json:"tags,omitempty"`
	AttachmentIDs  []int           `json:"attachmentIds,omitempty"`
	Status         ExpenseStatus   `json:"status" validate:"required,oneof=pending approved rejected"`
	ApprovedBy     *int            `json:"approvedBy,omitempty"`
	ApprovedAt     *time.Time      `json:"approvedAt,omitempty"`
	RejectedReason string          `json:"rejectedReason,omitempty"`
}

// Income represents a single earning record.
type Income struct {
	Meta
	Date          Date            `json:"date"`
	CategoryID    int             `json:"categoryId" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	UserID        int             `json:"userId" validate:"required"`
	Tags          []string        `json:"tags,omitempty"`
	AttachmentIDs []int           `json:"attachmentIds,omitempty"`
	Status        IncomeStatus    `json:"status" validate:"required,oneof=recorded confirmed"`
}
