package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/karasuda/kakeibo/internal/common"
	"github.com/karasuda/kakeibo/internal/model"
	"github.com/karasuda/kakeibo/internal/service"
)

// checkTransactionRefs enforces the foreign keys every transaction-like
// record carries: userId must resolve to an existing user and categoryId to
// an existing category whose type matches the record kind.
func (s *Store) checkTransactionRefs(ctx context.Context, userID, categoryID int, kind model.TransactionKind) error {
	user, err := s.users().findByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: user %d does not exist", common.ErrReferential, userID)
	}

	category, err := s.categories().findByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("%w: category %d does not exist", common.ErrReferential, categoryID)
	}
	if category.Type != kind.CategoryType() {
		return fmt.Errorf("%w: category %q is %s, cannot be used for %s",
			common.ErrReferential, category.Name, category.Type, kind)
	}
	return nil
}

// matchTransaction applies a TransactionFilter to one record's fields.
func matchTransaction(f service.TransactionFilter, userID, categoryID int, date model.Date, status string, tags []string) bool {
	if f.UserID != nil && userID != *f.UserID {
		return false
	}
	if f.CategoryID != nil && categoryID != *f.CategoryID {
		return false
	}
	if f.From != nil && date.Before(*f.From) {
		return false
	}
	if f.To != nil && date.After(*f.To) {
		return false
	}
	if f.Status != "" && status != f.Status {
		return false
	}
	if f.Tag != "" {
		found := false
		for _, t := range tags {
			if t == f.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// CreateExpense records a new expense after checking its references.
func (s *Store) CreateExpense(ctx context.Context, expense *model.Expense) (*model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, fmt.Errorf("%w: expense", ErrNilParameter)
	}
	if expense.Status == "" {
		expense.Status = model.ExpenseStatusPending
	}
	if err := s.validateStruct(expense); err != nil {
		return nil, err
	}
	if err := validateAmount(expense.Amount); err != nil {
		return nil, err
	}
	if expense.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", common.ErrValidation)
	}
	if err := s.checkTransactionRefs(ctx, expense.UserID, expense.CategoryID, model.KindExpense); err != nil {
		return nil, err
	}

	created, err := s.expenses().insert(ctx, expense)
	if err != nil {
		return nil, err
	}
	slog.Debug("created expense", "id", created.ID, "user", created.UserID, "amount", created.Amount)
	return created, nil
}

// GetExpense returns an expense by id.
func (s *Store) GetExpense(ctx context.Context, id int) (*model.Expense, error) {
	expense, err := s.expenses().findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, fmt.Errorf("%w: expense %d", common.ErrNotFound, id)
	}
	return expense, nil
}

// ListExpenses returns expenses matching the filter, in collection order.
func (s *Store) ListExpenses(ctx context.Context, filter service.TransactionFilter) ([]model.Expense, error) {
	return s.expenses().findWhere(ctx, func(e *model.Expense) bool {
		return matchTransaction(filter, e.UserID, e.CategoryID, e.Date, string(e.Status), e.Tags)
	})
}

// UpdateExpense applies a partial update to an expense, re-checking any
// reference the patch changes.
func (s *Store) UpdateExpense(ctx context.Context, id int, patch service.ExpensePatch) (*model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	existing, err := s.expenses().findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: expense %d", common.ErrNotFound, id)
	}

	if patch.Amount != nil {
		if err := validateAmount(*patch.Amount); err != nil {
			return nil, err
		}
	}
	if patch.UserID != nil || patch.CategoryID != nil {
		userID, categoryID := existing.UserID, existing.CategoryID
		if patch.UserID != nil {
			userID = *patch.UserID
		}
		if patch.CategoryID != nil {
			categoryID = *patch.CategoryID
		}
		if err := s.checkTransactionRefs(ctx, userID, categoryID, model.KindExpense); err != nil {
			return nil, err
		}
	}

	updated, err := s.expenses().update(ctx, id, func(e *model.Expense) error {
		if patch.Date != nil {
			e.Date = *patch.Date
		}
		if patch.CategoryID != nil {
			e.CategoryID = *patch.CategoryID
		}
		if patch.Amount != nil {
			e.Amount = *patch.Amount
		}
		if patch.Description != nil {
			e.Description = *patch.Description
		}
		if patch.UserID != nil {
			e.UserID = *patch.UserID
		}
		if patch.Tags != nil {
			e.Tags = *patch.Tags
		}
		if patch.AttachmentIDs != nil {
			e.AttachmentIDs = *patch.AttachmentIDs
		}
		return s.validateStruct(e)
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: expense %d", common.ErrNotFound, id)
	}
	return updated, nil
}

// ApproveExpense marks an expense approved by the given user.
func (s *Store) ApproveExpense(ctx context.Context, id, approverID int) (*model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	approver, err := s.users().findByID(ctx, approverID)
	if err != nil {
		return nil, err
	}
	if approver == nil {
		return nil, fmt.Errorf("%w: approver %d does not exist", common.ErrReferential, approverID)
	}

	now := s.now()
	updated, err := s.expenses().update(ctx, id, func(e *model.Expense) error {
		e.Status = model.ExpenseStatusApproved
		e.ApprovedBy = &approverID
		e.ApprovedAt = &now
		e.RejectedReason = ""
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: expense %d", common.ErrNotFound, id)
	}
	slog.Info("approved expense", "id", id, "approver", approverID)
	return updated, nil
}

// RejectExpense marks an expense rejected with a reason.
func (s *Store) RejectExpense(ctx context.Context, id int, reason string) (*model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(reason, "reason"); err != nil {
		return nil, err
	}

	updated, err := s.expenses().update(ctx, id, func(e *model.Expense) error {
		e.Status = model.ExpenseStatusRejected
		e.RejectedReason = reason
		e.ApprovedBy = nil
		e.ApprovedAt = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: expense %d", common.ErrNotFound, id)
	}
	slog.Info("rejected expense", "id", id, "reason", reason)
	return updated, nil
}

// CreateIncome records a new income entry after checking its references.
func (s *Store) CreateIncome(ctx context.Context, income *model.Income) (*model.Income, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if income == nil {
		return nil, fmt.Errorf("%w: income", ErrNilParameter)
	}
	if income.Status == "" {
		income.Status = model.IncomeStatusRecorded
	}
	if err := s.validateStruct(income); err != nil {
		return nil, err
	}
	if err := validateAmount(income.Amount); err != nil {
		return nil, err
	}
	if income.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", common.ErrValidation)
	}
	if err := s.checkTransactionRefs(ctx, income.UserID, income.CategoryID, model.KindIncome); err != nil {
		return nil, err
	}

	created, err := s.income().insert(ctx, income)
	if err != nil {
		return nil, err
	}
	slog.Debug("created income", "id", created.ID, "user", created.UserID, "amount", created.Amount)
	return created, nil
}

// GetIncome returns an income record by id.
func (s *Store) GetIncome(ctx context.Context, id int) (*model.Income, error) {
	income, err := s.income().findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if income == nil {
		return nil, fmt.Errorf("%w: income %d", common.ErrNotFound, id)
	}
	return income, nil
}

// ListIncome returns income records matching the filter, in collection order.
func (s *Store) ListIncome(ctx context.Context, filter service.TransactionFilter) ([]model.Income, error) {
	return s.income().findWhere(ctx, func(in *model.Income) bool {
		return matchTransaction(filter, in.UserID, in.CategoryID, in.Date, string(in.Status), in.Tags)
	})
}

// UpdateIncome applies a partial update to an income record, re-checking any
// reference the patch changes.
func (s *Store) UpdateIncome(ctx context.Context, id int, patch service.IncomePatch) (*model.Income, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	existing, err := s.income().findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: income %d", common.ErrNotFound, id)
	}

	if patch.Amount != nil {
		if err := validateAmount(*patch.Amount); err != nil {
			return nil, err
		}
	}
	if patch.UserID != nil || patch.CategoryID != nil {
		userID, categoryID := existing.UserID, existing.CategoryID
		if patch.UserID != nil {
			userID = *patch.UserID
		}
		if patch.CategoryID != nil {
			categoryID = *patch.CategoryID
		}
		if err := s.checkTransactionRefs(ctx, userID, categoryID, model.KindIncome); err != nil {
			return nil, err
		}
	}

	updated, err := s.income().update(ctx, id, func(in *model.Income) error {
		if patch.Date != nil {
			in.Date = *patch.Date
		}
		if patch.CategoryID != nil {
			in.CategoryID = *patch.CategoryID
		}
		if patch.Amount != nil {
			in.Amount = *patch.Amount
		}
		if patch.Description != nil {
			in.Description = *patch.Description
		}
		if patch.UserID != nil {
			in.UserID = *patch.UserID
		}
		if patch.Tags != nil {
			in.Tags = *patch.Tags
		}
		if patch.AttachmentIDs != nil {
			in.AttachmentIDs = *patch.AttachmentIDs
		}
		if patch.Status != nil {
			in.Status = *patch.Status
		}
		return s.validateStruct(in)
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: income %d", common.ErrNotFound, id)
	}
	return updated, nil
}
