package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/karasuda/kakeibo/internal/common"
	"github.com/karasuda/kakeibo/internal/model"
	"github.com/karasuda/kakeibo/internal/service"
)

// UserSummary derives the per-user rollup by scanning both transaction
// collections. Nothing is cached: every call recomputes from the current
// state, so deactivating a user never erases their totals.
func (s *Store) UserSummary(ctx context.Context, userID int) (*service.UserSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	user, err := s.users().findByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", common.ErrNotFound, userID)
	}

	summary := &service.UserSummary{
		TotalExpenses: decimal.Zero,
		TotalIncome:   decimal.Zero,
	}
	var last time.Time

	expenses, err := s.expenses().findWhere(ctx, func(e *model.Expense) bool { return e.UserID == userID })
	if err != nil {
		return nil, err
	}
	for i := range expenses {
		summary.TotalExpenses = summary.TotalExpenses.Add(expenses[i].Amount)
		summary.ExpenseCount++
		if t := expenses[i].LastTouched(); t.After(last) {
			last = t
		}
	}

	income, err := s.income().findWhere(ctx, func(in *model.Income) bool { return in.UserID == userID })
	if err != nil {
		return nil, err
	}
	for i := range income {
		summary.TotalIncome = summary.TotalIncome.Add(income[i].Amount)
		summary.IncomeCount++
		if t := income[i].LastTouched(); t.After(last) {
			last = t
		}
	}

	summary.TransactionCount = summary.ExpenseCount + summary.IncomeCount
	if !last.IsZero() {
		summary.LastActivity = &last
	}
	return summary, nil
}

// CategoryBreakdown derives per-category totals for one transaction kind,
// sorted by descending total. Categories with no transactions are omitted.
func (s *Store) CategoryBreakdown(ctx context.Context, kind model.TransactionKind) ([]service.CategoryTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown record kind %q", common.ErrValidation, kind)
	}

	totals := make(map[int]*service.CategoryTotal)
	accumulate := func(categoryID int, amount decimal.Decimal) {
		t, ok := totals[categoryID]
		if !ok {
			t = &service.CategoryTotal{CategoryID: categoryID, Total: decimal.Zero}
			totals[categoryID] = t
		}
		t.Total = t.Total.Add(amount)
		t.Count++
	}

	if kind == model.KindExpense {
		expenses, _, err := s.expenses().load(ctx)
		if err != nil {
			return nil, err
		}
		for i := range expenses {
			accumulate(expenses[i].CategoryID, expenses[i].Amount)
		}
	} else {
		income, _, err := s.income().load(ctx)
		if err != nil {
			return nil, err
		}
		for i := range income {
			accumulate(income[i].CategoryID, income[i].Amount)
		}
	}

	categories, _, err := s.categories().load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]service.CategoryTotal, 0, len(totals))
	for _, t := range totals {
		if cat := findCategory(categories, t.CategoryID); cat != nil {
			t.CategoryName = cat.Name
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out, nil
}
