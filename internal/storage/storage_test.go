package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/karasuda/kakeibo/internal/kv"
	"github.com/karasuda/kakeibo/internal/model"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(kv.NewMemStore())
}

func seedTestUser(t *testing.T, store *Store, name, email string) *model.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), &model.User{
		Name:  name,
		Email: email,
	})
	require.NoError(t, err)
	return user
}

func seedTestCategory(t *testing.T, store *Store, name string, categoryType model.CategoryType) *model.Category {
	t.Helper()
	cat, err := store.CreateCategory(context.Background(), &model.Category{
		Name: name,
		Type: categoryType,
	})
	require.NoError(t, err)
	return cat
}

func seedTestExpense(t *testing.T, store *Store, userID, categoryID int, amount string) *model.Expense {
	t.Helper()
	expense, err := store.CreateExpense(context.Background(), &model.Expense{
		Date:       model.NewDate(2026, time.March, 15),
		CategoryID: categoryID,
		Amount:     decimal.RequireFromString(amount),
		UserID:     userID,
	})
	require.NoError(t, err)
	return expense
}

func seedTestIncome(t *testing.T, store *Store, userID, categoryID int, amount string) *model.Income {
	t.Helper()
	income, err := store.CreateIncome(context.Background(), &model.Income{
		Date:       model.NewDate(2026, time.March, 25),
		CategoryID: categoryID,
		Amount:     decimal.RequireFromString(amount),
		UserID:     userID,
	})
	require.NoError(t, err)
	return income
}

func intPtr(i int) *int { return &i }
