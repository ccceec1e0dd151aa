package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karasuda/kakeibo/internal/common"
	"github.com/karasuda/kakeibo/internal/model"
)

func TestUserSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("sums both collections", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		other := seedTestUser(t, store, "Taro", "taro@example.com")
		food := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		salary := seedTestCategory(t, store, "給与", model.CategoryTypeIncome)

		seedTestExpense(t, store, user.ID, food.ID, "1200")
		seedTestExpense(t, store, user.ID, food.ID, "800.50")
		seedTestIncome(t, store, user.ID, salary.ID, "300000")
		seedTestExpense(t, store, other.ID, food.ID, "9999")

		summary, err := store.UserSummary(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "2000.5", summary.TotalExpenses.String())
		assert.Equal(t, "300000", summary.TotalIncome.String())
		assert.Equal(t, 2, summary.ExpenseCount)
		assert.Equal(t, 1, summary.IncomeCount)
		assert.Equal(t, 3, summary.TransactionCount)
		assert.NotNil(t, summary.LastActivity)
	})

	t.Run("user with no transactions", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")

		summary, err := store.UserSummary(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, summary.TotalExpenses.IsZero())
		assert.True(t, summary.TotalIncome.IsZero())
		assert.Zero(t, summary.TransactionCount)
		assert.Nil(t, summary.LastActivity)
	})

	t.Run("deactivating a user keeps their totals", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		food := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		seedTestExpense(t, store, user.ID, food.ID, "1200")

		require.NoError(t, store.DeactivateUser(ctx, user.ID))

		summary, err := store.UserSummary(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "1200", summary.TotalExpenses.String())
		assert.Equal(t, 1, summary.ExpenseCount)
	})

	t.Run("unknown user", func(t *testing.T) {
		store := createTestStore(t)
		_, err := store.UserSummary(ctx, 99)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestCategoryBreakdown(t *testing.T) {
	ctx := context.Background()

	t.Run("sorted by descending total", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		food := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		transport := seedTestCategory(t, store, "交通費", model.CategoryTypeExpense)
		unused := seedTestCategory(t, store, "医療費", model.CategoryTypeExpense)

		seedTestExpense(t, store, user.ID, food.ID, "500")
		seedTestExpense(t, store, user.ID, food.ID, "700")
		seedTestExpense(t, store, user.ID, transport.ID, "3000")

		totals, err := store.CategoryBreakdown(ctx, model.KindExpense)
		require.NoError(t, err)
		require.Len(t, totals, 2, "category %d with no transactions is omitted", unused.ID)

		assert.Equal(t, transport.ID, totals[0].CategoryID)
		assert.Equal(t, "交通費", totals[0].CategoryName)
		assert.Equal(t, "3000", totals[0].Total.String())
		assert.Equal(t, 1, totals[0].Count)

		assert.Equal(t, food.ID, totals[1].CategoryID)
		assert.Equal(t, "1200", totals[1].Total.String())
		assert.Equal(t, 2, totals[1].Count)
	})

	t.Run("income kind scans the income collection", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		salary := seedTestCategory(t, store, "給与", model.CategoryTypeIncome)
		seedTestIncome(t, store, user.ID, salary.ID, "300000")

		totals, err := store.CategoryBreakdown(ctx, model.KindIncome)
		require.NoError(t, err)
		require.Len(t, totals, 1)
		assert.Equal(t, salary.ID, totals[0].CategoryID)
	})

	t.Run("unknown kind is rejected", func(t *testing.T) {
		store := createTestStore(t)
		_, err := store.CategoryBreakdown(ctx, "transfer")
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}
