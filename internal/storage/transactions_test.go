package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karasuda/kakeibo/internal/common"
	"github.com/karasuda/kakeibo/internal/model"
	"github.com/karasuda/kakeibo/internal/service"
)

func TestCreateExpense(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to pending", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)

		expense, err := store.CreateExpense(ctx, &model.Expense{
			Date:        model.NewDate(2026, time.March, 15),
			CategoryID:  cat.ID,
			Amount:      decimal.NewFromInt(1200),
			Description: "昼食",
			UserID:      user.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, model.ExpenseStatusPending, expense.Status)
		assert.NotZero(t, expense.ID)
	})

	t.Run("unknown user is rejected", func(t *testing.T) {
		store := createTestStore(t)
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)

		_, err := store.CreateExpense(ctx, &model.Expense{
			Date:       model.NewDate(2026, time.March, 15),
			CategoryID: cat.ID,
			Amount:     decimal.NewFromInt(1200),
			UserID:     99,
		})
		assert.ErrorIs(t, err, common.ErrReferential)
	})

	t.Run("unknown category is rejected", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")

		_, err := store.CreateExpense(ctx, &model.Expense{
			Date:       model.NewDate(2026, time.March, 15),
			CategoryID: 99,
			Amount:     decimal.NewFromInt(1200),
			UserID:     user.ID,
		})
		assert.ErrorIs(t, err, common.ErrReferential)
	})

	t.Run("income category is rejected for an expense", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		cat := seedTestCategory(t, store, "給与", model.CategoryTypeIncome)

		_, err := store.CreateExpense(ctx, &model.Expense{
			Date:       model.NewDate(2026, time.March, 15),
			CategoryID: cat.ID,
			Amount:     decimal.NewFromInt(1200),
			UserID:     user.ID,
		})
		assert.ErrorIs(t, err, common.ErrReferential)
	})

	t.Run("negative amount is rejected", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)

		_, err := store.CreateExpense(ctx, &model.Expense{
			Date:       model.NewDate(2026, time.March, 15),
			CategoryID: cat.ID,
			Amount:     decimal.NewFromInt(-500),
			UserID:     user.ID,
		})
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("missing date is rejected", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)

		_, err := store.CreateExpense(ctx, &model.Expense{
			CategoryID: cat.ID,
			Amount:     decimal.NewFromInt(500),
			UserID:     user.ID,
		})
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)

		_, err := store.CreateExpense(ctx, &model.Expense{
			Date:       model.NewDate(2026, time.March, 15),
			CategoryID: cat.ID,
			Amount:     decimal.NewFromInt(500),
			UserID:     user.ID,
			Status:     "settled",
		})
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestListExpensesFilter(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	hana := seedTestUser(t, store, "Hana", "hana@example.com")
	taro := seedTestUser(t, store, "Taro", "taro@example.com")
	food := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
	transport := seedTestCategory(t, store, "交通費", model.CategoryTypeExpense)

	mustCreate := func(userID, categoryID int, date model.Date, tags ...string) *model.Expense {
		expense, err := store.CreateExpense(ctx, &model.Expense{
			Date:       date,
			CategoryID: categoryID,
			Amount:     decimal.NewFromInt(1000),
			UserID:     userID,
			Tags:       tags,
		})
		require.NoError(t, err)
		return expense
	}

	march := model.NewDate(2026, time.March, 10)
	april := model.NewDate(2026, time.April, 10)
	mustCreate(hana.ID, food.ID, march, "lunch")
	mustCreate(hana.ID, transport.ID, april)
	mustCreate(taro.ID, food.ID, april, "lunch", "work")

	t.Run("by user", func(t *testing.T) {
		got, err := store.ListExpenses(ctx, service.TransactionFilter{UserID: &hana.ID})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("by category", func(t *testing.T) {
		got, err := store.ListExpenses(ctx, service.TransactionFilter{CategoryID: &food.ID})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("by date range inclusive", func(t *testing.T) {
		from := model.NewDate(2026, time.April, 10)
		to := model.NewDate(2026, time.April, 10)
		got, err := store.ListExpenses(ctx, service.TransactionFilter{From: &from, To: &to})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("by tag", func(t *testing.T) {
		got, err := store.ListExpenses(ctx, service.TransactionFilter{Tag: "work"})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("combined filters intersect", func(t *testing.T) {
		got, err := store.ListExpenses(ctx, service.TransactionFilter{UserID: &hana.ID, Tag: "lunch"})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("by status", func(t *testing.T) {
		got, err := store.ListExpenses(ctx, service.TransactionFilter{Status: "pending"})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})
}

func TestUpdateExpense(t *testing.T) {
	ctx := context.Background()

	t.Run("re-checks changed references", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		income := seedTestCategory(t, store, "給与", model.CategoryTypeIncome)
		expense := seedTestExpense(t, store, user.ID, cat.ID, "1200")

		_, err := store.UpdateExpense(ctx, expense.ID, service.ExpensePatch{CategoryID: &income.ID})
		assert.ErrorIs(t, err, common.ErrReferential)
	})

	t.Run("patches amount and description", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		expense := seedTestExpense(t, store, user.ID, cat.ID, "1200")

		amount := decimal.NewFromInt(1500)
		desc := "夕食"
		updated, err := store.UpdateExpense(ctx, expense.ID, service.ExpensePatch{Amount: &amount, Description: &desc})
		require.NoError(t, err)
		assert.True(t, updated.Amount.Equal(amount))
		assert.Equal(t, "夕食", updated.Description)
	})

	t.Run("unknown id", func(t *testing.T) {
		store := createTestStore(t)
		_, err := store.UpdateExpense(ctx, 99, service.ExpensePatch{})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestApproveAndRejectExpense(t *testing.T) {
	ctx := context.Background()

	t.Run("approve records the approver and time", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		approver := seedTestUser(t, store, "Boss", "boss@example.com")
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		expense := seedTestExpense(t, store, user.ID, cat.ID, "1200")

		approved, err := store.ApproveExpense(ctx, expense.ID, approver.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ExpenseStatusApproved, approved.Status)
		require.NotNil(t, approved.ApprovedBy)
		assert.Equal(t, approver.ID, *approved.ApprovedBy)
		assert.NotNil(t, approved.ApprovedAt)
	})

	t.Run("unknown approver is rejected", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		expense := seedTestExpense(t, store, user.ID, cat.ID, "1200")

		_, err := store.ApproveExpense(ctx, expense.ID, 99)
		assert.ErrorIs(t, err, common.ErrReferential)
	})

	t.Run("reject requires a reason and clears approval", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		approver := seedTestUser(t, store, "Boss", "boss@example.com")
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		expense := seedTestExpense(t, store, user.ID, cat.ID, "1200")

		_, err := store.ApproveExpense(ctx, expense.ID, approver.ID)
		require.NoError(t, err)

		_, err = store.RejectExpense(ctx, expense.ID, "")
		require.Error(t, err)

		rejected, err := store.RejectExpense(ctx, expense.ID, "missing receipt")
		require.NoError(t, err)
		assert.Equal(t, model.ExpenseStatusRejected, rejected.Status)
		assert.Equal(t, "missing receipt", rejected.RejectedReason)
		assert.Nil(t, rejected.ApprovedBy)
		assert.Nil(t, rejected.ApprovedAt)
	})
}

func TestCreateIncome(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to recorded", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		cat := seedTestCategory(t, store, "給与", model.CategoryTypeIncome)

		income, err := store.CreateIncome(ctx, &model.Income{
			Date:       model.NewDate(2026, time.March, 25),
			CategoryID: cat.ID,
			Amount:     decimal.NewFromInt(300000),
			UserID:     user.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, model.IncomeStatusRecorded, income.Status)
	})

	t.Run("expense category is rejected for income", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)

		_, err := store.CreateIncome(ctx, &model.Income{
			Date:       model.NewDate(2026, time.March, 25),
			CategoryID: cat.ID,
			Amount:     decimal.NewFromInt(300000),
			UserID:     user.ID,
		})
		assert.ErrorIs(t, err, common.ErrReferential)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		cat := seedTestCategory(t, store, "給与", model.CategoryTypeIncome)

		_, err := store.CreateIncome(ctx, &model.Income{
			Date:       model.NewDate(2026, time.March, 25),
			CategoryID: cat.ID,
			Amount:     decimal.NewFromInt(300000),
			UserID:     user.ID,
			Status:     "pending",
		})
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestUpdateIncomeStatus(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	user := seedTestUser(t, store, "Hana", "hana@example.com")
	cat := seedTestCategory(t, store, "給与", model.CategoryTypeIncome)
	income := seedTestIncome(t, store, user.ID, cat.ID, "300000")

	status := model.IncomeStatusConfirmed
	updated, err := store.UpdateIncome(ctx, income.ID, service.IncomePatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, model.IncomeStatusConfirmed, updated.Status)

	t.Run("unknown status patch is not persisted", func(t *testing.T) {
		bad := model.IncomeStatus("void")
		_, err := store.UpdateIncome(ctx, income.ID, service.IncomePatch{Status: &bad})
		require.ErrorIs(t, err, common.ErrValidation)

		stored, err := store.GetIncome(ctx, income.ID)
		require.NoError(t, err)
		assert.Equal(t, model.IncomeStatusConfirmed, stored.Status)
	})
}
