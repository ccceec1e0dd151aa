package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karasuda/kakeibo/internal/common"
	"github.com/karasuda/kakeibo/internal/model"
	"github.com/karasuda/kakeibo/internal/service"
)

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("create expense category", func(t *testing.T) {
		store := createTestStore(t)

		cat, err := store.CreateCategory(ctx, &model.Category{
			Name:  "食費",
			Type:  model.CategoryTypeExpense,
			Color: "#e74c3c",
			Icon:  "utensils",
		})
		require.NoError(t, err)
		assert.Equal(t, "食費", cat.Name)
		assert.Equal(t, model.CategoryTypeExpense, cat.Type)
		assert.True(t, cat.IsActive)
		assert.NotZero(t, cat.ID)
	})

	t.Run("duplicate name within type is rejected case-insensitively", func(t *testing.T) {
		store := createTestStore(t)
		seedTestCategory(t, store, "Groceries", model.CategoryTypeExpense)

		_, err := store.CreateCategory(ctx, &model.Category{
			Name: "groceries",
			Type: model.CategoryTypeExpense,
		})
		assert.ErrorIs(t, err, common.ErrDuplicateEntry)
	})

	t.Run("same name across types is allowed", func(t *testing.T) {
		store := createTestStore(t)
		seedTestCategory(t, store, "その他", model.CategoryTypeExpense)

		cat, err := store.CreateCategory(ctx, &model.Category{
			Name: "その他",
			Type: model.CategoryTypeIncome,
		})
		require.NoError(t, err)
		assert.Equal(t, model.CategoryTypeIncome, cat.Type)
	})

	t.Run("missing parent is rejected", func(t *testing.T) {
		store := createTestStore(t)

		_, err := store.CreateCategory(ctx, &model.Category{
			Name:     "外食",
			Type:     model.CategoryTypeExpense,
			ParentID: intPtr(99),
		})
		assert.ErrorIs(t, err, common.ErrReferential)
	})

	t.Run("parent of the other type is rejected", func(t *testing.T) {
		store := createTestStore(t)
		parent := seedTestCategory(t, store, "給与", model.CategoryTypeIncome)

		_, err := store.CreateCategory(ctx, &model.Category{
			Name:     "外食",
			Type:     model.CategoryTypeExpense,
			ParentID: &parent.ID,
		})
		assert.ErrorIs(t, err, common.ErrReferential)
	})

	t.Run("inactive parent is rejected", func(t *testing.T) {
		store := createTestStore(t)
		parent := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		require.NoError(t, store.DeactivateCategory(ctx, parent.ID))

		_, err := store.CreateCategory(ctx, &model.Category{
			Name:     "外食",
			Type:     model.CategoryTypeExpense,
			ParentID: &parent.ID,
		})
		assert.ErrorIs(t, err, common.ErrIntegrityGuard)
	})

	t.Run("invalid color is rejected", func(t *testing.T) {
		store := createTestStore(t)

		_, err := store.CreateCategory(ctx, &model.Category{
			Name:  "食費",
			Type:  model.CategoryTypeExpense,
			Color: "not-a-color",
		})
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("invalid type is rejected", func(t *testing.T) {
		store := createTestStore(t)

		_, err := store.CreateCategory(ctx, &model.Category{
			Name: "食費",
			Type: "savings",
		})
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestGetCategoryByName(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	seedTestCategory(t, store, "食費", model.CategoryTypeExpense)

	t.Run("match is case-insensitive within type", func(t *testing.T) {
		seedTestCategory(t, store, "Dining", model.CategoryTypeExpense)
		cat, err := store.GetCategoryByName(ctx, "dining", model.CategoryTypeExpense)
		require.NoError(t, err)
		require.NotNil(t, cat)
		assert.Equal(t, "Dining", cat.Name)
	})

	t.Run("wrong type returns nil without error", func(t *testing.T) {
		cat, err := store.GetCategoryByName(ctx, "食費", model.CategoryTypeIncome)
		require.NoError(t, err)
		assert.Nil(t, cat)
	})
}

func TestListCategories(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	active := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
	inactive := seedTestCategory(t, store, "日用品", model.CategoryTypeExpense)
	require.NoError(t, store.DeactivateCategory(ctx, inactive.ID))

	t.Run("default hides inactive", func(t *testing.T) {
		cats, err := store.ListCategories(ctx, false)
		require.NoError(t, err)
		require.Len(t, cats, 1)
		assert.Equal(t, active.ID, cats[0].ID)
	})

	t.Run("includeInactive returns everything", func(t *testing.T) {
		cats, err := store.ListCategories(ctx, true)
		require.NoError(t, err)
		assert.Len(t, cats, 2)
	})
}

func TestUpdateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("patches name and color", func(t *testing.T) {
		store := createTestStore(t)
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)

		name, color := "飲食費", "#ff0000"
		updated, err := store.UpdateCategory(ctx, cat.ID, service.CategoryPatch{Name: &name, Color: &color})
		require.NoError(t, err)
		assert.Equal(t, "飲食費", updated.Name)
		assert.Equal(t, "#ff0000", updated.Color)
		assert.Equal(t, model.CategoryTypeExpense, updated.Type)
	})

	t.Run("rename onto an existing name is rejected", func(t *testing.T) {
		store := createTestStore(t)
		seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		cat := seedTestCategory(t, store, "日用品", model.CategoryTypeExpense)

		name := "食費"
		_, err := store.UpdateCategory(ctx, cat.ID, service.CategoryPatch{Name: &name})
		assert.ErrorIs(t, err, common.ErrDuplicateEntry)
	})

	t.Run("unknown id", func(t *testing.T) {
		store := createTestStore(t)
		name := "x"
		_, err := store.UpdateCategory(ctx, 99, service.CategoryPatch{Name: &name})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("rejected patch leaves the stored record untouched", func(t *testing.T) {
		store := createTestStore(t)
		cat, err := store.CreateCategory(ctx, &model.Category{
			Name:  "食費",
			Type:  model.CategoryTypeExpense,
			Color: "#e74c3c",
		})
		require.NoError(t, err)

		color := "not-a-color"
		_, err = store.UpdateCategory(ctx, cat.ID, service.CategoryPatch{Color: &color})
		require.ErrorIs(t, err, common.ErrValidation)

		stored, err := store.GetCategory(ctx, cat.ID)
		require.NoError(t, err)
		assert.Equal(t, "#e74c3c", stored.Color)
	})
}

func TestReparentCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("moves under a new parent", func(t *testing.T) {
		store := createTestStore(t)
		parent := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		child := seedTestCategory(t, store, "外食", model.CategoryTypeExpense)

		updated, err := store.ReparentCategory(ctx, child.ID, &parent.ID)
		require.NoError(t, err)
		require.NotNil(t, updated.ParentID)
		assert.Equal(t, parent.ID, *updated.ParentID)

		children, err := store.ListChildCategories(ctx, parent.ID)
		require.NoError(t, err)
		require.Len(t, children, 1)
		assert.Equal(t, child.ID, children[0].ID)
	})

	t.Run("moves to root", func(t *testing.T) {
		store := createTestStore(t)
		parent := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		child := seedTestCategory(t, store, "外食", model.CategoryTypeExpense)
		_, err := store.ReparentCategory(ctx, child.ID, &parent.ID)
		require.NoError(t, err)

		updated, err := store.ReparentCategory(ctx, child.ID, nil)
		require.NoError(t, err)
		assert.Nil(t, updated.ParentID)
	})

	t.Run("self-parent is a cycle", func(t *testing.T) {
		store := createTestStore(t)
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)

		_, err := store.ReparentCategory(ctx, cat.ID, &cat.ID)
		assert.ErrorIs(t, err, common.ErrCycle)
	})

	t.Run("moving under a descendant is a cycle", func(t *testing.T) {
		store := createTestStore(t)
		a := seedTestCategory(t, store, "A", model.CategoryTypeExpense)
		b := seedTestCategory(t, store, "B", model.CategoryTypeExpense)
		c := seedTestCategory(t, store, "C", model.CategoryTypeExpense)
		_, err := store.ReparentCategory(ctx, b.ID, &a.ID)
		require.NoError(t, err)
		_, err = store.ReparentCategory(ctx, c.ID, &b.ID)
		require.NoError(t, err)

		_, err = store.ReparentCategory(ctx, a.ID, &c.ID)
		assert.ErrorIs(t, err, common.ErrCycle)
	})

	t.Run("cross-type parent is rejected", func(t *testing.T) {
		store := createTestStore(t)
		expense := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		income := seedTestCategory(t, store, "給与", model.CategoryTypeIncome)

		_, err := store.ReparentCategory(ctx, expense.ID, &income.ID)
		assert.ErrorIs(t, err, common.ErrReferential)
	})

	t.Run("active category cannot move under an inactive parent", func(t *testing.T) {
		store := createTestStore(t)
		parent := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		other := seedTestCategory(t, store, "日用品", model.CategoryTypeExpense)
		require.NoError(t, store.DeactivateCategory(ctx, parent.ID))

		_, err := store.ReparentCategory(ctx, other.ID, &parent.ID)
		require.ErrorIs(t, err, common.ErrIntegrityGuard)

		stored, err := store.GetCategory(ctx, other.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.ParentID)
	})

	t.Run("inactive category may move under an inactive parent", func(t *testing.T) {
		store := createTestStore(t)
		parent := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		child := seedTestCategory(t, store, "日用品", model.CategoryTypeExpense)
		require.NoError(t, store.DeactivateCategory(ctx, parent.ID))
		require.NoError(t, store.DeactivateCategory(ctx, child.ID))

		updated, err := store.ReparentCategory(ctx, child.ID, &parent.ID)
		require.NoError(t, err)
		require.NotNil(t, updated.ParentID)
		assert.Equal(t, parent.ID, *updated.ParentID)
	})
}

func TestCheckAncestorChainCorruptHierarchy(t *testing.T) {
	// A stored parent loop (not reachable through the public API) must not
	// hang the walk; it is reported as a cycle.
	a := model.Category{Meta: model.Meta{ID: 1}, Name: "A", Type: model.CategoryTypeExpense, ParentID: intPtr(2)}
	b := model.Category{Meta: model.Meta{ID: 2}, Name: "B", Type: model.CategoryTypeExpense, ParentID: intPtr(1)}

	err := checkAncestorChain([]model.Category{a, b}, 3, 1)
	assert.ErrorIs(t, err, common.ErrCycle)
}

func TestDeactivateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("cascades to all descendants, children first", func(t *testing.T) {
		store := createTestStore(t)
		root := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		mid := seedTestCategory(t, store, "外食", model.CategoryTypeExpense)
		leaf := seedTestCategory(t, store, "カフェ", model.CategoryTypeExpense)
		_, err := store.ReparentCategory(ctx, mid.ID, &root.ID)
		require.NoError(t, err)
		_, err = store.ReparentCategory(ctx, leaf.ID, &mid.ID)
		require.NoError(t, err)

		require.NoError(t, store.DeactivateCategory(ctx, root.ID))

		for _, id := range []int{root.ID, mid.ID, leaf.ID} {
			cat, err := store.GetCategory(ctx, id)
			require.NoError(t, err)
			assert.False(t, cat.IsActive, "category %d should be inactive", id)
		}
	})

	t.Run("never cascades upward", func(t *testing.T) {
		store := createTestStore(t)
		parent := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		child := seedTestCategory(t, store, "外食", model.CategoryTypeExpense)
		_, err := store.ReparentCategory(ctx, child.ID, &parent.ID)
		require.NoError(t, err)

		require.NoError(t, store.DeactivateCategory(ctx, child.ID))

		got, err := store.GetCategory(ctx, parent.ID)
		require.NoError(t, err)
		assert.True(t, got.IsActive)
	})

	t.Run("rejected while transactions reference the category", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		seedTestExpense(t, store, user.ID, cat.ID, "1200")

		err := store.DeactivateCategory(ctx, cat.ID)
		assert.ErrorIs(t, err, common.ErrIntegrityGuard)
	})

	t.Run("already inactive is a no-op", func(t *testing.T) {
		store := createTestStore(t)
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		require.NoError(t, store.DeactivateCategory(ctx, cat.ID))
		require.NoError(t, store.DeactivateCategory(ctx, cat.ID))
	})
}

func TestReactivateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("reactivates a deactivated category", func(t *testing.T) {
		store := createTestStore(t)
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		require.NoError(t, store.DeactivateCategory(ctx, cat.ID))

		require.NoError(t, store.ReactivateCategory(ctx, cat.ID))
		got, err := store.GetCategory(ctx, cat.ID)
		require.NoError(t, err)
		assert.True(t, got.IsActive)
	})

	t.Run("rejected while the parent is inactive", func(t *testing.T) {
		store := createTestStore(t)
		parent := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		child := seedTestCategory(t, store, "外食", model.CategoryTypeExpense)
		_, err := store.ReparentCategory(ctx, child.ID, &parent.ID)
		require.NoError(t, err)
		require.NoError(t, store.DeactivateCategory(ctx, parent.ID))

		err = store.ReactivateCategory(ctx, child.ID)
		assert.ErrorIs(t, err, common.ErrIntegrityGuard)
	})
}

func TestDeleteCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes an unused leaf", func(t *testing.T) {
		store := createTestStore(t)
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)

		require.NoError(t, store.DeleteCategory(ctx, cat.ID))
		_, err := store.GetCategory(ctx, cat.ID)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("rejected while transactions reference it", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		cat := seedTestCategory(t, store, "給与", model.CategoryTypeIncome)
		seedTestIncome(t, store, user.ID, cat.ID, "300000")

		err := store.DeleteCategory(ctx, cat.ID)
		assert.ErrorIs(t, err, common.ErrIntegrityGuard)
	})

	t.Run("rejected while it has children", func(t *testing.T) {
		store := createTestStore(t)
		parent := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		child := seedTestCategory(t, store, "外食", model.CategoryTypeExpense)
		_, err := store.ReparentCategory(ctx, child.ID, &parent.ID)
		require.NoError(t, err)

		err = store.DeleteCategory(ctx, parent.ID)
		assert.ErrorIs(t, err, common.ErrIntegrityGuard)
	})
}
