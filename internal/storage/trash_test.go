package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karasuda/kakeibo/internal/common"
	"github.com/karasuda/kakeibo/internal/kv"
	"github.com/karasuda/kakeibo/internal/model"
)

func TestMoveToTrash(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the expense and quarantines it with provenance", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		expense := seedTestExpense(t, store, user.ID, cat.ID, "1200")

		entry, err := store.MoveToTrash(ctx, model.KindExpense, expense.ID, "duplicate entry")
		require.NoError(t, err)
		assert.NotEmpty(t, entry.TrashID)
		assert.Equal(t, model.KindExpense, entry.OriginalType)
		assert.Equal(t, "duplicate entry", entry.DeletedReason)
		assert.False(t, entry.DeletedAt.IsZero())

		_, err = store.GetExpense(ctx, expense.ID)
		assert.ErrorIs(t, err, common.ErrNotFound)

		entries, err := store.ListTrash(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("unknown id writes nothing", func(t *testing.T) {
		store := createTestStore(t)

		_, err := store.MoveToTrash(ctx, model.KindExpense, 99, "")
		assert.ErrorIs(t, err, common.ErrNotFound)

		entries, err := store.ListTrash(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("unknown kind is rejected", func(t *testing.T) {
		store := createTestStore(t)

		_, err := store.MoveToTrash(ctx, "category", 1, "")
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("failed trash write keeps the record in its origin", func(t *testing.T) {
		substrate := &blockedKeySubstrate{Store: kv.NewMemStore()}
		store := NewStore(substrate)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		expense := seedTestExpense(t, store, user.ID, cat.ID, "1200")

		substrate.blocked = keyPrefix + colTrash
		_, err := store.MoveToTrash(ctx, model.KindExpense, expense.ID, "duplicate entry")
		require.Error(t, err)

		substrate.blocked = ""
		stored, err := store.GetExpense(ctx, expense.ID)
		require.NoError(t, err)
		assert.Equal(t, expense.ID, stored.ID)

		entries, err := store.ListTrash(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

// blockedKeySubstrate rejects writes to one key, standing in for a substrate
// failure mid-operation.
type blockedKeySubstrate struct {
	kv.Store
	blocked string
}

func (b *blockedKeySubstrate) Set(key string, value json.RawMessage) error {
	if b.blocked != "" && key == b.blocked {
		return errors.New("write refused")
	}
	return b.Store.Set(key, value)
}

func TestRestoreFromTrash(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip restores the record unchanged", func(t *testing.T) {
		store := createTestStore(t)
		store.now = func() time.Time { return time.Date(2026, time.February, 1, 8, 0, 0, 0, time.UTC) }
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
		expense := seedTestExpense(t, store, user.ID, cat.ID, "1200")

		entry, err := store.MoveToTrash(ctx, model.KindExpense, expense.ID, "fat finger")
		require.NoError(t, err)

		kind, restoredID, err := store.RestoreFromTrash(ctx, entry.TrashID)
		require.NoError(t, err)
		assert.Equal(t, model.KindExpense, kind)
		assert.Equal(t, expense.ID, restoredID)

		restored, err := store.GetExpense(ctx, restoredID)
		require.NoError(t, err)
		assert.True(t, restored.Amount.Equal(expense.Amount))
		assert.True(t, restored.CreatedAt.Equal(expense.CreatedAt), "restore must not re-stamp CreatedAt")
		assert.True(t, restored.UpdatedAt.Equal(expense.UpdatedAt), "restore must not re-stamp UpdatedAt")

		entries, err := store.ListTrash(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries, "the trash entry is consumed by the restore")
	})

	t.Run("mints a fresh id when the original was reissued", func(t *testing.T) {
		store := createTestStore(t)
		user := seedTestUser(t, store, "Hana", "hana@example.com")
		cat := seedTestCategory(t, store, "給与", model.CategoryTypeIncome)
		income := seedTestIncome(t, store, user.ID, cat.ID, "300000")

		entry, err := store.MoveToTrash(ctx, model.KindIncome, income.ID, "")
		require.NoError(t, err)

		// A new record takes the freed id while the entry sits in trash.
		squatter := seedTestIncome(t, store, user.ID, cat.ID, "50000")
		require.Equal(t, income.ID, squatter.ID)

		kind, restoredID, err := store.RestoreFromTrash(ctx, entry.TrashID)
		require.NoError(t, err)
		assert.Equal(t, model.KindIncome, kind)
		assert.NotEqual(t, income.ID, restoredID)

		restored, err := store.GetIncome(ctx, restoredID)
		require.NoError(t, err)
		assert.True(t, restored.Amount.Equal(income.Amount))
	})

	t.Run("unknown trash id", func(t *testing.T) {
		store := createTestStore(t)
		_, _, err := store.RestoreFromTrash(ctx, "no-such-entry")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestPermanentlyDelete(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	user := seedTestUser(t, store, "Hana", "hana@example.com")
	cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)
	expense := seedTestExpense(t, store, user.ID, cat.ID, "1200")

	entry, err := store.MoveToTrash(ctx, model.KindExpense, expense.ID, "")
	require.NoError(t, err)

	require.NoError(t, store.PermanentlyDelete(ctx, entry.TrashID))

	entries, err := store.ListTrash(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	err = store.PermanentlyDelete(ctx, entry.TrashID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestEmptyTrash(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	user := seedTestUser(t, store, "Hana", "hana@example.com")
	cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)

	for _, amount := range []string{"100", "200"} {
		expense := seedTestExpense(t, store, user.ID, cat.ID, amount)
		_, err := store.MoveToTrash(ctx, model.KindExpense, expense.ID, "")
		require.NoError(t, err)
	}

	count, err := store.EmptyTrash(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = store.EmptyTrash(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCleanupOldTrash(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	user := seedTestUser(t, store, "Hana", "hana@example.com")
	cat := seedTestCategory(t, store, "食費", model.CategoryTypeExpense)

	base := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)

	store.now = func() time.Time { return base }
	old := seedTestExpense(t, store, user.ID, cat.ID, "100")
	_, err := store.MoveToTrash(ctx, model.KindExpense, old.ID, "old")
	require.NoError(t, err)

	store.now = func() time.Time { return base.Add(20 * 24 * time.Hour) }
	recent := seedTestExpense(t, store, user.ID, cat.ID, "200")
	_, err = store.MoveToTrash(ctx, model.KindExpense, recent.ID, "recent")
	require.NoError(t, err)

	store.now = func() time.Time { return base.Add(31 * 24 * time.Hour) }

	t.Run("purges only entries past the cutoff", func(t *testing.T) {
		result, err := store.CleanupOldTrash(ctx, 30)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Deleted)
		assert.Equal(t, 1, result.Remaining)

		entries, err := store.ListTrash(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "recent", entries[0].DeletedReason)
	})

	t.Run("running again without time passing deletes nothing", func(t *testing.T) {
		result, err := store.CleanupOldTrash(ctx, 30)
		require.NoError(t, err)
		assert.Zero(t, result.Deleted)
		assert.Equal(t, 1, result.Remaining)
	})

	t.Run("negative window is rejected", func(t *testing.T) {
		_, err := store.CleanupOldTrash(ctx, -1)
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}
