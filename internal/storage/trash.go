package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/karasuda/kakeibo/internal/common"
	"github.com/karasuda/kakeibo/internal/model"
	"github.com/karasuda/kakeibo/internal/service"
)

// MoveToTrash removes a transaction-like record from its origin collection
// and quarantines it in the trash collection with provenance metadata. The
// trash entry is persisted before the origin is touched, so a failed trash
// write never loses the record. If the record cannot be found, nothing is
// written.
func (s *Store) MoveToTrash(ctx context.Context, kind model.TransactionKind, id int, reason string) (*model.TrashEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown record kind %q", common.ErrValidation, kind)
	}

	payload, err := s.snapshotOrigin(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	entry := model.TrashEntry{
		TrashID:       uuid.NewString(),
		OriginalType:  kind,
		DeletedAt:     s.now(),
		DeletedReason: reason,
		Record:        payload,
	}

	entries, version, err := loadList[model.TrashEntry](s, colTrash)
	if err != nil {
		return nil, err
	}
	entries = append(entries, entry)
	if err := saveList(s, colTrash, entries, version); err != nil {
		return nil, err
	}

	if err := s.removeFromOrigin(ctx, kind, id); err != nil {
		return nil, err
	}

	slog.Info("moved record to trash", "kind", kind, "id", id, "trashId", entry.TrashID)
	return &entry, nil
}

// snapshotOrigin serializes the record as it sits in its origin collection,
// leaving the collection untouched.
func (s *Store) snapshotOrigin(ctx context.Context, kind model.TransactionKind, id int) (json.RawMessage, error) {
	switch kind {
	case model.KindExpense:
		expense, err := s.expenses().findByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if expense == nil {
			return nil, fmt.Errorf("%w: expense %d", common.ErrNotFound, id)
		}
		payload, err := json.Marshal(expense)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize expense %d: %w", id, err)
		}
		return payload, nil

	default:
		income, err := s.income().findByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if income == nil {
			return nil, fmt.Errorf("%w: income %d", common.ErrNotFound, id)
		}
		payload, err := json.Marshal(income)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize income %d: %w", id, err)
		}
		return payload, nil
	}
}

func (s *Store) removeFromOrigin(ctx context.Context, kind model.TransactionKind, id int) error {
	if kind == model.KindExpense {
		return s.expenses().remove(ctx, id)
	}
	return s.income().remove(ctx, id)
}

// RestoreFromTrash re-inserts a trashed record into its origin collection,
// stripped of provenance, and removes the trash entry. The original id is
// kept when it is still free; if a new record took the id while the entry sat
// in trash, a fresh id is minted. Returns the kind and the restored id.
func (s *Store) RestoreFromTrash(ctx context.Context, trashID string) (model.TransactionKind, int, error) {
	if err := validateContext(ctx); err != nil {
		return "", 0, err
	}
	if err := validateString(trashID, "trashId"); err != nil {
		return "", 0, err
	}

	entries, version, err := loadList[model.TrashEntry](s, colTrash)
	if err != nil {
		return "", 0, err
	}

	idx := -1
	for i := range entries {
		if entries[i].TrashID == trashID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", 0, fmt.Errorf("%w: trash entry %s", common.ErrNotFound, trashID)
	}
	entry := entries[idx]

	restoredID, err := s.reinsertIntoOrigin(ctx, entry)
	if err != nil {
		return "", 0, err
	}

	entries = append(entries[:idx], entries[idx+1:]...)
	if err := saveList(s, colTrash, entries, version); err != nil {
		return "", 0, err
	}

	slog.Info("restored record from trash", "kind", entry.OriginalType, "id", restoredID, "trashId", trashID)
	return entry.OriginalType, restoredID, nil
}

// reinsertIntoOrigin appends the bare record back to its origin collection.
// The restore path deliberately bypasses insert's stamping so the record
// comes back exactly as it was deleted, id included, unless the id has been
// reissued in the interim.
func (s *Store) reinsertIntoOrigin(ctx context.Context, entry model.TrashEntry) (int, error) {
	switch entry.OriginalType {
	case model.KindExpense:
		var expense model.Expense
		if err := json.Unmarshal(entry.Record, &expense); err != nil {
			return 0, fmt.Errorf("%w: trash entry %s payload: %v", common.ErrStoreCorrupted, entry.TrashID, err)
		}
		records, version, err := s.expenses().load(ctx)
		if err != nil {
			return 0, err
		}
		if expense.ID == 0 || idTaken(records, expense.ID, func(e model.Expense) int { return e.ID }) {
			expense.ID = nextID[model.Expense, *model.Expense](records)
		}
		records = append(records, expense)
		return expense.ID, s.expenses().save(ctx, records, version)

	default:
		var income model.Income
		if err := json.Unmarshal(entry.Record, &income); err != nil {
			return 0, fmt.Errorf("%w: trash entry %s payload: %v", common.ErrStoreCorrupted, entry.TrashID, err)
		}
		records, version, err := s.income().load(ctx)
		if err != nil {
			return 0, err
		}
		if income.ID == 0 || idTaken(records, income.ID, func(in model.Income) int { return in.ID }) {
			income.ID = nextID[model.Income, *model.Income](records)
		}
		records = append(records, income)
		return income.ID, s.income().save(ctx, records, version)
	}
}

func idTaken[T any](records []T, id int, idOf func(T) int) bool {
	for _, r := range records {
		if idOf(r) == id {
			return true
		}
	}
	return false
}

// ListTrash returns all trash entries in deletion order.
func (s *Store) ListTrash(ctx context.Context) ([]model.TrashEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	entries, _, err := loadList[model.TrashEntry](s, colTrash)
	return entries, err
}

// PermanentlyDelete removes a trash entry for good. Origin collections are
// never touched.
func (s *Store) PermanentlyDelete(ctx context.Context, trashID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	entries, version, err := loadList[model.TrashEntry](s, colTrash)
	if err != nil {
		return err
	}

	kept := entries[:0]
	found := false
	for i := range entries {
		if entries[i].TrashID == trashID {
			found = true
			continue
		}
		kept = append(kept, entries[i])
	}
	if !found {
		return fmt.Errorf("%w: trash entry %s", common.ErrNotFound, trashID)
	}
	return saveList(s, colTrash, kept, version)
}

// EmptyTrash removes every trash entry and returns how many were purged.
func (s *Store) EmptyTrash(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	entries, version, err := loadList[model.TrashEntry](s, colTrash)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if err := saveList(s, colTrash, []model.TrashEntry{}, version); err != nil {
		return 0, err
	}
	slog.Info("emptied trash", "purged", len(entries))
	return len(entries), nil
}

// CleanupOldTrash purges entries deleted more than daysOld days ago, keeping
// entries whose deletion is strictly after the cutoff. Running it again
// without time passing deletes nothing further.
func (s *Store) CleanupOldTrash(ctx context.Context, daysOld int) (*service.CleanupResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if daysOld < 0 {
		return nil, fmt.Errorf("%w: daysOld must not be negative", common.ErrValidation)
	}

	entries, version, err := loadList[model.TrashEntry](s, colTrash)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().Add(-time.Duration(daysOld) * 24 * time.Hour)
	kept := make([]model.TrashEntry, 0, len(entries))
	for _, e := range entries {
		if e.DeletedAt.After(cutoff) {
			kept = append(kept, e)
		}
	}

	deleted := len(entries) - len(kept)
	if deleted > 0 {
		if err := saveList(s, colTrash, kept, version); err != nil {
			return nil, err
		}
		slog.Info("swept old trash", "deleted", deleted, "remaining", len(kept), "daysOld", daysOld)
	}
	return &service.CleanupResult{Deleted: deleted, Remaining: len(kept)}, nil
}
