package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/karasuda/kakeibo/internal/model"
	"github.com/karasuda/kakeibo/internal/service"
)

// exportVersion identifies the interchange format written by ExportData and
// ExportSettings.
const exportVersion = "1.0"

// ExportData renders the whole ledger as an interchange document mirroring
// the in-memory collections.
func (s *Store) ExportData(ctx context.Context) (*service.DataExport, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	users, _, err := s.users().load(ctx)
	if err != nil {
		return nil, err
	}
	categories, _, err := s.categories().load(ctx)
	if err != nil {
		return nil, err
	}
	expenses, _, err := s.expenses().load(ctx)
	if err != nil {
		return nil, err
	}
	income, _, err := s.income().load(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.exportedSettings(ctx)
	if err != nil {
		return nil, err
	}

	return &service.DataExport{
		ExportedAt: s.now(),
		Version:    exportVersion,
		Data: service.DataPayload{
			Users:      users,
			Categories: categories,
			Expenses:   expenses,
			Income:     income,
		},
		Settings: settings,
	}, nil
}

// ImportData merges an exported document into the store. The import is
// additive and best-effort: categories and users are matched by natural key
// (name within type, email) and reused when present; transactions always get
// freshly minted ids. A record that fails is reported and the batch
// continues. progress, when non-nil, is invoked once per processed record.
func (s *Store) ImportData(ctx context.Context, doc *service.DataExport, progress service.Progress) (*service.ImportReport, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: export document", ErrNilParameter)
	}
	tick := func() {
		if progress != nil {
			progress()
		}
	}

	report := &service.ImportReport{}
	categoryIDs := s.importCategories(ctx, doc.Data.Categories, report, tick)
	userIDs := s.importUsers(ctx, doc.Data.Users, report, tick)

	for _, expense := range doc.Data.Expenses {
		item := fmt.Sprintf("expense %d (%s)", expense.ID, expense.Description)
		expense.Meta = model.Meta{CreatedAt: expense.CreatedAt, UpdatedAt: expense.UpdatedAt}
		expense.UserID = remapID(userIDs, expense.UserID)
		expense.CategoryID = remapID(categoryIDs, expense.CategoryID)
		tick()
		if _, err := s.CreateExpense(ctx, &expense); err != nil {
			report.Add(item, err)
			continue
		}
		report.Imported++
	}

	for _, income := range doc.Data.Income {
		item := fmt.Sprintf("income %d (%s)", income.ID, income.Description)
		income.Meta = model.Meta{CreatedAt: income.CreatedAt, UpdatedAt: income.UpdatedAt}
		income.UserID = remapID(userIDs, income.UserID)
		income.CategoryID = remapID(categoryIDs, income.CategoryID)
		tick()
		if _, err := s.CreateIncome(ctx, &income); err != nil {
			report.Add(item, err)
			continue
		}
		report.Imported++
	}

	if len(doc.Settings) > 0 {
		settingsReport, err := s.ImportSettings(ctx, &service.SettingsExport{Settings: doc.Settings})
		if err != nil {
			return nil, err
		}
		report.Imported += settingsReport.Imported
		report.Errors = append(report.Errors, settingsReport.Errors...)
	}

	slog.Info("imported data",
		"imported", report.Imported, "skipped", report.Skipped, "failed", len(report.Errors))
	return report, nil
}

// importCategories merges incoming categories, returning the id remapping
// from the document's ids to this store's ids. Matching is by name within
// type; hierarchy is re-established in a second pass so parents exist
// regardless of document order.
func (s *Store) importCategories(ctx context.Context, incoming []model.Category, report *service.ImportReport, tick func()) map[int]int {
	ids := make(map[int]int, len(incoming))

	for _, category := range incoming {
		item := fmt.Sprintf("category %q", category.Name)
		tick()
		existing, err := s.GetCategoryByName(ctx, category.Name, category.Type)
		if err != nil {
			report.Add(item, err)
			continue
		}
		if existing != nil {
			ids[category.ID] = existing.ID
			report.Skipped++
			continue
		}

		oldID := category.ID
		category.Meta = model.Meta{}
		category.ParentID = nil
		created, err := s.CreateCategory(ctx, &category)
		if err != nil {
			report.Add(item, err)
			continue
		}
		ids[oldID] = created.ID
		report.Imported++
	}

	for _, category := range incoming {
		if category.ParentID == nil {
			continue
		}
		newID, ok := ids[category.ID]
		if !ok {
			continue
		}
		parentID := remapID(ids, *category.ParentID)
		if _, err := s.ReparentCategory(ctx, newID, &parentID); err != nil {
			report.Add(fmt.Sprintf("category %q parent", category.Name), err)
		}
	}
	return ids
}

// importUsers merges incoming users by email, returning the id remapping.
func (s *Store) importUsers(ctx context.Context, incoming []model.User, report *service.ImportReport, tick func()) map[int]int {
	ids := make(map[int]int, len(incoming))

	for _, user := range incoming {
		item := fmt.Sprintf("user %q", user.Email)
		tick()
		existing, err := s.GetUserByEmail(ctx, user.Email)
		if err != nil {
			report.Add(item, err)
			continue
		}
		if existing != nil {
			ids[user.ID] = existing.ID
			report.Skipped++
			continue
		}

		oldID := user.ID
		user.Meta = model.Meta{}
		created, err := s.CreateUser(ctx, &user)
		if err != nil {
			report.Add(item, err)
			continue
		}
		ids[oldID] = created.ID
		report.Imported++
	}
	return ids
}

// remapID translates a document id to a store id, leaving ids with no
// mapping untouched so references into pre-existing records keep working.
func remapID(ids map[int]int, id int) int {
	if mapped, ok := ids[id]; ok {
		return mapped
	}
	return id
}
