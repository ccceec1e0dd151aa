package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/karasuda/kakeibo/internal/common"
	"github.com/karasuda/kakeibo/internal/model"
	"github.com/karasuda/kakeibo/internal/service"
)

// CreateCategory creates a new category. The name must be unique within the
// category's type; a parent, when given, must exist and share the type.
func (s *Store) CreateCategory(ctx context.Context, category *model.Category) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if category == nil {
		return nil, fmt.Errorf("%w: category", ErrNilParameter)
	}
	if err := s.validateStruct(category); err != nil {
		return nil, err
	}

	categories, _, err := s.categories().load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if categories[i].Type == category.Type && strings.EqualFold(categories[i].Name, category.Name) {
			return nil, fmt.Errorf("%w: %s category %q already exists", common.ErrDuplicateEntry, category.Type, category.Name)
		}
	}
	if category.ParentID != nil {
		parent := findCategory(categories, *category.ParentID)
		if parent == nil {
			return nil, fmt.Errorf("%w: parent category %d does not exist", common.ErrReferential, *category.ParentID)
		}
		if parent.Type != category.Type {
			return nil, fmt.Errorf("%w: parent category %q is %s, not %s",
				common.ErrReferential, parent.Name, parent.Type, category.Type)
		}
		if !parent.IsActive {
			return nil, fmt.Errorf("%w: parent category %q is inactive; reactivate it first",
				common.ErrIntegrityGuard, parent.Name)
		}
	}

	category.IsActive = true
	created, err := s.categories().insert(ctx, category)
	if err != nil {
		return nil, err
	}

	slog.Info("created category", "name", created.Name, "type", created.Type, "id", created.ID)
	return created, nil
}

// GetCategory returns a category by id.
func (s *Store) GetCategory(ctx context.Context, id int) (*model.Category, error) {
	cat, err := s.categories().findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, fmt.Errorf("%w: category %d", common.ErrNotFound, id)
	}
	return cat, nil
}

// GetCategoryByName returns a category by name within a type, or nil when no
// such category exists.
func (s *Store) GetCategoryByName(ctx context.Context, name string, categoryType model.CategoryType) (*model.Category, error) {
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	matches, err := s.categories().findWhere(ctx, func(c *model.Category) bool {
		return c.Type == categoryType && strings.EqualFold(c.Name, name)
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	cat := matches[0]
	return &cat, nil
}

// ListCategories returns categories in collection order, active only unless
// includeInactive is set.
func (s *Store) ListCategories(ctx context.Context, includeInactive bool) ([]model.Category, error) {
	return s.categories().findWhere(ctx, func(c *model.Category) bool {
		return includeInactive || c.IsActive
	})
}

// ListChildCategories returns the direct children of a category.
func (s *Store) ListChildCategories(ctx context.Context, parentID int) ([]model.Category, error) {
	return s.categories().findWhere(ctx, func(c *model.Category) bool {
		return c.ParentID != nil && *c.ParentID == parentID
	})
}

// UpdateCategory applies a partial update to a category. The type is
// immutable and reparenting goes through ReparentCategory.
func (s *Store) UpdateCategory(ctx context.Context, id int, patch service.CategoryPatch) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	categories, _, err := s.categories().load(ctx)
	if err != nil {
		return nil, err
	}
	target := findCategory(categories, id)
	if target == nil {
		return nil, fmt.Errorf("%w: category %d", common.ErrNotFound, id)
	}
	if patch.Name != nil {
		for i := range categories {
			if categories[i].ID != id && categories[i].Type == target.Type &&
				strings.EqualFold(categories[i].Name, *patch.Name) {
				return nil, fmt.Errorf("%w: %s category %q already exists",
					common.ErrDuplicateEntry, target.Type, *patch.Name)
			}
		}
	}

	updated, err := s.categories().update(ctx, id, func(c *model.Category) error {
		if patch.Name != nil {
			c.Name = *patch.Name
		}
		if patch.Color != nil {
			c.Color = *patch.Color
		}
		if patch.Icon != nil {
			c.Icon = *patch.Icon
		}
		return s.validateStruct(c)
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: category %d", common.ErrNotFound, id)
	}
	return updated, nil
}

// ReparentCategory moves a category under a new parent, or to the root when
// newParentID is nil. The new parent must exist, share the category's type,
// not introduce a cycle, and be active when the moved category is active.
func (s *Store) ReparentCategory(ctx context.Context, id int, newParentID *int) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	categories, _, err := s.categories().load(ctx)
	if err != nil {
		return nil, err
	}
	target := findCategory(categories, id)
	if target == nil {
		return nil, fmt.Errorf("%w: category %d", common.ErrNotFound, id)
	}

	if newParentID != nil {
		if *newParentID == id {
			return nil, fmt.Errorf("%w: category %q cannot be its own parent", common.ErrCycle, target.Name)
		}
		parent := findCategory(categories, *newParentID)
		if parent == nil {
			return nil, fmt.Errorf("%w: parent category %d does not exist", common.ErrReferential, *newParentID)
		}
		if parent.Type != target.Type {
			return nil, fmt.Errorf("%w: parent category %q is %s, not %s",
				common.ErrReferential, parent.Name, parent.Type, target.Type)
		}
		if target.IsActive && !parent.IsActive {
			return nil, fmt.Errorf("%w: parent category %q is inactive; reactivate it first",
				common.ErrIntegrityGuard, parent.Name)
		}
		if err := checkAncestorChain(categories, id, *newParentID); err != nil {
			return nil, err
		}
	}

	updated, err := s.categories().update(ctx, id, func(c *model.Category) error {
		c.ParentID = newParentID
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: category %d", common.ErrNotFound, id)
	}

	slog.Debug("reparented category", "id", id, "parent", newParentID)
	return updated, nil
}

// checkAncestorChain walks upward from the proposed parent. Encountering the
// category itself means the move would close a cycle; revisiting any node
// before reaching a root means the stored hierarchy is already corrupt, and
// the move is rejected the same way.
func checkAncestorChain(categories []model.Category, id, proposedParentID int) error {
	visited := make(map[int]bool)
	current := proposedParentID
	for {
		if current == id {
			return fmt.Errorf("%w: category %d is an ancestor of the proposed parent", common.ErrCycle, id)
		}
		if visited[current] {
			return fmt.Errorf("%w: ancestor chain of category %d revisits category %d", common.ErrCycle, proposedParentID, current)
		}
		visited[current] = true

		node := findCategory(categories, current)
		if node == nil || node.ParentID == nil {
			return nil
		}
		current = *node.ParentID
	}
}

// DeactivateCategory deactivates a category and, children first, every one of
// its descendants. It is rejected while any expense or income still
// references the category. The cascade never runs upward.
func (s *Store) DeactivateCategory(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	categories, version, err := s.categories().load(ctx)
	if err != nil {
		return err
	}
	target := findCategory(categories, id)
	if target == nil {
		return fmt.Errorf("%w: category %d", common.ErrNotFound, id)
	}

	inUse, err := s.categoryInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: category %q has transactions; reassign them first", common.ErrIntegrityGuard, target.Name)
	}

	now := s.now()
	var deactivate func(catID int)
	deactivate = func(catID int) {
		for i := range categories {
			if categories[i].ParentID != nil && *categories[i].ParentID == catID {
				deactivate(categories[i].ID)
			}
		}
		for i := range categories {
			if categories[i].ID == catID && categories[i].IsActive {
				categories[i].IsActive = false
				categories[i].Stamp(now)
			}
		}
	}
	deactivate(id)

	if err := s.categories().save(ctx, categories, version); err != nil {
		return err
	}
	slog.Info("deactivated category subtree", "id", id, "name", target.Name)
	return nil
}

// ReactivateCategory reactivates a category. A category can never be active
// while its parent is inactive, so reactivation under an inactive parent is
// rejected.
func (s *Store) ReactivateCategory(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	categories, version, err := s.categories().load(ctx)
	if err != nil {
		return err
	}
	target := findCategory(categories, id)
	if target == nil {
		return fmt.Errorf("%w: category %d", common.ErrNotFound, id)
	}
	if target.ParentID != nil {
		parent := findCategory(categories, *target.ParentID)
		if parent != nil && !parent.IsActive {
			return fmt.Errorf("%w: parent category %q is inactive; reactivate it first",
				common.ErrIntegrityGuard, parent.Name)
		}
	}

	for i := range categories {
		if categories[i].ID == id {
			categories[i].IsActive = true
			categories[i].Stamp(s.now())
		}
	}
	return s.categories().save(ctx, categories, version)
}

// DeleteCategory permanently removes a category. It is rejected while the
// category is referenced by any expense or income, or while it still has
// children.
func (s *Store) DeleteCategory(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	categories, _, err := s.categories().load(ctx)
	if err != nil {
		return err
	}
	target := findCategory(categories, id)
	if target == nil {
		return fmt.Errorf("%w: category %d", common.ErrNotFound, id)
	}

	inUse, err := s.categoryInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: category %q is used by transactions", common.ErrIntegrityGuard, target.Name)
	}
	for i := range categories {
		if categories[i].ParentID != nil && *categories[i].ParentID == id {
			return fmt.Errorf("%w: category %q still has children", common.ErrIntegrityGuard, target.Name)
		}
	}

	if err := s.categories().remove(ctx, id); err != nil {
		return err
	}
	slog.Info("deleted category", "id", id, "name", target.Name)
	return nil
}

// categoryInUse reports whether any expense or income references the category.
func (s *Store) categoryInUse(ctx context.Context, id int) (bool, error) {
	used, err := s.expenses().anyMatch(ctx, func(e *model.Expense) bool { return e.CategoryID == id })
	if err != nil || used {
		return used, err
	}
	return s.income().anyMatch(ctx, func(in *model.Income) bool { return in.CategoryID == id })
}

func findCategory(categories []model.Category, id int) *model.Category {
	for i := range categories {
		if categories[i].ID == id {
			return &categories[i]
		}
	}
	return nil
}
