package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/karasuda/kakeibo/internal/model"
)

// seedCategory describes one node of the default taxonomy.
type seedCategory struct {
	name     string
	color    string
	icon     string
	children []seedCategory
}

var defaultTaxonomy = map[model.CategoryType][]seedCategory{
	model.CategoryTypeExpense: {
		{name: "食費", color: "#e74c3c", icon: "utensils", children: []seedCategory{
			{name: "食料品", color: "#e67e22", icon: "cart"},
			{name: "外食", color: "#d35400", icon: "restaurant"},
		}},
		{name: "交通費", color: "#3498db", icon: "train"},
		{name: "住居費", color: "#9b59b6", icon: "home"},
		{name: "水道光熱費", color: "#1abc9c", icon: "bolt"},
		{name: "日用品", color: "#f1c40f", icon: "basket"},
		{name: "医療費", color: "#e84393", icon: "medical"},
		{name: "交際費", color: "#fd79a8", icon: "gift"},
		{name: "その他", color: "#95a5a6", icon: "dots"},
	},
	model.CategoryTypeIncome: {
		{name: "給与", color: "#27ae60", icon: "wallet"},
		{name: "賞与", color: "#2ecc71", icon: "star"},
		{name: "副収入", color: "#16a085", icon: "briefcase"},
		{name: "その他", color: "#7f8c8d", icon: "dots"},
	},
}

// Initialize seeds the default category taxonomy and default settings exactly
// once, guarded by a marker key in the substrate. Subsequent calls are
// no-ops. This is the only implicit data the layer ever writes; construction
// via NewStore has no side effects.
func (s *Store) Initialize(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, ok, err := s.substrate.Get(initializedKey)
	if err != nil {
		return fmt.Errorf("failed to read initialization marker: %w", err)
	}
	if ok {
		slog.Debug("store already initialized, skipping seed")
		return nil
	}

	for _, categoryType := range []model.CategoryType{model.CategoryTypeExpense, model.CategoryTypeIncome} {
		for _, seed := range defaultTaxonomy[categoryType] {
			if err := s.seedCategoryTree(ctx, categoryType, seed, nil); err != nil {
				return fmt.Errorf("failed to seed category %q: %w", seed.name, err)
			}
		}
	}

	for key, def := range defaultSettings {
		if err := s.SetSetting(ctx, key, def.Value.Native(), def.Value.SettingType(), def.Description); err != nil {
			return fmt.Errorf("failed to seed setting %q: %w", key, err)
		}
	}

	marker, _ := json.Marshal(true)
	if err := s.substrate.Set(initializedKey, marker); err != nil {
		return fmt.Errorf("failed to write initialization marker: %w", err)
	}

	slog.Info("initialized store with default taxonomy and settings")
	return nil
}

func (s *Store) seedCategoryTree(ctx context.Context, categoryType model.CategoryType, seed seedCategory, parentID *int) error {
	created, err := s.CreateCategory(ctx, &model.Category{
		Name:     seed.name,
		Type:     categoryType,
		Color:    seed.color,
		Icon:     seed.icon,
		ParentID: parentID,
	})
	if err != nil {
		return err
	}
	for _, child := range seed.children {
		if err := s.seedCategoryTree(ctx, categoryType, child, &created.ID); err != nil {
			return err
		}
	}
	return nil
}
