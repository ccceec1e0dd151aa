package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/karasuda/kakeibo/internal/common"
	"github.com/karasuda/kakeibo/internal/config"
	"github.com/karasuda/kakeibo/internal/kv"
	"github.com/karasuda/kakeibo/internal/model"
	"github.com/karasuda/kakeibo/internal/service"
	"github.com/karasuda/kakeibo/internal/storage"
)

// initStore opens the file-backed substrate and initializes the data layer,
// seeding defaults on first use.
func initStore(ctx context.Context) (service.Storage, error) {
	storePath := viper.GetString("store.path")
	if storePath == "" {
		storePath = config.DefaultStorePath
	}
	storePath = config.ExpandPath(storePath)

	substrate, err := kv.NewFileStore(storePath)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("could not open the ledger store at %s", storePath), err)
	}

	store := storage.NewStore(substrate)
	if err := store.Initialize(ctx); err != nil {
		return nil, common.NewUserError("could not initialize the ledger store", err)
	}
	return store, nil
}

// configuredCurrency resolves the display currency from settings, defaulting
// to JPY when unset or unusable.
func configuredCurrency(ctx context.Context, store service.Storage) string {
	value, err := store.GetSetting(ctx, "currency")
	if err != nil || value == nil {
		return money.JPY
	}
	code, ok := value.Native().(string)
	if !ok || money.GetCurrency(code) == nil {
		return money.JPY
	}
	return code
}

// formatAmount renders a decimal amount in the given currency.
func formatAmount(amount decimal.Decimal, code string) string {
	currency := money.GetCurrency(code)
	if currency == nil {
		currency = money.GetCurrency(money.JPY)
	}
	minor := amount.Shift(int32(currency.Fraction)).Round(0).IntPart()
	return money.New(minor, currency.Code).Display()
}

// parseID parses a positive integer id argument.
func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

// parseAmount parses a non-negative decimal amount argument.
func parseAmount(arg string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(arg)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", arg, err)
	}
	return amount, nil
}

// parseDateFlag parses a --date flag, defaulting to today when empty.
func parseDateFlag(value string) (model.Date, error) {
	if value == "" {
		return model.Today(), nil
	}
	return model.ParseDate(value)
}

// transactionFilterFlags holds the shared listing filters of the expenses and
// income commands.
type transactionFilterFlags struct {
	user     int
	category int
	from     string
	to       string
	status   string
	tag      string
}

func (f *transactionFilterFlags) build() (service.TransactionFilter, error) {
	var filter service.TransactionFilter
	if f.user > 0 {
		filter.UserID = &f.user
	}
	if f.category > 0 {
		filter.CategoryID = &f.category
	}
	if f.from != "" {
		from, err := model.ParseDate(f.from)
		if err != nil {
			return filter, err
		}
		filter.From = &from
	}
	if f.to != "" {
		to, err := model.ParseDate(f.to)
		if err != nil {
			return filter, err
		}
		filter.To = &to
	}
	filter.Status = f.status
	filter.Tag = f.tag
	return filter, nil
}
