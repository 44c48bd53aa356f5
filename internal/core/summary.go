package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"value"`
}

// Summary holds the aggregate totals of a filtered transaction set.
// Balance always equals TotalIncome minus TotalExpenses.
type Summary struct {
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"` // magnitude of total spend
	Balance       decimal.Decimal `json:"balance"`
}

// View is everything the presentation layer renders for one filter state.
type View struct {
	Filter       Filter           `json:"filter"`
	Transactions []Transaction    `json:"transactions"` // filtered, newest due date first
	Summary      Summary          `json:"summary"`
	Breakdown    []CategoryAmount `json:"breakdown"`
	Total        int              `json:"total"` // size of the unfiltered collection
}
