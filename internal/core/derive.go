package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// FilterTransactions returns the transactions matching f, preserving order.
func FilterTransactions(txs []Transaction, f Filter) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Summarize computes income, expense magnitude and net balance.
func Summarize(txs []Transaction) Summary {
	income := decimal.Zero
	expenses := decimal.Zero
	for _, t := range txs {
		switch t.Type {
		case Income:
			income = income.Add(t.Value)
		case Expense:
			expenses = expenses.Add(t.Value)
		}
	}
	return Summary{
		TotalIncome:   income,
		TotalExpenses: expenses.Abs(),
		Balance:       income.Add(expenses),
	}
}

// CategoryBreakdown groups expense magnitudes by category, largest first.
// Ties keep first-seen order. An empty list is returned when there is no
// spend at all.
func CategoryBreakdown(txs []Transaction, s Summary) []CategoryAmount {
	if s.TotalExpenses.IsZero() {
		return []CategoryAmount{}
	}

	byCat := map[string]decimal.Decimal{}
	order := make([]string, 0)
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		if _, seen := byCat[t.Category]; !seen {
			order = append(order, t.Category)
			byCat[t.Category] = decimal.Zero
		}
		byCat[t.Category] = byCat[t.Category].Add(t.Value.Abs())
	}

	list := make([]CategoryAmount, 0, len(order))
	for _, name := range order {
		list = append(list, CategoryAmount{Name: name, Amount: byCat[name]})
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Amount.GreaterThan(list[j].Amount)
	})
	return list
}

// SortByDueDate returns a copy ordered by due date, most recent first.
func SortByDueDate(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.After(out[j].DueDate.Time)
	})
	return out
}

// Derive runs the whole pipeline for one (transactions, filter) pair.
func Derive(txs []Transaction, f Filter) View {
	filtered := FilterTransactions(txs, f)
	summary := Summarize(filtered)
	return View{
		Filter:       f,
		Transactions: SortByDueDate(filtered),
		Summary:      summary,
		Breakdown:    CategoryBreakdown(filtered, summary),
		Total:        len(txs),
	}
}
