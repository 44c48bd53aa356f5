// Package memory provides the built-in seed: a handful of sample
// transactions and the default category list.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"financas/internal/core"
	"financas/internal/seed"
)

// CategoriesFile is the optional override read by NewFromFiles.
const CategoriesFile = "seed_categories.txt"

type Store struct {
	txs  []core.Transaction
	cats core.CategorySet
}

var _ seed.Source = (*Store)(nil)

// New returns a source serving txs and cats as given.
func New(txs []core.Transaction, cats []string) *Store {
	return &Store{txs: slices.Clone(txs), cats: core.NewCategorySet(cats)}
}

// Default returns the sample data set.
func Default() *Store {
	return New(SampleTransactions(), core.DefaultCategories())
}

// NewFromFiles returns the sample transactions with the category list read
// from base/seed_categories.txt. Blank lines and lines starting with # are
// ignored. A missing or empty file keeps the default categories.
func NewFromFiles(base string) *Store {
	cats := readLines(filepath.Join(base, CategoriesFile))
	if len(cats) == 0 {
		cats = core.DefaultCategories()
	}
	return New(SampleTransactions(), cats)
}

// Load returns copies of the stored data.
func (s *Store) Load(_ context.Context) (seed.Data, error) {
	d := seed.Data{Transactions: slices.Clone(s.txs), Categories: slices.Clone(s.cats)}
	return d, d.Validate()
}

// SampleTransactions is the demo ledger shown on first start.
func SampleTransactions() []core.Transaction {
	tx := func(id int64, y, m, d int, value, desc, resp, cat string, typ core.TransactionType) core.Transaction {
		return core.Transaction{
			ID:          id,
			DueDate:     core.NewDate(y, m, d),
			Value:       decimal.RequireFromString(value),
			Description: desc,
			Responsible: resp,
			Category:    cat,
			Type:        typ,
		}
	}
	return []core.Transaction{
		tx(1, 2025, 9, 15, "-150.50", "Supermercado Pão de Açúcar", "João", "Alimentação", core.Expense),
		tx(2, 2025, 9, 1, "5000.00", "Salário Setembro", "João", "Outros", core.Income),
		tx(3, 2025, 9, 10, "-80.00", "Combustível Posto Ipiranga", "Maria", "Transporte", core.Expense),
		tx(4, 2025, 8, 20, "-250.00", "Jantar Outback", "João", "Lazer", core.Expense),
		tx(5, 2025, 9, 20, "-45.00", "Farmácia Droga Raia", "Maria", "Saúde", core.Expense),
		tx(6, 2025, 9, 5, "-120.00", "Internet Vivo Fibra", "João", "Casa", core.Expense),
	}
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return core.NewCategorySet(out)
}
