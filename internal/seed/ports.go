// Package seed defines where the initial ledger contents come from.
package seed

import (
	"context"
	"errors"
	"fmt"

	"financas/internal/core"
)

// ErrInvalidID rejects seed ids that are not positive. Zero marks a draft
// that is not yet stored.
var ErrInvalidID = errors.New("transaction id must be positive")

// Data is the initial state handed to the ledger.
type Data struct {
	Transactions []core.Transaction
	Categories   core.CategorySet
}

// Source loads the initial data. Sources are read once at startup; the
// ledger never writes back to them.
type Source interface {
	Load(ctx context.Context) (Data, error)
}

// Validate checks every transaction and rejects non-positive or duplicate ids.
func (d Data) Validate() error {
	seen := make(map[int64]struct{}, len(d.Transactions))
	for _, t := range d.Transactions {
		if t.ID <= 0 {
			return fmt.Errorf("transaction %d: %w", t.ID, ErrInvalidID)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("transaction %d: duplicate id", t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}
