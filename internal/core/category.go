package core

import (
	"errors"
	"slices"
	"strings"
)

// DefaultFallbackCategory is assigned to submissions without a category.
const DefaultFallbackCategory = "Outros"

var (
	ErrEmptyCategory     = errors.New("empty category")
	ErrDuplicateCategory = errors.New("category already exists")
)

// CategorySet is an ordered collection of unique, case-sensitive names.
type CategorySet []string

// DefaultCategories is the seed category set.
func DefaultCategories() CategorySet {
	return CategorySet{"Alimentação", "Transporte", "Lazer", "Saúde", "Educação", "Casa", DefaultFallbackCategory}
}

// NewCategorySet builds a set from names, trimming them and dropping blanks
// and repeats while keeping first-seen order.
func NewCategorySet(names []string) CategorySet {
	seen := map[string]struct{}{}
	out := make(CategorySet, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func (c CategorySet) Contains(name string) bool {
	return slices.Contains(c, name)
}

// Add appends a trimmed name. The receiver is not modified.
func (c CategorySet) Add(name string) (CategorySet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return c, ErrEmptyCategory
	}
	if c.Contains(name) {
		return c, ErrDuplicateCategory
	}
	out := make(CategorySet, len(c), len(c)+1)
	copy(out, c)
	return append(out, name), nil
}

// Remove drops name without checking transactions that reference it.
func (c CategorySet) Remove(name string) CategorySet {
	out := make(CategorySet, 0, len(c))
	for _, n := range c {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
