// Package services holds the ledger state container: the single owner of the
// transaction and category collections, the period filter and the UI state
// that mutation handlers act on.
package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"financas/internal/core"
	"financas/internal/log"
)

// Tab selects the main content area.
type Tab string

const (
	TabDashboard    Tab = "dashboard"
	TabTransactions Tab = "transactions"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrModalClosed         = errors.New("edit surface is not open")
	ErrInvalidTab          = errors.New("invalid tab")
)

// Modal is the state of the create/edit surface. EditingID is zero in create mode.
type Modal struct {
	Open      bool       `json:"open"`
	EditingID int64      `json:"editingId,omitempty"`
	Draft     core.Draft `json:"draft"`
}

// Editing reports whether the surface edits an existing transaction.
func (m Modal) Editing() bool { return m.Open && m.EditingID != 0 }

// Snapshot is a consistent copy of everything the presentation layer reads.
type Snapshot struct {
	Revision        uint64             `json:"revision"`
	Transactions    []core.Transaction `json:"transactions"`
	Categories      core.CategorySet   `json:"categories"`
	View            core.View          `json:"view"`
	ActiveTab       Tab                `json:"activeTab"`
	Modal           Modal              `json:"modal"`
	PendingDelete   *int64             `json:"pendingDelete"`
	CategoryDraft   string             `json:"categoryDraft"`
	ShowAddCategory bool               `json:"showAddCategory"`
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger used for mutation records.
func WithLogger(l *log.Logger) Option {
	return func(s *Ledger) { s.logger = l.WithComponent(log.ComponentLedger) }
}

// WithClock sets the clock used for the default filter.
func WithClock(now func() time.Time) Option {
	return func(s *Ledger) { s.now = now }
}

// WithFallbackCategory sets the category assigned when a submission has none.
func WithFallbackCategory(name string) Option {
	return func(s *Ledger) {
		if name != "" {
			s.fallback = name
		}
	}
}

// Ledger owns the application state. All methods are safe for concurrent use
// and every mutation is applied atomically.
type Ledger struct {
	mu sync.RWMutex

	transactions []core.Transaction
	categories   core.CategorySet
	filter       core.Filter

	activeTab       Tab
	modal           Modal
	pendingDelete   *int64
	categoryDraft   string
	showAddCategory bool

	revision uint64

	fallback string
	now      func() time.Time
	logger   *log.Logger
}

// NewLedger builds a ledger over copies of txs and cats. The filter defaults
// to the current month.
func NewLedger(txs []core.Transaction, cats core.CategorySet, opts ...Option) *Ledger {
	s := &Ledger{
		transactions: slices.Clone(txs),
		categories:   slices.Clone(cats),
		activeTab:    TabDashboard,
		fallback:     core.DefaultFallbackCategory,
		now:          time.Now,
		logger:       log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.transactions == nil {
		s.transactions = []core.Transaction{}
	}
	if s.categories == nil {
		s.categories = core.CategorySet{}
	}
	s.filter = core.DefaultFilter(s.now())
	return s
}

// bump must be called with the write lock held.
func (s *Ledger) bump() { s.revision++ }

func (s *Ledger) indexOf(id int64) int {
	return slices.IndexFunc(s.transactions, func(t core.Transaction) bool { return t.ID == id })
}

func (s *Ledger) nextID() int64 {
	var maxID int64
	for _, t := range s.transactions {
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	return maxID + 1
}

// --- filter ---

func (s *Ledger) SetPeriod(ctx context.Context, p core.Period) error {
	if !p.Valid() {
		return fmt.Errorf("%w: period %q", core.ErrInvalidFilter, p)
	}
	return s.updateFilter(ctx, func(f *core.Filter) { f.Period = p })
}

func (s *Ledger) SetYear(ctx context.Context, year string) error {
	y, err := core.NormalizeYear(year)
	if err != nil {
		return err
	}
	return s.updateFilter(ctx, func(f *core.Filter) { f.Year = y })
}

func (s *Ledger) SetMonth(ctx context.Context, month string) error {
	m, err := core.NormalizeMonth(month)
	if err != nil {
		return err
	}
	return s.updateFilter(ctx, func(f *core.Filter) { f.Month = m })
}

func (s *Ledger) SetFortnight(ctx context.Context, fortnight string) error {
	fn, err := core.NormalizeFortnight(fortnight)
	if err != nil {
		return err
	}
	return s.updateFilter(ctx, func(f *core.Filter) { f.Fortnight = fn })
}

// SetFilter validates every selector of f and applies them together.
func (s *Ledger) SetFilter(ctx context.Context, f core.Filter) error {
	if !f.Period.Valid() {
		return fmt.Errorf("%w: period %q", core.ErrInvalidFilter, f.Period)
	}
	y, err := core.NormalizeYear(f.Year)
	if err != nil {
		return err
	}
	m, err := core.NormalizeMonth(f.Month)
	if err != nil {
		return err
	}
	fn, err := core.NormalizeFortnight(f.Fortnight)
	if err != nil {
		return err
	}
	return s.updateFilter(ctx, func(cur *core.Filter) {
		*cur = core.Filter{Period: f.Period, Year: y, Month: m, Fortnight: fn}
	})
}

func (s *Ledger) updateFilter(ctx context.Context, apply func(*core.Filter)) error {
	s.mu.Lock()
	before := s.filter
	apply(&s.filter)
	changed := s.filter != before
	if changed {
		s.bump()
	}
	f := s.filter
	s.mu.Unlock()

	if changed {
		s.logger.DebugContext(ctx, "Filter changed", log.NewFields().
			WithOperation(log.OpFilter).
			WithFilter(string(f.Period), f.Year, f.Month, f.Fortnight).
			ToSlice()...)
	}
	return nil
}

// SetActiveTab switches between the dashboard and the transactions table.
func (s *Ledger) SetActiveTab(tab Tab) error {
	if tab != TabDashboard && tab != TabTransactions {
		return fmt.Errorf("%w: %q", ErrInvalidTab, tab)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeTab != tab {
		s.activeTab = tab
		s.bump()
	}
	return nil
}

// --- edit surface ---

// OpenNew opens the surface in create mode with a blank draft.
func (s *Ledger) OpenNew() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modal = Modal{Open: true, Draft: core.NewDraft()}
	s.bump()
}

// OpenEdit opens the surface prefilled from transaction id.
func (s *Ledger) OpenEdit(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: id %d", ErrTransactionNotFound, id)
	}
	s.modal = Modal{Open: true, EditingID: id, Draft: core.DraftFrom(s.transactions[i])}
	s.bump()
	return nil
}

// SetDraftField updates one draft field by name.
func (s *Ledger) SetDraftField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.modal.Open {
		return ErrModalClosed
	}
	if err := s.modal.Draft.Set(name, value); err != nil {
		return err
	}
	s.bump()
	return nil
}

// ReplaceDraft overwrites the whole draft, as a form post does.
func (s *Ledger) ReplaceDraft(d core.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.modal.Open {
		return ErrModalClosed
	}
	s.modal.Draft = d
	s.bump()
	return nil
}

// Close discards the draft and hides the surface.
func (s *Ledger) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.modal.Open {
		s.modal = Modal{}
		s.bump()
	}
}

func (s *Ledger) Modal() Modal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modal
}

// Saved is a transaction accepted by Submit.
type Saved struct {
	core.Transaction
	Created bool // false when an existing record was replaced
}

// Submit validates the draft and applies it. On failure nothing changes and
// the surface stays open with the draft intact.
func (s *Ledger) Submit(ctx context.Context) (Saved, error) {
	s.mu.Lock()
	if !s.modal.Open {
		s.mu.Unlock()
		return Saved{}, ErrModalClosed
	}

	id := s.modal.EditingID
	idx := -1
	if id != 0 {
		if idx = s.indexOf(id); idx < 0 {
			s.mu.Unlock()
			return Saved{}, fmt.Errorf("%w: id %d", ErrTransactionNotFound, id)
		}
	} else {
		id = s.nextID()
	}

	tx, err := s.modal.Draft.Build(id, s.fallback)
	if err != nil {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "Draft rejected", log.NewFields().
			WithOperation(log.OpValidate).
			WithError(err).
			ToSlice()...)
		return Saved{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	op := log.OpCreate
	if idx >= 0 {
		op = log.OpUpdate
		s.transactions[idx] = tx
	} else {
		s.transactions = append(s.transactions, tx)
	}
	s.modal = Modal{}
	s.bump()
	rev := s.revision
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Transaction saved", append(log.NewFields().
		WithOperation(op).
		WithTransaction(tx.ID, string(tx.Type), tx.Value, tx.Category).
		ToSlice(), log.FieldRevision, rev)...)
	return Saved{Transaction: tx, Created: idx < 0}, nil
}

// --- two-phase delete ---

// RequestDelete records id as awaiting confirmation. The collection is untouched.
func (s *Ledger) RequestDelete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingDelete = &id
	s.bump()
}

// PendingDelete returns the id awaiting confirmation, if any.
func (s *Ledger) PendingDelete() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pendingDelete == nil {
		return 0, false
	}
	return *s.pendingDelete, true
}

// ConfirmDelete removes the pending transaction and clears the pending id.
// It reports whether a transaction was removed; with nothing pending it is a no-op.
func (s *Ledger) ConfirmDelete(ctx context.Context) bool {
	s.mu.Lock()
	if s.pendingDelete == nil {
		s.mu.Unlock()
		return false
	}
	id := *s.pendingDelete
	s.pendingDelete = nil
	removed := false
	if i := s.indexOf(id); i >= 0 {
		s.transactions = slices.Delete(s.transactions, i, i+1)
		removed = true
	}
	s.bump()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Delete confirmed", log.FieldOperation, log.OpDelete,
		log.FieldTxID, id, log.FieldSuccess, removed)
	return removed
}

// CancelDelete clears the pending id without touching the collection.
func (s *Ledger) CancelDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingDelete != nil {
		s.pendingDelete = nil
		s.bump()
	}
}

// --- categories ---

func (s *Ledger) SetCategoryDraft(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categoryDraft = name
	s.bump()
}

// ShowAddCategory toggles the add-category input; hiding it drops the draft.
func (s *Ledger) ShowAddCategory(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showAddCategory = show
	if !show {
		s.categoryDraft = ""
	}
	s.bump()
}

// AddCategory appends the category draft. Empty and duplicate names are
// rejected and leave the input as it was.
func (s *Ledger) AddCategory(ctx context.Context) (string, error) {
	s.mu.Lock()
	next, err := s.categories.Add(s.categoryDraft)
	if err != nil {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "Category rejected", log.FieldOperation, log.OpValidate, log.FieldError, err.Error())
		return "", err
	}
	name := next[len(next)-1]
	s.categories = next
	s.categoryDraft = ""
	s.showAddCategory = false
	s.bump()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Category added", log.FieldOperation, log.OpCreate, log.FieldCategory, name)
	return name, nil
}

// RemoveCategory drops name. Transactions referencing it keep the name.
func (s *Ledger) RemoveCategory(ctx context.Context, name string) {
	s.mu.Lock()
	before := len(s.categories)
	s.categories = s.categories.Remove(name)
	removed := len(s.categories) != before
	if removed {
		s.bump()
	}
	s.mu.Unlock()

	if removed {
		s.logger.InfoContext(ctx, "Category removed", log.FieldOperation, log.OpDelete, log.FieldCategory, name)
	}
}

// --- reads ---

func (s *Ledger) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.transactions)
}

func (s *Ledger) Categories() core.CategorySet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories)
}

func (s *Ledger) Filter() core.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

func (s *Ledger) ActiveTab() Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeTab
}

// CategoryForm returns the add-category input text and whether it is shown.
func (s *Ledger) CategoryForm() (draft string, shown bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categoryDraft, s.showAddCategory
}

func (s *Ledger) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// View derives the filtered view together with the revision it reflects.
func (s *Ledger) View() (core.View, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Derive(s.transactions, s.filter), s.revision
}

// Snapshot returns a consistent copy of the whole state.
func (s *Ledger) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending *int64
	if s.pendingDelete != nil {
		id := *s.pendingDelete
		pending = &id
	}
	return Snapshot{
		Revision:        s.revision,
		Transactions:    slices.Clone(s.transactions),
		Categories:      slices.Clone(s.categories),
		View:            core.Derive(s.transactions, s.filter),
		ActiveTab:       s.activeTab,
		Modal:           s.modal,
		PendingDelete:   pending,
		CategoryDraft:   s.categoryDraft,
		ShowAddCategory: s.showAddCategory,
	}
}
