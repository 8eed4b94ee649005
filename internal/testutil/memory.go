// Package testutil provides in-memory implementations of the store
// interfaces for exercising the aggregation engine and sync coordinator
// without a database.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/service"

	"github.com/shopspring/decimal"
)

// MemoryLedger is a map-backed service.Ledger.
type MemoryLedger struct {
	mu   sync.Mutex
	rows map[string]*models.Transaction
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{rows: make(map[string]*models.Transaction)}
}

func (l *MemoryLedger) Get(_ context.Context, id string) (*models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	txn, ok := l.rows[id]
	if !ok {
		return nil, service.ErrTransactionNotFound
	}
	return copyTxn(txn), nil
}

func (l *MemoryLedger) ListByUser(_ context.Context, userID string) ([]*models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*models.Transaction
	for _, txn := range l.rows {
		if txn.UserID == userID {
			out = append(out, copyTxn(txn))
		}
	}
	sortTxns(out)
	return out, nil
}

func (l *MemoryLedger) ListByUserDateRange(_ context.Context, userID string, from, to time.Time) ([]*models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*models.Transaction
	for _, txn := range l.rows {
		if txn.UserID == userID && !txn.Date.Before(from) && !txn.Date.After(to) {
			out = append(out, copyTxn(txn))
		}
	}
	sortTxns(out)
	return out, nil
}

func (l *MemoryLedger) ListByBudget(_ context.Context, budgetID string) ([]*models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*models.Transaction
	for _, txn := range l.rows {
		if txn.BudgetID != nil && *txn.BudgetID == budgetID {
			out = append(out, copyTxn(txn))
		}
	}
	sortTxns(out)
	return out, nil
}

func (l *MemoryLedger) Upsert(_ context.Context, txn *models.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows[txn.ID] = copyTxn(txn)
	return nil
}

func (l *MemoryLedger) UpsertBatch(ctx context.Context, txns []*models.Transaction) error {
	for _, txn := range txns {
		if err := l.Upsert(ctx, txn); err != nil {
			return err
		}
	}
	return nil
}

func (l *MemoryLedger) UpdateCategory(_ context.Context, id string, category models.Category) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	txn, ok := l.rows[id]
	if !ok {
		return service.ErrTransactionNotFound
	}
	txn.Category = category
	txn.UpdatedAt = time.Now()
	return nil
}

func (l *MemoryLedger) AssignBudget(_ context.Context, ids []string, budgetID *string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		if txn, ok := l.rows[id]; ok {
			txn.BudgetID = copyID(budgetID)
		}
	}
	return nil
}

func (l *MemoryLedger) ClearBudget(_ context.Context, budgetID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, txn := range l.rows {
		if txn.BudgetID != nil && *txn.BudgetID == budgetID {
			txn.BudgetID = nil
		}
	}
	return nil
}

func (l *MemoryLedger) Delete(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.rows[id]; !ok {
		return service.ErrTransactionNotFound
	}
	delete(l.rows, id)
	return nil
}

func (l *MemoryLedger) DeleteByUser(_ context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, txn := range l.rows {
		if txn.UserID == userID {
			delete(l.rows, id)
		}
	}
	return nil
}

// MemoryBudgetStore is a map-backed service.BudgetStore.
type MemoryBudgetStore struct {
	mu   sync.Mutex
	rows map[string]*models.Budget
}

func NewMemoryBudgetStore() *MemoryBudgetStore {
	return &MemoryBudgetStore{rows: make(map[string]*models.Budget)}
}

func (s *MemoryBudgetStore) Get(_ context.Context, id string) (*models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok {
		return nil, service.ErrBudgetNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *MemoryBudgetStore) ListByUser(_ context.Context, userID string) ([]*models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Budget
	for _, b := range s.rows {
		if b.UserID == userID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FromDate.After(out[j].FromDate) })
	return out, nil
}

func (s *MemoryBudgetStore) Create(_ context.Context, b *models.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.rows[b.ID] = &cp
	return nil
}

func (s *MemoryBudgetStore) Update(_ context.Context, b *models.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[b.ID]; !ok {
		return service.ErrBudgetNotFound
	}
	cp := *b
	s.rows[b.ID] = &cp
	return nil
}

func (s *MemoryBudgetStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *MemoryBudgetStore) DeleteByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, b := range s.rows {
		if b.UserID == userID {
			delete(s.rows, id)
		}
	}
	return nil
}

// MemoryAggregateStore is a map-backed service.AggregateStore.
type MemoryAggregateStore struct {
	mu   sync.Mutex
	rows map[string]*models.BudgetAggregate
}

func NewMemoryAggregateStore() *MemoryAggregateStore {
	return &MemoryAggregateStore{rows: make(map[string]*models.BudgetAggregate)}
}

func (s *MemoryAggregateStore) Get(_ context.Context, budgetID string) (*models.BudgetAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	agg, ok := s.rows[budgetID]
	if !ok {
		return nil, service.ErrAggregateNotFound
	}
	return copyAgg(agg), nil
}

func (s *MemoryAggregateStore) ListByUser(_ context.Context, userID string) ([]*models.BudgetAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.BudgetAggregate
	for _, agg := range s.rows {
		if agg.UserID == userID {
			out = append(out, copyAgg(agg))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BudgetID < out[j].BudgetID })
	return out, nil
}

func (s *MemoryAggregateStore) Replace(_ context.Context, agg *models.BudgetAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[agg.BudgetID] = copyAgg(agg)
	return nil
}

func (s *MemoryAggregateStore) ApplyDelta(_ context.Context, budgetID, userID string, delta map[models.Category]decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	agg, ok := s.rows[budgetID]
	if !ok {
		agg = models.NewBudgetAggregate(budgetID, userID)
		s.rows[budgetID] = agg
	}
	for c, d := range delta {
		agg.CategoryTotals[c] = money.Add(agg.CategoryTotals[c], d)
	}
	return nil
}

func (s *MemoryAggregateStore) Delete(_ context.Context, budgetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, budgetID)
	return nil
}

func (s *MemoryAggregateStore) DeleteByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, agg := range s.rows {
		if agg.UserID == userID {
			delete(s.rows, id)
		}
	}
	return nil
}

// MemoryUserStore is a map-backed service.UserStore.
type MemoryUserStore struct {
	mu   sync.Mutex
	rows map[string]*models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{rows: make(map[string]*models.User)}
}

func (s *MemoryUserStore) Get(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[id]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryUserStore) List(_ context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.User
	for _, u := range s.rows {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.rows[u.ID] = &cp
	return nil
}

func (s *MemoryUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return service.ErrUserNotFound
	}
	delete(s.rows, id)
	return nil
}

func copyTxn(txn *models.Transaction) *models.Transaction {
	cp := *txn
	cp.BudgetID = copyID(txn.BudgetID)
	return &cp
}

func copyID(id *string) *string {
	if id == nil {
		return nil
	}
	cp := *id
	return &cp
}

func copyAgg(agg *models.BudgetAggregate) *models.BudgetAggregate {
	cp := &models.BudgetAggregate{
		BudgetID:       agg.BudgetID,
		UserID:         agg.UserID,
		CategoryTotals: make(map[models.Category]decimal.Decimal, len(agg.CategoryTotals)),
	}
	for c, v := range agg.CategoryTotals {
		cp.CategoryTotals[c] = v
	}
	return cp
}

func sortTxns(txns []*models.Transaction) {
	sort.Slice(txns, func(i, j int) bool {
		if txns[i].Date.Equal(txns[j].Date) {
			return txns[i].ID < txns[j].ID
		}
		return txns[i].Date.Before(txns[j].Date)
	})
}
