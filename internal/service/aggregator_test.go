package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/service"
	"fintrack/internal/testutil"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	ledger     *testutil.MemoryLedger
	budgets    *testutil.MemoryBudgetStore
	aggregates *testutil.MemoryAggregateStore
	engine     *service.Aggregator
}

func newFixture() *fixture {
	f := &fixture{
		ledger:     testutil.NewMemoryLedger(),
		budgets:    testutil.NewMemoryBudgetStore(),
		aggregates: testutil.NewMemoryAggregateStore(),
	}
	f.engine = service.NewAggregator(f.ledger, f.budgets, f.aggregates, nil, zap.NewNop())
	return f
}

func (f *fixture) createBudget(t *testing.T, id, userID string, from, to time.Time) *models.Budget {
	t.Helper()
	b := &models.Budget{
		ID:       id,
		UserID:   userID,
		Title:    "budget " + id,
		Amount:   dec("1000"),
		FromDate: from,
		ToDate:   to,
	}
	if _, err := f.engine.CreateBudget(context.Background(), b); err != nil {
		t.Fatalf("CreateBudget(%s): %v", id, err)
	}
	return b
}

func (f *fixture) createTxn(t *testing.T, id, userID, amount string, d time.Time, c models.Category) {
	t.Helper()
	err := f.engine.CreateTransaction(context.Background(), &models.Transaction{
		ID:          id,
		UserID:      userID,
		Amount:      dec(amount),
		Description: "txn " + id,
		Date:        d,
		Category:    c,
	})
	if err != nil {
		t.Fatalf("CreateTransaction(%s): %v", id, err)
	}
}

func (f *fixture) totals(t *testing.T, budgetID string) map[models.Category]decimal.Decimal {
	t.Helper()
	agg, err := f.aggregates.Get(context.Background(), budgetID)
	if err != nil {
		t.Fatalf("get aggregate %s: %v", budgetID, err)
	}
	return agg.CategoryTotals
}

func assertTotal(t *testing.T, totals map[models.Category]decimal.Decimal, c models.Category, want string) {
	t.Helper()
	got, ok := totals[c]
	if !ok {
		got = decimal.Zero
	}
	if !got.Equal(dec(want)) {
		t.Errorf("totals[%s] = %s, want %s", c, got, want)
	}
}

func sumTotals(totals map[models.Category]decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range totals {
		sum = sum.Add(v)
	}
	return sum
}

func TestCreateBudgetStartsAllZero(t *testing.T) {
	f := newFixture()
	f.createBudget(t, "b1", "u1", date(2025, 1, 1), date(2025, 1, 31))

	totals := f.totals(t, "b1")
	if len(totals) != len(models.Categories()) {
		t.Fatalf("expected %d categories, got %d", len(models.Categories()), len(totals))
	}
	for _, c := range models.Categories() {
		assertTotal(t, totals, c, "0")
	}
}

func TestCreateBudgetSeedsFromExistingLedger(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Transactions that exist before the budget does.
	for i, amount := range []string{"10.00", "20.00", "30.00"} {
		err := f.ledger.Upsert(ctx, &models.Transaction{
			ID:       fmt.Sprintf("t%d", i),
			UserID:   "u1",
			Amount:   dec(amount),
			Date:     date(2025, 1, 10+i),
			Category: models.CategoryShopping,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	f.createBudget(t, "b1", "u1", date(2025, 1, 1), date(2025, 1, 31))

	assertTotal(t, f.totals(t, "b1"), models.CategoryShopping, "60.00")

	// The seeding recompute also stamps the claimed transactions.
	txn, err := f.ledger.Get(ctx, "t0")
	if err != nil {
		t.Fatal(err)
	}
	if txn.BudgetID == nil || *txn.BudgetID != "b1" {
		t.Errorf("transaction not stamped with budget, got %v", txn.BudgetID)
	}
}

func TestCreateBudgetRejectsInvertedPeriod(t *testing.T) {
	f := newFixture()
	_, err := f.engine.CreateBudget(context.Background(), &models.Budget{
		ID:       "b1",
		UserID:   "u1",
		FromDate: date(2025, 2, 1),
		ToDate:   date(2025, 1, 1),
	})
	if err != service.ErrInvalidPeriod {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

// The end-to-end example: create, reclassify, delete.
func TestTransactionLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.createBudget(t, "b1", "u1", date(2025, 1, 1), date(2025, 1, 31))
	f.createTxn(t, "t1", "u1", "45.00", date(2025, 1, 15), models.CategoryShopping)

	totals := f.totals(t, "b1")
	assertTotal(t, totals, models.CategoryShopping, "45.00")
	assertTotal(t, totals, models.CategoryOther, "0")

	if err := f.engine.UpdateTransactionCategory(ctx, "t1", models.CategoryOther); err != nil {
		t.Fatalf("UpdateTransactionCategory: %v", err)
	}
	totals = f.totals(t, "b1")
	assertTotal(t, totals, models.CategoryShopping, "0")
	assertTotal(t, totals, models.CategoryOther, "45.00")

	if err := f.engine.DeleteTransaction(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	totals = f.totals(t, "b1")
	for _, c := range models.Categories() {
		assertTotal(t, totals, c, "0")
	}

	if _, err := f.ledger.Get(ctx, "t1"); err != service.ErrTransactionNotFound {
		t.Errorf("expected deleted transaction to be gone, got %v", err)
	}
}

func TestBoundaryInclusivity(t *testing.T) {
	f := newFixture()
	f.createBudget(t, "b1", "u1", date(2025, 1, 1), date(2025, 1, 31))

	f.createTxn(t, "on-from", "u1", "1.00", date(2025, 1, 1), models.CategoryOther)
	f.createTxn(t, "on-to", "u1", "2.00", date(2025, 1, 31), models.CategoryOther)
	f.createTxn(t, "before", "u1", "4.00", date(2024, 12, 31), models.CategoryOther)
	f.createTxn(t, "after", "u1", "8.00", date(2025, 2, 1), models.CategoryOther)

	assertTotal(t, f.totals(t, "b1"), models.CategoryOther, "3.00")

	// Out-of-period transactions stay in the ledger, unstamped.
	for _, id := range []string{"before", "after"} {
		txn, err := f.ledger.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("transaction %s missing from ledger: %v", id, err)
		}
		if txn.BudgetID != nil {
			t.Errorf("transaction %s should not be stamped, got %s", id, *txn.BudgetID)
		}
	}
}

func TestCategoryMoveConservesTotal(t *testing.T) {
	f := newFixture()
	f.createBudget(t, "b1", "u1", date(2025, 1, 1), date(2025, 1, 31))
	f.createTxn(t, "t1", "u1", "30.00", date(2025, 1, 5), models.CategoryEssentials)
	f.createTxn(t, "t2", "u1", "70.00", date(2025, 1, 6), models.CategoryFoodEntertainment)

	before := sumTotals(f.totals(t, "b1"))

	if err := f.engine.UpdateTransactionCategory(context.Background(), "t1", models.CategoryHealthWellness); err != nil {
		t.Fatal(err)
	}

	totals := f.totals(t, "b1")
	assertTotal(t, totals, models.CategoryEssentials, "0")
	assertTotal(t, totals, models.CategoryHealthWellness, "30.00")
	assertTotal(t, totals, models.CategoryFoodEntertainment, "70.00")
	if after := sumTotals(totals); !after.Equal(before) {
		t.Errorf("total changed across category move: %s -> %s", before, after)
	}
}

func TestDeleteConservation(t *testing.T) {
	f := newFixture()
	f.createBudget(t, "b1", "u1", date(2025, 1, 1), date(2025, 1, 31))
	f.createTxn(t, "t1", "u1", "25.50", date(2025, 1, 5), models.CategoryShopping)
	f.createTxn(t, "t2", "u1", "10.00", date(2025, 1, 6), models.CategoryEssentials)

	if err := f.engine.DeleteTransaction(context.Background(), "t1"); err != nil {
		t.Fatal(err)
	}

	totals := f.totals(t, "b1")
	assertTotal(t, totals, models.CategoryShopping, "0")
	assertTotal(t, totals, models.CategoryEssentials, "10.00")
}

func TestUnmatchedTransactionTouchesNoAggregate(t *testing.T) {
	f := newFixture()
	f.createBudget(t, "b1", "u1", date(2025, 1, 1), date(2025, 1, 31))
	f.createTxn(t, "t1", "u1", "99.00", date(2025, 6, 15), models.CategoryShopping)

	for _, c := range models.Categories() {
		assertTotal(t, f.totals(t, "b1"), c, "0")
	}

	txn, err := f.ledger.Get(context.Background(), "t1")
	if err != nil {
		t.Fatalf("unmatched transaction should stay retrievable: %v", err)
	}
	if txn.BudgetID != nil {
		t.Errorf("unmatched transaction stamped with %s", *txn.BudgetID)
	}
}

func TestUpdateBudgetPeriodChangeRecomputes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.createBudget(t, "b1", "u1", date(2025, 1, 1), date(2025, 1, 31))
	f.createTxn(t, "jan", "u1", "40.00", date(2025, 1, 10), models.CategoryShopping)
	f.createTxn(t, "feb", "u1", "60.00", date(2025, 2, 10), models.CategoryShopping)

	from, to := date(2025, 2, 1), date(2025, 2, 28)
	if _, err := f.engine.UpdateBudget(ctx, "b1", service.BudgetChanges{FromDate: &from, ToDate: &to}); err != nil {
		t.Fatalf("UpdateBudget: %v", err)
	}

	// Aggregate replaced wholesale: only February's transaction counts now.
	assertTotal(t, f.totals(t, "b1"), models.CategoryShopping, "60.00")

	// Membership stamps follow the new period.
	jan, _ := f.ledger.Get(ctx, "jan")
	if jan.BudgetID != nil {
		t.Errorf("january transaction should be released, stamped %s", *jan.BudgetID)
	}
	feb, _ := f.ledger.Get(ctx, "feb")
	if feb.BudgetID == nil || *feb.BudgetID != "b1" {
		t.Errorf("february transaction should be claimed by b1, got %v", feb.BudgetID)
	}
}

func TestUpdateBudgetNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.engine.UpdateBudget(context.Background(), "missing", service.BudgetChanges{})
	if err != service.ErrBudgetNotFound {
		t.Fatalf("expected ErrBudgetNotFound, got %v", err)
	}
}

func TestTransactionMutationsNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.engine.UpdateTransactionCategory(ctx, "missing", models.CategoryOther); err != service.ErrTransactionNotFound {
		t.Errorf("update: expected ErrTransactionNotFound, got %v", err)
	}
	if err := f.engine.DeleteTransaction(ctx, "missing"); err != service.ErrTransactionNotFound {
		t.Errorf("delete: expected ErrTransactionNotFound, got %v", err)
	}
}

func TestCategoryUpdateSkipsMissingAggregate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.createBudget(t, "b1", "u1", date(2025, 1, 1), date(2025, 1, 31))
	f.createTxn(t, "t1", "u1", "10.00", date(2025, 1, 5), models.CategoryShopping)

	// Simulate a stale aggregate that vanished out from under the engine.
	if err := f.aggregates.Delete(ctx, "b1"); err != nil {
		t.Fatal(err)
	}

	if err := f.engine.UpdateTransactionCategory(ctx, "t1", models.CategoryOther); err != nil {
		t.Fatalf("category update should skip missing aggregate, got %v", err)
	}

	txn, _ := f.ledger.Get(ctx, "t1")
	if txn.Category != models.CategoryOther {
		t.Errorf("ledger category = %s, want Other", txn.Category)
	}
	if _, err := f.aggregates.Get(ctx, "b1"); err != service.ErrAggregateNotFound {
		t.Errorf("aggregate should remain absent, got %v", err)
	}
}

func TestDeleteBudgetIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.createBudget(t, "b1", "u1", date(2025, 1, 1), date(2025, 1, 31))
	f.createTxn(t, "t1", "u1", "10.00", date(2025, 1, 5), models.CategoryShopping)

	if err := f.engine.DeleteBudget(ctx, "b1"); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	if _, err := f.aggregates.Get(ctx, "b1"); err != service.ErrAggregateNotFound {
		t.Errorf("aggregate should be deleted, got %v", err)
	}

	// Ledger entries survive, but lose their stamp.
	txn, err := f.ledger.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("ledger row should survive budget deletion: %v", err)
	}
	if txn.BudgetID != nil {
		t.Errorf("stamp should be cleared, got %s", *txn.BudgetID)
	}

	// Deleting again is a no-op.
	if err := f.engine.DeleteBudget(ctx, "b1"); err != nil {
		t.Fatalf("second DeleteBudget: %v", err)
	}
}

func TestResolveBudgetDeterministicTieBreak(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Overlapping periods: the shortest one containing the date wins.
	f.createBudget(t, "year", "u1", date(2025, 1, 1), date(2025, 12, 31))
	f.createBudget(t, "month", "u1", date(2025, 1, 1), date(2025, 1, 31))

	b, err := f.engine.ResolveBudget(ctx, "u1", date(2025, 1, 15))
	if err != nil {
		t.Fatal(err)
	}
	if b == nil || b.ID != "month" {
		t.Fatalf("expected shortest-period budget, got %+v", b)
	}

	// Same length: smaller id wins, regardless of creation order.
	f.createBudget(t, "z-jan", "u2", date(2025, 1, 1), date(2025, 1, 31))
	f.createBudget(t, "a-jan", "u2", date(2025, 1, 1), date(2025, 1, 31))

	b, err = f.engine.ResolveBudget(ctx, "u2", date(2025, 1, 15))
	if err != nil {
		t.Fatal(err)
	}
	if b == nil || b.ID != "a-jan" {
		t.Fatalf("expected lexicographically smaller id, got %+v", b)
	}

	// No period contains the date.
	b, err = f.engine.ResolveBudget(ctx, "u1", date(2030, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if b != nil {
		t.Fatalf("expected no match, got %+v", b)
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.createBudget(t, "b1", "u1", date(2025, 1, 1), date(2025, 1, 31))
	f.createTxn(t, "t1", "u1", "12.34", date(2025, 1, 5), models.CategoryShopping)
	f.createTxn(t, "t2", "u1", "56.78", date(2025, 1, 6), models.CategoryEssentials)

	first, _, err := f.engine.RecomputeTotals(ctx, "u1", date(2025, 1, 1), date(2025, 1, 31))
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := f.engine.RecomputeTotals(ctx, "u1", date(2025, 1, 1), date(2025, 1, 31))
	if err != nil {
		t.Fatal(err)
	}

	for _, c := range models.Categories() {
		if !first[c].Equal(second[c]) {
			t.Errorf("recompute not idempotent for %s: %s vs %s", c, first[c], second[c])
		}
	}
}

func TestRecomputeBucketsUnknownCategoriesAsOther(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.ledger.Upsert(ctx, &models.Transaction{
		ID:       "weird",
		UserID:   "u1",
		Amount:   dec("5.00"),
		Date:     date(2025, 1, 10),
		Category: models.Category("Gadgets"),
	}); err != nil {
		t.Fatal(err)
	}

	totals, _, err := f.engine.RecomputeTotals(ctx, "u1", date(2025, 1, 1), date(2025, 1, 31))
	if err != nil {
		t.Fatal(err)
	}
	assertTotal(t, totals, models.CategoryOther, "5.00")
}

// I1: after any mutation sequence, a full recompute must equal the sum of
// matching ledger amounts.
func TestAggregateMatchesLedgerAfterMutations(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.createBudget(t, "b1", "u1", date(2025, 1, 1), date(2025, 1, 31))

	f.createTxn(t, "t1", "u1", "10.00", date(2025, 1, 2), models.CategoryShopping)
	f.createTxn(t, "t2", "u1", "20.50", date(2025, 1, 3), models.CategoryEssentials)
	f.createTxn(t, "t3", "u1", "-5.25", date(2025, 1, 4), models.CategoryOther)
	f.createTxn(t, "t4", "u1", "7.75", date(2025, 1, 31), models.CategoryFoodEntertainment)
	if err := f.engine.UpdateTransactionCategory(ctx, "t2", models.CategoryHealthWellness); err != nil {
		t.Fatal(err)
	}
	if err := f.engine.DeleteTransaction(ctx, "t3"); err != nil {
		t.Fatal(err)
	}

	stored := f.totals(t, "b1")

	txns, err := f.ledger.ListByUserDateRange(ctx, "u1", date(2025, 1, 1), date(2025, 1, 31))
	if err != nil {
		t.Fatal(err)
	}
	ledgerSum := decimal.Zero
	for _, txn := range txns {
		ledgerSum = ledgerSum.Add(txn.Amount)
	}

	if got := sumTotals(stored); !got.Equal(ledgerSum) {
		t.Errorf("aggregate sum %s != ledger sum %s", got, ledgerSum)
	}

	recomputed, _, err := f.engine.RecomputeTotals(ctx, "u1", date(2025, 1, 1), date(2025, 1, 31))
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range models.Categories() {
		if !stored[c].Equal(recomputed[c]) {
			t.Errorf("stored[%s] = %s, recomputed %s", c, stored[c], recomputed[c])
		}
	}
}

// Concurrent creates against the same budget must not lose updates.
func TestConcurrentCreatesDoNotLoseUpdates(t *testing.T) {
	f := newFixture()
	f.createBudget(t, "b1", "u1", date(2025, 1, 1), date(2025, 1, 31))

	const n = 64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			err := f.engine.CreateTransaction(context.Background(), &models.Transaction{
				ID:       fmt.Sprintf("t%d", i),
				UserID:   "u1",
				Amount:   dec("1.00"),
				Date:     date(2025, 1, 15),
				Category: models.CategoryShopping,
			})
			if err != nil {
				t.Errorf("CreateTransaction: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assertTotal(t, f.totals(t, "b1"), models.CategoryShopping, fmt.Sprintf("%d.00", n))
}
