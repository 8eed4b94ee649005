package service_test

import (
	"context"
	"testing"

	"fintrack/internal/models"
	"fintrack/internal/service"
	"fintrack/internal/testutil"

	"go.uber.org/zap"
)

func newUserService(f *fixture) (*service.UserService, *testutil.MemoryUserStore) {
	users := testutil.NewMemoryUserStore()
	return service.NewUserService(users, f.ledger, f.budgets, f.aggregates, zap.NewNop()), users
}

func TestUserRegisterAndLookup(t *testing.T) {
	f := newFixture()
	svc, _ := newUserService(f)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "u1", "Ada", "ada@example.com"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	u, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if u.Name != "Ada" || u.Email != "ada@example.com" {
		t.Errorf("unexpected user %+v", u)
	}

	all, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("List returned %d users, want 1", len(all))
	}

	if _, err := svc.Get(ctx, "missing"); err != service.ErrUserNotFound {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserDeleteCascades(t *testing.T) {
	f := newFixture()
	svc, _ := newUserService(f)
	ctx := context.Background()

	for _, id := range []string{"u1", "u2"} {
		if _, err := svc.Register(ctx, id, "user "+id, id+"@example.com"); err != nil {
			t.Fatal(err)
		}
	}

	f.createBudget(t, "b1", "u1", date(2025, 1, 1), date(2025, 1, 31))
	f.createBudget(t, "b2", "u2", date(2025, 1, 1), date(2025, 1, 31))
	f.createTxn(t, "t1", "u1", "10.00", date(2025, 1, 5), models.CategoryShopping)
	f.createTxn(t, "t2", "u2", "20.00", date(2025, 1, 5), models.CategoryShopping)

	if err := svc.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := svc.Get(ctx, "u1"); err != service.ErrUserNotFound {
		t.Errorf("user should be gone, got %v", err)
	}
	if _, err := f.ledger.Get(ctx, "t1"); err != service.ErrTransactionNotFound {
		t.Errorf("u1 transaction should be gone, got %v", err)
	}
	if _, err := f.budgets.Get(ctx, "b1"); err != service.ErrBudgetNotFound {
		t.Errorf("u1 budget should be gone, got %v", err)
	}
	if _, err := f.aggregates.Get(ctx, "b1"); err != service.ErrAggregateNotFound {
		t.Errorf("u1 aggregate should be gone, got %v", err)
	}

	// The other user's data is untouched.
	if _, err := f.ledger.Get(ctx, "t2"); err != nil {
		t.Errorf("u2 transaction should survive: %v", err)
	}
	if _, err := f.aggregates.Get(ctx, "b2"); err != nil {
		t.Errorf("u2 aggregate should survive: %v", err)
	}
}

func TestUserDeleteNotFound(t *testing.T) {
	f := newFixture()
	svc, _ := newUserService(f)
	if err := svc.Delete(context.Background(), "ghost"); err != service.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
