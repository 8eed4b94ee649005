package service

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UserService owns the user registry and the cascade that removes all of a
// user's data with them.
type UserService struct {
	users      UserStore
	ledger     Ledger
	budgets    BudgetStore
	aggregates AggregateStore
	logger     *zap.Logger
}

func NewUserService(
	users UserStore,
	ledger Ledger,
	budgets BudgetStore,
	aggregates AggregateStore,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:      users,
		ledger:     ledger,
		budgets:    budgets,
		aggregates: aggregates,
		logger:     logger,
	}
}

func (s *UserService) Register(ctx context.Context, id, name, email string) (*models.User, error) {
	u := &models.User{
		ID:        id,
		Name:      name,
		Email:     email,
		CreatedAt: time.Now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.users.Get(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.users.List(ctx)
}

// Delete removes the user and cascades over their transactions, budgets
// and aggregates. The three collections are independent, so the deletions
// run concurrently.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.users.Get(ctx, id); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.ledger.DeleteByUser(gctx, id) })
	g.Go(func() error { return s.budgets.DeleteByUser(gctx, id) })
	g.Go(func() error { return s.aggregates.DeleteByUser(gctx, id) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("cascade delete user %s: %w", id, err)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.Info("user deleted with all associated data", zap.String("user_id", id))
	return nil
}
