package repository

import (
	"context"

	"fintrack/internal/models"
	"fintrack/internal/service"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AggregateRepository stores budget aggregates one row per (budget, category).
// ApplyDelta increments rows inside the database so concurrent writers on the
// same budget never lose updates; Replace swaps the whole row set and is the
// recompute write path.
type AggregateRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAggregateRepository(db *pgxpool.Pool, logger *zap.Logger) *AggregateRepository {
	return &AggregateRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AggregateRepository) Get(ctx context.Context, budgetID string) (*models.BudgetAggregate, error) {
	query := squirrel.Select("budget_id", "user_id", "category", "total").
		From("budget_aggregates").
		Where(squirrel.Eq{"budget_id": budgetID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agg *models.BudgetAggregate
	for rows.Next() {
		var (
			bID, userID string
			category    models.Category
			total       decimal.Decimal
		)
		if err := rows.Scan(&bID, &userID, &category, &total); err != nil {
			return nil, err
		}
		if agg == nil {
			agg = models.NewBudgetAggregate(bID, userID)
		}
		agg.CategoryTotals[category] = total
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if agg == nil {
		return nil, service.ErrAggregateNotFound
	}

	return agg, nil
}

func (r *AggregateRepository) ListByUser(ctx context.Context, userID string) ([]*models.BudgetAggregate, error) {
	query := squirrel.Select("budget_id", "user_id", "category", "total").
		From("budget_aggregates").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("budget_id ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		aggregates []*models.BudgetAggregate
		current    *models.BudgetAggregate
	)
	for rows.Next() {
		var (
			budgetID, uID string
			category      models.Category
			total         decimal.Decimal
		)
		if err := rows.Scan(&budgetID, &uID, &category, &total); err != nil {
			return nil, err
		}
		if current == nil || current.BudgetID != budgetID {
			current = models.NewBudgetAggregate(budgetID, uID)
			aggregates = append(aggregates, current)
		}
		current.CategoryTotals[category] = total
	}

	return aggregates, rows.Err()
}

// Replace rewrites the aggregate's row set atomically.
func (r *AggregateRepository) Replace(ctx context.Context, agg *models.BudgetAggregate) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	delSQL, delArgs, err := squirrel.Delete("budget_aggregates").
		Where(squirrel.Eq{"budget_id": agg.BudgetID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, delSQL, delArgs...); err != nil {
		return err
	}

	builder := squirrel.Insert("budget_aggregates").
		Columns("budget_id", "user_id", "category", "total").
		PlaceholderFormat(squirrel.Dollar)
	for category, total := range agg.CategoryTotals {
		builder = builder.Values(agg.BudgetID, agg.UserID, category, total)
	}

	insSQL, insArgs, err := builder.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, insSQL, insArgs...); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ApplyDelta increments per-category totals in place, creating rows that do
// not exist yet. The addition happens in SQL, so two deltas for the same
// budget arriving from different connections both land.
func (r *AggregateRepository) ApplyDelta(ctx context.Context, budgetID, userID string, delta map[models.Category]decimal.Decimal) error {
	if len(delta) == 0 {
		return nil
	}

	builder := squirrel.Insert("budget_aggregates").
		Columns("budget_id", "user_id", "category", "total").
		PlaceholderFormat(squirrel.Dollar)
	for category, d := range delta {
		builder = builder.Values(budgetID, userID, category, d)
	}
	builder = builder.Suffix(`ON CONFLICT (budget_id, category) DO UPDATE SET
		total = round(budget_aggregates.total + EXCLUDED.total, 2)`)

	sql, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *AggregateRepository) Delete(ctx context.Context, budgetID string) error {
	query := squirrel.Delete("budget_aggregates").
		Where(squirrel.Eq{"budget_id": budgetID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *AggregateRepository) DeleteByUser(ctx context.Context, userID string) error {
	query := squirrel.Delete("budget_aggregates").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
