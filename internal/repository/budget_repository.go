package repository

import (
	"context"
	"errors"

	"fintrack/internal/models"
	"fintrack/internal/service"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type BudgetRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewBudgetRepository(db *pgxpool.Pool, logger *zap.Logger) *BudgetRepository {
	return &BudgetRepository{
		db:     db,
		logger: logger,
	}
}

func (r *BudgetRepository) Get(ctx context.Context, id string) (*models.Budget, error) {
	query := squirrel.Select("id", "user_id", "title", "amount", "from_date", "to_date", "created_at", "updated_at").
		From("budgets").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var b models.Budget
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&b.ID, &b.UserID, &b.Title, &b.Amount, &b.FromDate, &b.ToDate, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, service.ErrBudgetNotFound
	}
	if err != nil {
		return nil, err
	}

	return &b, nil
}

func (r *BudgetRepository) ListByUser(ctx context.Context, userID string) ([]*models.Budget, error) {
	query := squirrel.Select("id", "user_id", "title", "amount", "from_date", "to_date", "created_at", "updated_at").
		From("budgets").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("from_date DESC", "id ASC").
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

	var budgets []*models.Budget
	for rows.Next() {
		var b models.Budget
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.Title, &b.Amount, &b.FromDate, &b.ToDate, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		budgets = append(budgets, &b)
	}

	return budgets, rows.Err()
}

func (r *BudgetRepository) Create(ctx context.Context, b *models.Budget) error {
	query := squirrel.Insert("budgets").
		Columns("id", "user_id", "title", "amount", "from_date", "to_date", "created_at", "updated_at").
		Values(b.ID, b.UserID, b.Title, b.Amount, b.FromDate, b.ToDate, b.CreatedAt, b.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *BudgetRepository) Update(ctx context.Context, b *models.Budget) error {
	query := squirrel.Update("budgets").
		Set("title", b.Title).
		Set("amount", b.Amount).
		Set("from_date", b.FromDate).
		Set("to_date", b.ToDate).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"id": b.ID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return service.ErrBudgetNotFound
	}

	return nil
}

// Delete is a no-op for budgets that do not exist.
func (r *BudgetRepository) Delete(ctx context.Context, id string) error {
	query := squirrel.Delete("budgets").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *BudgetRepository) DeleteByUser(ctx context.Context, userID string) error {
	query := squirrel.Delete("budgets").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
