package repository

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/service"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// TransactionRepository is the Postgres-backed ledger. Rows are keyed by the
// transaction id, which for provider-sourced rows is the provider's stable id,
// so Upsert doubles as the sync write path.
type TransactionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTransactionRepository(db *pgxpool.Pool, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *TransactionRepository) Get(ctx context.Context, id string) (*models.Transaction, error) {
	query := squirrel.Select("id", "user_id", "budget_id", "amount", "description", "date", "category", "created_at", "updated_at").
		From("transactions").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var txn models.Transaction
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&txn.ID, &txn.UserID, &txn.BudgetID, &txn.Amount, &txn.Description, &txn.Date, &txn.Category, &txn.CreatedAt, &txn.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, service.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}

	return &txn, nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID string) ([]*models.Transaction, error) {
	return r.list(ctx, squirrel.Eq{"user_id": userID})
}

func (r *TransactionRepository) ListByUserDateRange(ctx context.Context, userID string, from, to time.Time) ([]*models.Transaction, error) {
	return r.list(ctx, squirrel.And{
		squirrel.Eq{"user_id": userID},
		squirrel.GtOrEq{"date": from},
		squirrel.LtOrEq{"date": to},
	})
}

func (r *TransactionRepository) ListByBudget(ctx context.Context, budgetID string) ([]*models.Transaction, error) {
	return r.list(ctx, squirrel.Eq{"budget_id": budgetID})
}

func (r *TransactionRepository) list(ctx context.Context, pred interface{}) ([]*models.Transaction, error) {
	query := squirrel.Select("id", "user_id", "budget_id", "amount", "description", "date", "category", "created_at", "updated_at").
		From("transactions").
		Where(pred).
		OrderBy("date ASC", "id ASC").
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

	var transactions []*models.Transaction
	for rows.Next() {
		var txn models.Transaction
		if err := rows.Scan(
			&txn.ID, &txn.UserID, &txn.BudgetID, &txn.Amount, &txn.Description, &txn.Date, &txn.Category, &txn.CreatedAt, &txn.UpdatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, &txn)
	}

	return transactions, rows.Err()
}

func (r *TransactionRepository) Upsert(ctx context.Context, txn *models.Transaction) error {
	query := squirrel.Insert("transactions").
		Columns("id", "user_id", "budget_id", "amount", "description", "date", "category", "created_at", "updated_at").
		Values(txn.ID, txn.UserID, txn.BudgetID, txn.Amount, txn.Description, txn.Date, txn.Category, txn.CreatedAt, txn.UpdatedAt).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			budget_id = EXCLUDED.budget_id,
			amount = EXCLUDED.amount,
			description = EXCLUDED.description,
			date = EXCLUDED.date,
			category = EXCLUDED.category,
			updated_at = EXCLUDED.updated_at`).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *TransactionRepository) UpsertBatch(ctx context.Context, txns []*models.Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	builder := squirrel.Insert("transactions").
		Columns("id", "user_id", "budget_id", "amount", "description", "date", "category", "created_at", "updated_at").
		PlaceholderFormat(squirrel.Dollar)

	for _, txn := range txns {
		builder = builder.Values(txn.ID, txn.UserID, txn.BudgetID, txn.Amount, txn.Description, txn.Date, txn.Category, txn.CreatedAt, txn.UpdatedAt)
	}

	builder = builder.Suffix(`ON CONFLICT (id) DO UPDATE SET
		budget_id = EXCLUDED.budget_id,
		amount = EXCLUDED.amount,
		description = EXCLUDED.description,
		date = EXCLUDED.date,
		category = EXCLUDED.category,
		updated_at = EXCLUDED.updated_at`)

	sql, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *TransactionRepository) UpdateCategory(ctx context.Context, id string, category models.Category) error {
	query := squirrel.Update("transactions").
		Set("category", category).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}).
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
		return service.ErrTransactionNotFound
	}

	return nil
}

func (r *TransactionRepository) AssignBudget(ctx context.Context, ids []string, budgetID *string) error {
	if len(ids) == 0 {
		return nil
	}

	query := squirrel.Update("transactions").
		Set("budget_id", budgetID).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": ids}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *TransactionRepository) ClearBudget(ctx context.Context, budgetID string) error {
	query := squirrel.Update("transactions").
		Set("budget_id", nil).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"budget_id": budgetID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	query := squirrel.Delete("transactions").
		Where(squirrel.Eq{"id": id}).
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
		return service.ErrTransactionNotFound
	}

	return nil
}

func (r *TransactionRepository) DeleteByUser(ctx context.Context, userID string) error {
	query := squirrel.Delete("transactions").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
