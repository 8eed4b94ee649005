package service

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrBudgetNotFound      = errors.New("budget not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAggregateNotFound   = errors.New("budget aggregate not found")
	ErrInvalidPeriod       = errors.New("fromDate must not be after toDate")
)
