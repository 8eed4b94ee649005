package provider

import (
	"fmt"
	"time"

	"fintrack/internal/service"

	"github.com/shopspring/decimal"
)

// ToSyncRecords converts provider rows into the records the sync
// coordinator consumes. An unparseable date fails the whole batch.
func ToSyncRecords(txns []Transaction) ([]service.SyncRecord, error) {
	records := make([]service.SyncRecord, 0, len(txns))
	for _, txn := range txns {
		date, err := time.Parse("2006-01-02", txn.Date)
		if err != nil {
			return nil, fmt.Errorf("parse date of transaction %s: %w", txn.TransactionID, err)
		}
		records = append(records, service.SyncRecord{
			ProviderID:  txn.TransactionID,
			Amount:      decimal.NewFromFloat(txn.Amount),
			Description: txn.Name,
			Date:        date,
			RawCategory: txn.RawCategory(),
		})
	}
	return records, nil
}
