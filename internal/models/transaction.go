package models

import "github.com/shopspring/decimal"

// TransactionRecord is the stored form of an income/expense record.
type TransactionRecord struct {
	TransactionID   string          `db:"transaction_id" json:"transaction_id"`
	Kind            string          `db:"kind" json:"kind"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Category        string          `db:"category" json:"category"`
	Status          string          `db:"status" json:"status"`
	PaymentMethod   string          `db:"payment_method" json:"payment_method"`
	LinkedAccountID *string         `db:"linked_account_id" json:"linked_account_id,omitempty"`
	Description     string          `db:"description" json:"description"`
	Reference       string          `db:"reference" json:"reference"`
	Version         int64           `db:"version" json:"version"`
	AuditFields
}
