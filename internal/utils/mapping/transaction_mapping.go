package mapping

import (
	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/SscSPs/club_ledger/internal/models"
)

// ToModelTransactionRecord converts a domain TransactionRecord to a model TransactionRecord
func ToModelTransactionRecord(d domain.TransactionRecord) models.TransactionRecord {
	return models.TransactionRecord{
		TransactionID:   d.TransactionID,
		Kind:            string(d.Kind),
		Amount:          d.Amount,
		Category:        d.Category,
		Status:          string(d.Status),
		PaymentMethod:   string(d.PaymentMethod),
		LinkedAccountID: d.LinkedAccountID,
		Description:     d.Description,
		Reference:       d.Reference,
		Version:         d.Version,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransactionRecord converts a model TransactionRecord to a domain TransactionRecord
func ToDomainTransactionRecord(m models.TransactionRecord) domain.TransactionRecord {
	return domain.TransactionRecord{
		TransactionID:   m.TransactionID,
		Kind:            domain.TransactionKind(m.Kind),
		Amount:          m.Amount,
		Category:        m.Category,
		Status:          domain.TransactionStatus(m.Status),
		PaymentMethod:   domain.PaymentMethod(m.PaymentMethod),
		LinkedAccountID: m.LinkedAccountID,
		Description:     m.Description,
		Reference:       m.Reference,
		Version:         m.Version,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainTransactionRecordSlice converts stored records to domain records.
func ToDomainTransactionRecordSlice(ms []models.TransactionRecord) []domain.TransactionRecord {
	ds := make([]domain.TransactionRecord, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransactionRecord(m)
	}
	return ds
}
