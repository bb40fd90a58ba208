package mapping

import (
	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/SscSPs/club_ledger/internal/models"
)

// ToModelLedgerEntry converts a domain entry at position seq of accountID's ledger.
func ToModelLedgerEntry(accountID string, seq int, e domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:               e.EntryID,
		AccountID:             accountID,
		Seq:                   seq,
		Amount:                e.Amount,
		Direction:             string(e.Direction),
		EntryType:             string(e.EntryType),
		Description:           e.Description,
		Timestamp:             e.Timestamp,
		SourceTransactionID:   e.SourceTransactionID,
		CounterpartyAccountID: e.CounterpartyAccountID,
		BalanceAfter:          e.BalanceAfter,
		CreatedBy:             e.CreatedBy,
	}
}

// ToDomainLedgerEntry converts a model entry to a domain entry.
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:               m.EntryID,
		Amount:                m.Amount,
		Direction:             domain.Direction(m.Direction),
		EntryType:             domain.EntryType(m.EntryType),
		Description:           m.Description,
		Timestamp:             m.Timestamp,
		SourceTransactionID:   m.SourceTransactionID,
		CounterpartyAccountID: m.CounterpartyAccountID,
		BalanceAfter:          m.BalanceAfter,
		CreatedBy:             m.CreatedBy,
	}
}

// ToModelLedgerEntries keeps ledger order as Seq.
func ToModelLedgerEntries(accountID string, entries []domain.LedgerEntry) []models.LedgerEntry {
	ms := make([]models.LedgerEntry, len(entries))
	for i, e := range entries {
		ms[i] = ToModelLedgerEntry(accountID, i, e)
	}
	return ms
}

// ToDomainLedgerEntries converts entries already ordered by Seq.
func ToDomainLedgerEntries(ms []models.LedgerEntry) []domain.LedgerEntry {
	ds := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLedgerEntry(m)
	}
	return ds
}
