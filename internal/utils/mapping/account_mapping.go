package mapping

import (
	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/SscSPs/club_ledger/internal/models"
)

// ToModelAccount converts a domain Account, ledger included, to a model Account
func ToModelAccount(d domain.Account) models.Account {
	m := models.Account{
		AccountID:      d.AccountID,
		Name:           d.Name,
		Kind:           models.AccountKind(d.Kind),
		Status:         string(d.Status),
		Balance:        d.Balance,
		OpeningBalance: d.OpeningBalance,
		Version:        d.Version,
		AuditFields:    ToModelAuditFields(d.AuditFields),
		Ledger:         ToModelLedgerEntries(d.AccountID, d.Ledger),
	}
	if d.BankDetails != nil {
		number, bank := d.BankDetails.AccountNumber, d.BankDetails.BankName
		m.BankAccountNumber = &number
		m.BankName = &bank
	}
	return m
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	d := domain.Account{
		AccountID:      m.AccountID,
		Name:           m.Name,
		Kind:           domain.AccountKind(m.Kind),
		Status:         domain.AccountStatus(m.Status),
		Balance:        m.Balance,
		OpeningBalance: m.OpeningBalance,
		Version:        m.Version,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
		Ledger:         ToDomainLedgerEntries(m.Ledger),
	}
	if m.BankAccountNumber != nil || m.BankName != nil {
		d.BankDetails = &domain.BankDetails{}
		if m.BankAccountNumber != nil {
			d.BankDetails.AccountNumber = *m.BankAccountNumber
		}
		if m.BankName != nil {
			d.BankDetails.BankName = *m.BankName
		}
	}
	return d
}

// ToDomainAccountSlice converts a slice of model Accounts to a slice of domain Accounts
func ToDomainAccountSlice(ms []models.Account) []domain.Account {
	ds := make([]domain.Account, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAccount(m)
	}
	return ds
}
