package dto

import (
	"time"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BankDetailsRequest carries optional bank metadata for BANK accounts.
type BankDetailsRequest struct {
	AccountNumber string `json:"accountNumber" binding:"required"`
	BankName      string `json:"bankName" binding:"required"`
}

// CreateAccountRequest defines the data needed to open a new account.
type CreateAccountRequest struct {
	Name           string              `json:"name" binding:"required"`
	Kind           domain.AccountKind  `json:"kind" binding:"required,oneof=BANK CASH CATEGORY"`
	OpeningBalance decimal.Decimal     `json:"openingBalance"`
	BankDetails    *BankDetailsRequest `json:"bankDetails"`
}

// UpdateAccountRequest defines the metadata that may change on an account.
// Balance and ledger are never editable here.
type UpdateAccountRequest struct {
	Name        *string               `json:"name"`
	Status      *domain.AccountStatus `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
	BankDetails *BankDetailsRequest   `json:"bankDetails"`
	Version     *int64                `json:"version"` // optional optimistic check
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID      string               `json:"accountID"`
	Name           string               `json:"name"`
	Kind           domain.AccountKind   `json:"kind"`
	Status         domain.AccountStatus `json:"status"`
	Balance        decimal.Decimal      `json:"balance"`
	OpeningBalance decimal.Decimal      `json:"openingBalance"`
	BankDetails    *domain.BankDetails  `json:"bankDetails,omitempty"`
	EntryCount     int                  `json:"entryCount"`
	Version        int64                `json:"version"`
	CreatedAt      time.Time            `json:"createdAt"`
	CreatedBy      string               `json:"createdBy"`
	LastUpdatedAt  time.Time            `json:"lastUpdatedAt"`
	LastUpdatedBy  string               `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:      acc.AccountID,
		Name:           acc.Name,
		Kind:           acc.Kind,
		Status:         acc.Status,
		Balance:        acc.Balance,
		OpeningBalance: acc.OpeningBalance,
		BankDetails:    acc.BankDetails,
		EntryCount:     len(acc.Ledger),
		Version:        acc.Version,
		CreatedAt:      acc.CreatedAt,
		CreatedBy:      acc.CreatedBy,
		LastUpdatedAt:  acc.LastUpdatedAt,
		LastUpdatedBy:  acc.LastUpdatedBy,
	}
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToAccountResponse(&accounts[i])
	}
	return res
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	Kind            string `form:"kind" binding:"omitempty,oneof=BANK CASH CATEGORY"`
	IncludeInactive bool   `form:"includeInactive"`
}

// ListAccountsResponse wraps the list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// BalanceVerificationResponse reports whether an account's balance matches its ledger.
type BalanceVerificationResponse struct {
	AccountID     string          `json:"accountID"`
	StoredBalance decimal.Decimal `json:"storedBalance"`
	LedgerTotal   decimal.Decimal `json:"ledgerTotal"`
	EntryCount    int             `json:"entryCount"`
	Consistent    bool            `json:"consistent"`
}

// ToBalanceVerificationResponse converts a domain verification result.
func ToBalanceVerificationResponse(v *domain.BalanceVerification) BalanceVerificationResponse {
	return BalanceVerificationResponse(*v)
}
