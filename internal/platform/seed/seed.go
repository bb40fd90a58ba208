// Package seed loads opening accounts for a club from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// AccountSeed is one account entry in a seed file.
type AccountSeed struct {
	Name           string `yaml:"name"`
	Kind           string `yaml:"kind"`
	OpeningBalance string `yaml:"opening_balance"`
	BankName       string `yaml:"bank_name"`
	AccountNumber  string `yaml:"account_number"`
}

// File is the top level of a seed file.
//
//	accounts:
//	  - name: Main Bank
//	    kind: BANK
//	    opening_balance: "1500.00"
//	    bank_name: First Credit Union
//	    account_number: "0012345"
//	categories:
//	  - Sponsorship
//	  - Travel
type File struct {
	Accounts   []AccountSeed `yaml:"accounts"`
	Categories []string      `yaml:"categories"`
}

// Result lists what Apply did, by account name.
type Result struct {
	Created []string
	Skipped []string
}

// accountCreator is the subset of the account service seeding needs.
type accountCreator interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actorID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error)
}

var _ accountCreator = (portssvc.AccountSvcFacade)(nil)

// LoadFile reads and parses a seed file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes seed YAML and checks each entry.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	for i, a := range f.Accounts {
		if strings.TrimSpace(a.Name) == "" {
			return nil, fmt.Errorf("accounts[%d]: name is required", i)
		}
		if !domain.AccountKind(strings.ToUpper(a.Kind)).IsValid() {
			return nil, fmt.Errorf("accounts[%d]: unknown kind %q", i, a.Kind)
		}
		if a.OpeningBalance != "" {
			if _, err := decimal.NewFromString(a.OpeningBalance); err != nil {
				return nil, fmt.Errorf("accounts[%d]: invalid opening_balance %q: %w", i, a.OpeningBalance, err)
			}
		}
	}
	for i, c := range f.Categories {
		if strings.TrimSpace(c) == "" {
			return nil, fmt.Errorf("categories[%d]: name is required", i)
		}
	}
	return &f, nil
}

// Apply creates every account in f that does not already exist.
// An account exists when one of the same kind has the same name, ignoring case.
func Apply(ctx context.Context, svc accountCreator, f *File, actorID string, logger *slog.Logger) (*Result, error) {
	existing, err := svc.ListAccounts(ctx, domain.AccountFilter{IncludeInactive: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list existing accounts: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, acc := range existing {
		seen[seedKey(acc.Kind, acc.Name)] = true
	}

	res := &Result{}
	create := func(req dto.CreateAccountRequest) error {
		key := seedKey(req.Kind, req.Name)
		if seen[key] {
			res.Skipped = append(res.Skipped, req.Name)
			return nil
		}
		acc, err := svc.CreateAccount(ctx, req, actorID)
		if errors.Is(err, apperrors.ErrDuplicate) {
			res.Skipped = append(res.Skipped, req.Name)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to create account %q: %w", req.Name, err)
		}
		seen[key] = true
		res.Created = append(res.Created, req.Name)
		logger.Info("Seeded account",
			slog.String("account_id", acc.AccountID),
			slog.String("name", acc.Name),
			slog.String("kind", string(acc.Kind)),
			slog.String("opening_balance", acc.OpeningBalance.String()))
		return nil
	}

	for _, a := range f.Accounts {
		req := dto.CreateAccountRequest{
			Name: strings.TrimSpace(a.Name),
			Kind: domain.AccountKind(strings.ToUpper(a.Kind)),
		}
		if a.OpeningBalance != "" {
			req.OpeningBalance = decimal.RequireFromString(a.OpeningBalance)
		}
		if a.BankName != "" || a.AccountNumber != "" {
			req.BankDetails = &dto.BankDetailsRequest{BankName: a.BankName, AccountNumber: a.AccountNumber}
		}
		if err := create(req); err != nil {
			return res, err
		}
	}
	for _, c := range f.Categories {
		if err := create(dto.CreateAccountRequest{Name: strings.TrimSpace(c), Kind: domain.AccountKindCategory}); err != nil {
			return res, err
		}
	}
	return res, nil
}

func seedKey(kind domain.AccountKind, name string) string {
	return string(kind) + "|" + strings.ToLower(strings.TrimSpace(name))
}
