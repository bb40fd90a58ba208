package services

import (
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/platform/config"
)

// RetryPolicyFromConfig maps ledger configuration onto a RetryPolicy.
func RetryPolicyFromConfig(cfg config.LedgerConfig) RetryPolicy {
	return RetryPolicy{
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
	}
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	policy := cfg.Ledger.BalancePolicy()
	retry := RetryPolicyFromConfig(cfg.Ledger)

	container := &portssvc.ServiceContainer{}

	// The applier is the only writer of balances; every other service posts through it.
	container.Applier = NewBalanceApplier(
		repos.AccountRepo,
		WithBalancePolicy(policy),
		WithRetryPolicy(retry),
	)

	container.Account = NewAccountService(
		repos.AccountRepo,
		WithAccountBalancePolicy(policy),
		WithAccountRetryPolicy(retry),
	)
	container.Transaction = NewTransactionService(repos.TransactionRepo, repos.AccountRepo, container.Applier)
	container.Transfer = NewTransferService(container.Applier)

	return container
}
