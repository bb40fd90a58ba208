package domain

import "github.com/shopspring/decimal"

// BalancePolicy decides, per account kind, whether a balance may go below zero.
type BalancePolicy struct {
	AllowNegative map[AccountKind]bool
}

// DefaultBalancePolicy forbids negative bank and cash balances and lets
// category buckets run negative to represent budget overruns.
func DefaultBalancePolicy() BalancePolicy {
	return BalancePolicy{AllowNegative: map[AccountKind]bool{
		AccountKindBank:     false,
		AccountKindCash:     false,
		AccountKindCategory: true,
	}}
}

// Permits reports whether an account of the given kind may hold balance.
func (p BalancePolicy) Permits(kind AccountKind, balance decimal.Decimal) bool {
	if !balance.IsNegative() {
		return true
	}
	return p.AllowNegative[kind]
}
