package apperrors

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PartialTransferFailure reports a two-leg posting where the first leg committed
// and a later leg did not. It records whether the committed leg was compensated.
type PartialTransferFailure struct {
	Operation        string
	Amount           decimal.Decimal
	AppliedAccountID string
	FailedAccountID  string
	FailedLeg        int
	Compensated      bool
	CompensationErr  error
	Cause            error
}

func (e *PartialTransferFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s leg %d failed on account %s after account %s was posted",
		ErrPartialTransfer.Error(), e.Operation, e.FailedLeg, e.FailedAccountID, e.AppliedAccountID)
	fmt.Fprintf(&b, " (amount %s", e.Amount.String())
	if e.Compensated {
		b.WriteString(", compensated)")
	} else {
		b.WriteString(", NOT compensated")
		if e.CompensationErr != nil {
			fmt.Fprintf(&b, ": %v", e.CompensationErr)
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap lets errors.Is match both ErrPartialTransfer and the leg's cause.
func (e *PartialTransferFailure) Unwrap() []error {
	errs := []error{ErrPartialTransfer}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// RecoverableInconsistency reports an edit whose reversal committed but whose
// re-application did not. When Parked is true the record was stored as PENDING
// so it matches its reversed ledgers; otherwise it still carries its edited status.
type RecoverableInconsistency struct {
	TransactionID      string
	ReversedAccountIDs []string
	Parked             bool
	ParkErr            error
	Cause              error
}

func (e *RecoverableInconsistency) Error() string {
	msg := fmt.Sprintf("%s: transaction %s was reversed on [%s] but the new effect was not applied",
		ErrInconsistentState.Error(), e.TransactionID, strings.Join(e.ReversedAccountIDs, ", "))
	if e.Parked {
		msg += " (record parked as PENDING)"
	} else {
		msg += " (record NOT parked"
		if e.ParkErr != nil {
			msg += ": " + e.ParkErr.Error()
		}
		msg += ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap lets errors.Is match ErrInconsistentState, the apply failure and any park failure.
func (e *RecoverableInconsistency) Unwrap() []error {
	errs := []error{ErrInconsistentState}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	if e.ParkErr != nil {
		errs = append(errs, e.ParkErr)
	}
	return errs
}
