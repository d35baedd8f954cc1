package core

import "errors"

// Contract error taxonomy (spec §6). Each is a distinct sentinel so the
// off-chain relayer can classify a revert with errors.Is, exactly as it
// must distinguish RequestAlreadyProcessed (idempotent success) from any
// other failure (spec §4.6 step 4, §7).
var (
	ErrHalted                   = errors.New("guardianbridge: bridge is halted")
	ErrZeroTransferAmount       = errors.New("guardianbridge: transfer amount is zero")
	ErrUnsupportedPair          = errors.New("guardianbridge: no token pair registered")
	ErrBaseFeeTooLow            = errors.New("guardianbridge: attached value below base fee")
	ErrAmountBelowMinimum       = errors.New("guardianbridge: amount below minimum transfer threshold")
	ErrInsufficientAllowance    = errors.New("guardianbridge: caller has not approved enough allowance")
	ErrHashDoesNotMatchData     = errors.New("guardianbridge: request hash does not match supplied data")
	ErrNotInCommittee           = errors.New("guardianbridge: caller is not a member of the committee")
	ErrUnknownCommittee         = errors.New("guardianbridge: committee id does not exist")
	ErrRequestAlreadySigned     = errors.New("guardianbridge: caller already signed this request")
	ErrRequestAlreadyProcessed  = errors.New("guardianbridge: request already processed")
	ErrNoMintPermission         = errors.New("guardianbridge: bridge lacks mint permission on token")
	ErrDuplicateCommitteeMember = errors.New("guardianbridge: duplicate committee member")
	ErrCorruptedStorage         = errors.New("guardianbridge: storage entry failed to decode")

	// ErrInvalidThreshold is not part of the wire-level error taxonomy in
	// spec §6 (no caller ever needs to distinguish it from a generic
	// rejection over the wire) but set_committee still needs a distinct
	// sentinel internally to report "1 <= threshold <= |members|" failures.
	ErrInvalidThreshold = errors.New("guardianbridge: threshold must be between 1 and the member count")
)
