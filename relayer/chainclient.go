package relayer

import (
	"context"

	"guardianbridge/core"
)

// ChainClient is the per-chain RPC collaborator the listener and handler
// depend on. It is out of scope per spec §1 ("block-chain RPC client
// libraries"); it is a struct of function fields, filled by
// NewChainAWebsocketClient/NewChainEWebsocketClient in ws_chainclient.go
// for the daemon, and by in-memory fakes in tests.
type ChainClient struct {
	// ChainName is the short identifier used in checkpoint keys and log
	// fields ("chaina" or "chaine" for the websocket clients).
	ChainName string

	FinalizedHead func(ctx context.Context) (uint64, error)
	BlockEvents   func(ctx context.Context, block uint64) ([]CrosschainTransferEvent, error)

	// DryRunReceive simulates a receive_request call without submitting
	// it, returning the error the real call would revert with (nil on
	// success). Used by the handler to implement idempotent retries
	// (spec §4.6 step 4).
	DryRunReceive func(ctx context.Context, ev CrosschainTransferEvent) error
	// SubmitReceive signs and submits the receive_request transaction,
	// returning the block it landed in.
	SubmitReceive func(ctx context.Context, ev CrosschainTransferEvent) (txBlock uint64, err error)
}

// CrosschainTransferEvent is the decoded form of spec §6's
// CrosschainTransferRequest event, carrying everything the destination
// receive_request call needs.
type CrosschainTransferEvent struct {
	SourceBlock uint64
	CommitteeID uint64
	LocalToken  core.TokenID
	Amount      []byte // big-endian u128, decoded lazily to avoid importing math/big into the wire struct
	Receiver    core.AccountID
	Nonce       uint64
}

// AdvisoryClient polls a single Advisory contract's is_emergency() flag
// (spec §4.7). Out of scope per spec §1 for the same reason as
// ChainClient: a real implementation wraps a contract-call RPC.
type AdvisoryClient struct {
	Address     string
	IsEmergency func(ctx context.Context) (bool, error)
}

// HaltedClient polls one bridge contract's is_halted() flag (spec §4.7
// "Halted watcher").
type HaltedClient struct {
	Chain    string
	IsHalted func(ctx context.Context) (bool, error)
}
