package relayer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"guardianbridge/core"
)

// Handler implements spec §4.6: decode -> rehash -> dry-run -> submit ->
// wait for destination finality, for events flowing from one chain to
// the other.
type Handler struct {
	destination      ChainClient
	minConfirmations uint64
	finalityPoll     time.Duration

	log *zap.SugaredLogger
}

// HandlerConfig groups Handler's construction parameters.
type HandlerConfig struct {
	Destination      ChainClient
	MinConfirmations uint64
	FinalityPoll     time.Duration
	Log              *zap.SugaredLogger
}

// NewHandler constructs a Handler that submits receive_request calls to
// cfg.Destination.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		destination:      cfg.Destination,
		minConfirmations: cfg.MinConfirmations,
		finalityPoll:     cfg.FinalityPoll,
		log:              cfg.Log,
	}
}

// decodeAmount reconstructs the big-endian encoded amount as a *big.Int.
func decodeAmount(raw []byte) *big.Int {
	return new(big.Int).SetBytes(raw)
}

// rehash recomputes the canonical request hash from a decoded event,
// spec §4.6 step 2.
func rehash(ev CrosschainTransferEvent) (core.RequestHash, error) {
	return core.Hash(core.Request{
		CommitteeID:  new(big.Int).SetUint64(ev.CommitteeID),
		DestToken:    ev.LocalToken,
		Amount:       decodeAmount(ev.Amount),
		DestReceiver: ev.Receiver,
		Nonce:        new(big.Int).SetUint64(ev.Nonce),
	})
}

// Handle processes one source-chain event end to end. It returns nil for
// both a freshly-submitted success and an idempotent no-op (the request
// was already processed or already signed by this committee member), so
// the listener only logs and counts genuine failures; it does not retry a
// failed event.
func (h *Handler) Handle(ctx context.Context, ev CrosschainTransferEvent) error {
	hash, err := rehash(ev)
	if err != nil {
		return fmt.Errorf("guardianbridge: rehash event: %w", err)
	}

	if err := h.destination.DryRunReceive(ctx, ev); err != nil {
		if errors.Is(err, core.ErrRequestAlreadyProcessed) || errors.Is(err, core.ErrRequestAlreadySigned) {
			h.log.Debugw("dry-run reports idempotent no-op, treating as success", "hash", hash.Hex())
			return nil
		}
		return fmt.Errorf("guardianbridge: dry-run rejected receive_request: %w", err)
	}

	txBlock, err := h.destination.SubmitReceive(ctx, ev)
	if err != nil {
		return fmt.Errorf("guardianbridge: submit receive_request: %w", err)
	}

	return h.waitForFinality(ctx, txBlock)
}

// waitForFinality polls the finalized head every finalityPoll until it is
// at least min_confirmations blocks past txBlock, so txBlock is both
// finalized and that deep (spec §4.6 step 5).
func (h *Handler) waitForFinality(ctx context.Context, txBlock uint64) error {
	ticker := time.NewTicker(h.finalityPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			head, err := h.destination.FinalizedHead(ctx)
			if err != nil {
				h.log.Warnw("finalized head query failed while waiting for finality, retrying", "error", err)
				continue
			}
			if head >= txBlock && head-txBlock >= h.minConfirmations {
				return nil
			}
		}
	}
}
