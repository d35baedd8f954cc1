package relayer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// BreakerEvent is published on the circuit breaker's channel (spec §4.7):
// either an advisory contract reporting emergency, or a bridge contract
// reporting itself halted.
type BreakerEvent struct {
	Kind    BreakerEventKind
	Address string // populated for AdvisoryEmergency
	Chain   string // populated for BridgeHalt
}

// BreakerEventKind distinguishes the two breaker event shapes spec §4.7
// describes.
type BreakerEventKind int

const (
	AdvisoryEmergency BreakerEventKind = iota
	BridgeHalt
)

// CircuitBreaker runs the advisory and halted watchers of spec §4.7 and
// tracks whether the relayer's handler side should currently be
// quiescent. The listener side is never stopped by the breaker; only new
// handler task spawning is gated (spec §4.7 last paragraph).
type CircuitBreaker struct {
	events chan BreakerEvent

	emergency atomic.Bool
	mu        sync.Mutex
	clearedAt time.Time

	log *zap.SugaredLogger
}

// NewCircuitBreaker returns a breaker whose event channel is buffered to
// 64 events; trip drops an event when the buffer is full.
func NewCircuitBreaker(log *zap.SugaredLogger) *CircuitBreaker {
	return &CircuitBreaker{events: make(chan BreakerEvent, 64), log: log}
}

// Events returns the channel BreakerEvents are published on. A consumer
// (typically the handler dispatcher) should drain it continuously.
func (b *CircuitBreaker) Events() <-chan BreakerEvent {
	return b.events
}

// Quiesced reports whether new handler tasks should currently be
// withheld.
func (b *CircuitBreaker) Quiesced() bool {
	return b.emergency.Load()
}

// Clear marks the breaker as no longer in emergency. Call this once an
// operator or automated check confirms every advisory/halt source has
// recovered; the breaker itself has no automatic recovery timer since
// spec §4.7 does not describe one.
func (b *CircuitBreaker) Clear() {
	b.emergency.Store(false)
	b.mu.Lock()
	b.clearedAt = time.Now()
	b.mu.Unlock()
}

func (b *CircuitBreaker) trip(ev BreakerEvent) {
	b.emergency.Store(true)
	select {
	case b.events <- ev:
	default:
		b.log.Warnw("breaker event channel full, dropping event", "kind", ev.Kind)
	}
}

// WatchAdvisories polls every advisory contract's is_emergency() at
// interval (spec §4.7 "~1/2 block time") until ctx is done.
func (b *CircuitBreaker) WatchAdvisories(ctx context.Context, advisories []AdvisoryClient, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, adv := range advisories {
				emergency, err := adv.IsEmergency(ctx)
				if err != nil {
					b.log.Warnw("advisory poll failed", "address", adv.Address, "error", err)
					continue
				}
				if emergency {
					b.log.Errorw("advisory contract reports emergency", "address", adv.Address)
					b.trip(BreakerEvent{Kind: AdvisoryEmergency, Address: adv.Address})
				}
			}
		}
	}
}

// WatchHalted polls both bridge contracts' is_halted() at interval (spec
// §4.7 "Halted watcher").
func (b *CircuitBreaker) WatchHalted(ctx context.Context, chains []HaltedClient, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, c := range chains {
				halted, err := c.IsHalted(ctx)
				if err != nil {
					b.log.Warnw("halt poll failed", "chain", c.Chain, "error", err)
					continue
				}
				if halted {
					b.log.Errorw("bridge contract reports halted", "chain", c.Chain)
					b.trip(BreakerEvent{Kind: BridgeHalt, Chain: c.Chain})
				}
			}
		}
	}
}
