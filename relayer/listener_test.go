package relayer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeCheckpointStore is an in-memory stand-in for *CheckpointStore so
// listener tests don't require a live Redis instance.
type fakeCheckpointStore struct {
	mu    sync.Mutex
	value map[string]uint64
}

func newFakeCheckpointStore() *fakeCheckpointStore {
	return &fakeCheckpointStore{value: make(map[string]uint64)}
}

func (s *fakeCheckpointStore) Load(chain string, fallback uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.value[chain]; ok {
		return v, nil
	}
	return fallback, nil
}

func (s *fakeCheckpointStore) Store(chain string, block uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.value[chain]; ok && block <= cur {
		return nil
	}
	s.value[chain] = block
	return nil
}

func (s *fakeCheckpointStore) get(chain string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value[chain]
}

func TestListenerAdvancesCheckpointAfterDraining(t *testing.T) {
	checkpoints := newFakeCheckpointStore()
	var handledMu sync.Mutex
	var handledNonces []uint64

	var finalized uint64 = 5
	client := ChainClient{
		ChainName: "chaina",
		FinalizedHead: func(ctx context.Context) (uint64, error) {
			return finalized, nil
		},
		BlockEvents: func(ctx context.Context, block uint64) ([]CrosschainTransferEvent, error) {
			return []CrosschainTransferEvent{{SourceBlock: block, Nonce: block}}, nil
		},
	}

	l := NewListener(ListenerConfig{
		Client:        client,
		Checkpoints:   checkpoints,
		MaxBlockTasks: 4,
		PollInterval:  5 * time.Millisecond,
		BlockTime:     time.Millisecond,
		Log:           zap.NewNop().Sugar(),
		Handle: func(ctx context.Context, ev CrosschainTransferEvent) error {
			handledMu.Lock()
			handledNonces = append(handledNonces, ev.Nonce)
			handledMu.Unlock()
			return nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = l.Run(ctx, 0)

	require.Equal(t, uint64(5), checkpoints.get("chaina"))
	handledMu.Lock()
	require.Len(t, handledNonces, 6)
	handledMu.Unlock()
}
