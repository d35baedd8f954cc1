package relayer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPendingBlockSetCheckpointIsStrictPrefix(t *testing.T) {
	s := newPendingBlockSet()
	s.Insert(10)
	s.Insert(11)
	s.Insert(12)

	_, ok := s.Checkpoint()
	require.True(t, ok)
	cp, _ := s.Checkpoint()
	require.Equal(t, uint64(9), cp)

	s.Remove(11)
	cp, ok = s.Checkpoint()
	require.True(t, ok)
	require.Equal(t, uint64(9), cp, "checkpoint must not advance past an undrained lower block")

	s.Remove(10)
	cp, ok = s.Checkpoint()
	require.True(t, ok)
	require.Equal(t, uint64(11), cp)

	s.Remove(12)
	_, ok = s.Checkpoint()
	require.False(t, ok)
}

func TestPendingBlockSetSnapshotSorted(t *testing.T) {
	s := newPendingBlockSet()
	s.Insert(5)
	s.Insert(1)
	s.Insert(3)
	require.Equal(t, []uint64{1, 3, 5}, s.snapshot())
}
