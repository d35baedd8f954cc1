package relayer

import (
	"fmt"

	redis "github.com/go-redis/redis/v7"
)

// checkpointMonotonicSet only writes ARGV[1] to KEYS[1] if it is greater
// than the current value (or the key is unset), so concurrent Store calls
// for the same chain can never regress the durable checkpoint (spec §8
// property 5) regardless of the order their writes arrive in.
const checkpointMonotonicSet = `
local cur = tonumber(redis.call('GET', KEYS[1]))
local new = tonumber(ARGV[1])
if cur == nil or new > cur then
  redis.call('SET', KEYS[1], ARGV[1])
end
return 0
`

// CheckpointStore persists the last durably-processed block number per
// chain, spec §6 "Checkpoint store (Redis)": key
// `{instance_name}:{chain}_last_known_block_number`, value the decimal
// block number. Store enforces monotonicity (spec §8 property 5) itself
// via a Lua script so concurrent block-task writers can never regress it.
type CheckpointStore struct {
	client       *redis.Client
	instanceName string
}

// NewCheckpointStore dials redisURL (a redis:// URL) and returns a store
// namespaced under instanceName.
func NewCheckpointStore(redisURL, instanceName string) (*CheckpointStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("guardianbridge: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping().Err(); err != nil {
		return nil, fmt.Errorf("guardianbridge: connect to redis: %w", err)
	}
	return &CheckpointStore{client: client, instanceName: instanceName}, nil
}

func (s *CheckpointStore) key(chain string) string {
	return fmt.Sprintf("%s:%s_last_known_block_number", s.instanceName, chain)
}

// Load returns the last durable checkpoint for chain, and fallback if no
// checkpoint has ever been written (spec §4.5 step 1).
func (s *CheckpointStore) Load(chain string, fallback uint64) (uint64, error) {
	val, err := s.client.Get(s.key(chain)).Uint64()
	if err == redis.Nil {
		return fallback, nil
	}
	if err != nil {
		return 0, fmt.Errorf("guardianbridge: read checkpoint for %s: %w", chain, err)
	}
	return val, nil
}

// Store durably records block as the last fully-processed block for
// chain, unless a higher checkpoint has already been recorded.
func (s *CheckpointStore) Store(chain string, block uint64) error {
	if err := s.client.Eval(checkpointMonotonicSet, []string{s.key(chain)}, block).Err(); err != nil {
		return fmt.Errorf("guardianbridge: write checkpoint for %s: %w", chain, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (s *CheckpointStore) Close() error {
	return s.client.Close()
}
