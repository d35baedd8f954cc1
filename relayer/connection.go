package relayer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"guardianbridge/core"
)

// ChainConnection records one source-chain-to-destination-chain link the
// relayer maintains, persisted in a core.KVStore so an admin API
// or monitoring process can enumerate which legs of the bridge are
// currently live without reaching into listener internals.
type ChainConnection struct {
	ID          string    `json:"id"`
	LocalChain  string    `json:"local_chain"`
	RemoteChain string    `json:"remote_chain"`
	Established time.Time `json:"established"`
	Active      bool      `json:"active"`
}

const connectionKeyPrefix = "guardianbridge:conn:"

func connectionKey(id string) []byte {
	return []byte(connectionKeyPrefix + id)
}

// ConnectionRegistry tracks ChainConnections in a core.KVStore. It does
// not open or close any socket itself; records are opened and closed by
// its callers (cmd/relayer opens one at startup, and the admin API's
// connection endpoints call Open/Close), not by the listener.
type ConnectionRegistry struct {
	store core.KVStore
	log   *zap.SugaredLogger
}

// NewConnectionRegistry returns a registry backed by store.
func NewConnectionRegistry(store core.KVStore, log *zap.SugaredLogger) *ConnectionRegistry {
	return &ConnectionRegistry{store: store, log: log}
}

// Open records a new active connection between local and remote.
func (r *ConnectionRegistry) Open(local, remote string) (ChainConnection, error) {
	conn := ChainConnection{
		ID:          uuid.New().String(),
		LocalChain:  local,
		RemoteChain: remote,
		Established: time.Now().UTC(),
		Active:      true,
	}
	raw, err := json.Marshal(conn)
	if err != nil {
		return ChainConnection{}, err
	}
	if err := r.store.Set(connectionKey(conn.ID), raw); err != nil {
		return ChainConnection{}, err
	}
	r.log.Infow("opened chain connection", "id", conn.ID, "local", local, "remote", remote)
	return conn, nil
}

// Close marks id inactive; the record stays for historical auditing.
func (r *ConnectionRegistry) Close(id string) error {
	raw, err := r.store.Get(connectionKey(id))
	if err != nil {
		return fmt.Errorf("guardianbridge: connection %s not found: %w", id, err)
	}
	var conn ChainConnection
	if err := json.Unmarshal(raw, &conn); err != nil {
		return err
	}
	if !conn.Active {
		return nil
	}
	conn.Active = false
	enc, err := json.Marshal(conn)
	if err != nil {
		return err
	}
	if err := r.store.Set(connectionKey(id), enc); err != nil {
		return err
	}
	r.log.Infow("closed chain connection", "id", id)
	return nil
}

// List returns every known connection.
func (r *ConnectionRegistry) List() ([]ChainConnection, error) {
	it := r.store.Iterator([]byte(connectionKeyPrefix))
	defer it.Close()
	var out []ChainConnection
	for it.Next() {
		var c ChainConnection
		if err := json.Unmarshal(it.Value(), &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, it.Error()
}
