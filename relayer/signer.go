package relayer

import (
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/ethereum/go-ethereum/crypto"

	"guardianbridge/core"
)

// Signature is the MultiSignature spec §4.8 refers to: a DER-encoded
// ECDSA signature over a payload's Keccak-256 digest, tagged with the
// account that produced it.
type Signature struct {
	Signer core.AccountID
	Bytes  []byte
}

// Signer is the adapter guardianship interface spec §4.8 describes: an
// account id and a sign operation, satisfied either by an in-process
// keypair (development) or a remote stream-socket signer (production).
type Signer interface {
	AccountID() core.AccountID
	Sign(payload []byte) (Signature, error)
}

// KeypairSigner signs with a secp256k1 private key held in this
// process's memory — the "development seed" variant of spec §4.8. It
// must never be used against a production committee key; production
// binaries select RemoteSigner via config.Dev == false.
type KeypairSigner struct {
	key     *btcec.PrivateKey
	account core.AccountID
}

// NewKeypairSigner derives a KeypairSigner from a raw 32-byte seed. A
// nil seed generates a fresh random key, used by tests and local dev
// nodes that don't care about a stable identity across restarts.
func NewKeypairSigner(seed []byte) (*KeypairSigner, error) {
	var key *btcec.PrivateKey
	if seed == nil {
		var buf [32]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return nil, fmt.Errorf("guardianbridge: generate signer seed: %w", err)
		}
		seed = buf[:]
	}
	if len(seed) != 32 {
		return nil, fmt.Errorf("guardianbridge: signer seed must be 32 bytes, got %d", len(seed))
	}
	key = secp256k1KeyFromSeed(seed)

	pub := key.PubKey().SerializeUncompressed()
	var account core.AccountID
	copy(account[:], crypto.Keccak256(pub[1:])[12:])

	return &KeypairSigner{key: key, account: account}, nil
}

func secp256k1KeyFromSeed(seed []byte) *btcec.PrivateKey {
	key, _ := btcec.PrivKeyFromBytes(seed)
	return key
}

// AccountID returns the account this signer speaks for.
func (s *KeypairSigner) AccountID() core.AccountID {
	return s.account
}

// Sign signs Keccak256(payload) and returns the DER-encoded signature.
func (s *KeypairSigner) Sign(payload []byte) (Signature, error) {
	digest := crypto.Keccak256(payload)
	sig := ecdsa.Sign(s.key, digest)
	return Signature{Signer: s.account, Bytes: sig.Serialize()}, nil
}
