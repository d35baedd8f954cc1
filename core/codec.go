package core

import (
	"github.com/ethereum/go-ethereum/crypto"
)

// Hash computes the canonical cross-chain fingerprint H(R) of a request
// tuple: Keccak-256 over committee_id_le16 ‖ dest_token32 ‖ amount_le16 ‖
// dest_receiver32 ‖ nonce_le16 — 112 bytes in, 32 bytes out. Field order,
// endianness and padding are consensus-breaking if changed: both chain
// adapters call this same function, never a re-implementation.
func Hash(r Request) (RequestHash, error) {
	var zero RequestHash

	committeeLE, err := encodeU128LE(r.CommitteeID)
	if err != nil {
		return zero, err
	}
	amountLE, err := encodeU128LE(r.Amount)
	if err != nil {
		return zero, err
	}
	nonceLE, err := encodeU128LE(r.Nonce)
	if err != nil {
		return zero, err
	}

	buf := make([]byte, 0, 112)
	buf = append(buf, committeeLE[:]...)
	buf = append(buf, r.DestToken[:]...)
	buf = append(buf, amountLE[:]...)
	buf = append(buf, r.DestReceiver[:]...)
	buf = append(buf, nonceLE[:]...)

	var out RequestHash
	copy(out[:], crypto.Keccak256(buf))
	return out, nil
}
