// Package chaina adapts core.BridgeContract to Chain A, the
// account-based ledger: accounts are already 32 raw bytes (no padding
// needed, unlike chaine), and outbound calls are encoded as a compact
// little-endian extrinsic payload rather than ABI calldata.
package chaina

import (
	"fmt"
	"math/big"

	"guardianbridge/core"
)

// receiveRequestCallIndex is this extrinsic's call index within the
// bridge pallet/contract's dispatch table, analogous to an EVM 4-byte
// selector.
const receiveRequestCallIndex = 0x02

// EncodeReceiveRequestExtrinsic packs a receive_request call into the
// compact little-endian wire format Chain A's contract dispatcher
// expects: a one-byte call index followed by each argument encoded the
// same way core.Hash encodes a Request (16-byte LE u128s, raw 32-byte
// IDs), so a relayer submitting this payload and the contract decoding
// it never disagree about byte order.
func EncodeReceiveRequestExtrinsic(hash core.RequestHash, committeeID uint64, localToken core.TokenID, amount *big.Int, receiver core.AccountID, nonce uint64) ([]byte, error) {
	committeeLE, err := core.EncodeU128LE(new(big.Int).SetUint64(committeeID))
	if err != nil {
		return nil, err
	}
	amountLE, err := core.EncodeU128LE(amount)
	if err != nil {
		return nil, err
	}
	nonceLE, err := core.EncodeU128LE(new(big.Int).SetUint64(nonce))
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 1+32+16+32+16+32+16)
	buf = append(buf, receiveRequestCallIndex)
	buf = append(buf, hash[:]...)
	buf = append(buf, committeeLE[:]...)
	buf = append(buf, localToken[:]...)
	buf = append(buf, amountLE[:]...)
	buf = append(buf, receiver[:]...)
	buf = append(buf, nonceLE[:]...)
	return buf, nil
}

// DecodeCrosschainTransferRequestEvent parses the fixed-layout event
// payload a Chain A block's event log carries for
// CrosschainTransferRequest (spec §6 event schema), the mirror of
// chaine.DecodeCrosschainTransferRequest for the account-based side.
func DecodeCrosschainTransferRequestEvent(raw []byte) (committeeID *big.Int, destToken core.TokenID, amount *big.Int, destReceiver core.AccountID, nonce *big.Int, err error) {
	const wantLen = 16 + 32 + 16 + 32 + 16
	if len(raw) != wantLen {
		return nil, core.TokenID{}, nil, core.AccountID{}, nil, fmt.Errorf("guardianbridge: malformed CrosschainTransferRequest event, want %d bytes got %d", wantLen, len(raw))
	}

	off := 0
	committeeID = core.DecodeU128LE([16]byte(raw[off : off+16]))
	off += 16
	copy(destToken[:], raw[off:off+32])
	off += 32
	amount = core.DecodeU128LE([16]byte(raw[off : off+16]))
	off += 16
	copy(destReceiver[:], raw[off:off+32])
	off += 32
	nonce = core.DecodeU128LE([16]byte(raw[off : off+16]))

	return committeeID, destToken, amount, destReceiver, nonce, nil
}
