// Package chaine adapts core.BridgeContract to Chain E, the
// EVM-compatible ledger: addresses are 20 bytes, events arrive as
// go-ethereum core/types.Log entries, and outbound calls are packed as
// ABI calldata rather than the account-based ledger's extrinsics.
package chaine

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"guardianbridge/core"
)

// crosschainTransferRequestSig is the event signature a
// CrosschainTransferRequest log's topics[0] must match: keccak256("CrosschainTransferRequest(uint256,bytes32,uint256,bytes32,uint256)").
var crosschainTransferRequestSig = crypto.Keccak256Hash([]byte("CrosschainTransferRequest(uint256,bytes32,uint256,bytes32,uint256)"))

// ToAccountID left-pads a 20-byte EVM address into the bridge's unified
// 32-byte AccountID representation (spec glossary: "Chain E ... by
// left-zero-padding its 20-byte address").
func ToAccountID(addr common.Address) core.AccountID {
	var id core.AccountID
	copy(id[12:], addr[:])
	return id
}

// FromAccountID extracts the low 20 bytes of a bridge AccountID as an
// EVM address. The caller is responsible for knowing the id actually
// originated on Chain E; the high 12 bytes are simply dropped.
func FromAccountID(id core.AccountID) common.Address {
	var addr common.Address
	copy(addr[:], id[12:])
	return addr
}

// ToTokenID converts a Chain E ERC-20 contract address to the bridge's
// unified TokenID the same way ToAccountID converts accounts.
func ToTokenID(addr common.Address) core.TokenID {
	var id core.TokenID
	copy(id[12:], addr[:])
	return id
}

// DecodeCrosschainTransferRequest parses a raw log emitted by
// SendRequest's Solidity mirror into the fields needed to build a
// destination-chain receive_request call (spec §6 event schema, §4.6
// step 1).
func DecodeCrosschainTransferRequest(log gethtypes.Log) (committeeID *big.Int, destToken core.TokenID, amount *big.Int, destReceiver core.AccountID, nonce *big.Int, err error) {
	if len(log.Topics) == 0 || log.Topics[0] != crosschainTransferRequestSig {
		return nil, core.TokenID{}, nil, core.AccountID{}, nil, fmt.Errorf("guardianbridge: log does not match CrosschainTransferRequest signature")
	}

	args := abi.Arguments{
		{Type: mustType("uint256")},
		{Type: mustType("bytes32")},
		{Type: mustType("uint256")},
		{Type: mustType("bytes32")},
		{Type: mustType("uint256")},
	}
	values, err := args.Unpack(log.Data)
	if err != nil {
		return nil, core.TokenID{}, nil, core.AccountID{}, nil, fmt.Errorf("guardianbridge: decode CrosschainTransferRequest data: %w", err)
	}

	committeeID = values[0].(*big.Int)
	destTokenRaw := values[1].([32]byte)
	amount = values[2].(*big.Int)
	destReceiverRaw := values[3].([32]byte)
	nonce = values[4].(*big.Int)

	copy(destToken[:], destTokenRaw[:])
	copy(destReceiver[:], destReceiverRaw[:])
	return committeeID, destToken, amount, destReceiver, nonce, nil
}

// EncodeReceiveRequestCalldata packs a receive_request(bytes32,uint256,bytes32,uint256,bytes32,uint256)
// call the same way a go-ethereum bound contract caller would, for
// submission by the relayer's signer.
func EncodeReceiveRequestCalldata(hash core.RequestHash, committeeID uint64, localToken core.TokenID, amount *big.Int, receiver core.AccountID, nonce uint64) ([]byte, error) {
	method := abi.NewMethod("receive_request", "receive_request", abi.Function, "nonpayable", false, false,
		abi.Arguments{
			{Name: "hash", Type: mustType("bytes32")},
			{Name: "committeeId", Type: mustType("uint256")},
			{Name: "localToken", Type: mustType("bytes32")},
			{Name: "amount", Type: mustType("uint256")},
			{Name: "receiver", Type: mustType("bytes32")},
			{Name: "nonce", Type: mustType("uint256")},
		},
		nil,
	)

	packed, err := method.Inputs.Pack(hash, new(big.Int).SetUint64(committeeID), localToken, amount, receiver, new(big.Int).SetUint64(nonce))
	if err != nil {
		return nil, fmt.Errorf("guardianbridge: pack receive_request calldata: %w", err)
	}
	return append(method.ID, packed...), nil
}

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(fmt.Sprintf("guardianbridge: invalid abi type %q: %v", name, err))
	}
	return t
}
