package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/event"
)

// The three event payloads a BridgeContract emits (spec §6 "Contract
// events"). The relayer listener decodes these off the host ledger's log
// format; here they are the in-process Go values a contract method hands
// to its event feeds, mirroring the shape the wire encoding carries.

// CrosschainTransferRequest is emitted by SendRequest.
type CrosschainTransferRequest struct {
	CommitteeID      *big.Int
	DestTokenAddress TokenID
	Amount           *big.Int
	DestReceiverAddr AccountID
	RequestNonce     *big.Int
}

// RequestSigned is emitted every time a committee member adds a signature
// to a request hash, whether or not that signature completes the
// threshold.
type RequestSigned struct {
	Signer      AccountID
	RequestHash RequestHash
}

// RequestProcessed is emitted exactly once per request hash, when
// signature_count first reaches the governing committee's threshold.
type RequestProcessed struct {
	RequestHash      RequestHash
	DestTokenAddress TokenID
}

// events bundles the three event.Feed instances a BridgeContract sends
// on. Using go-ethereum's event.Feed rather than a hand-rolled broadcaster
// gets type-checked Subscribe/Send and automatic cleanup on Unsubscribe,
// the same primitive the wider pack's chain clients use to fan block and
// log notifications out to multiple listeners.
type events struct {
	transferRequest  event.Feed
	requestSigned    event.Feed
	requestProcessed event.Feed
}

// SubscribeTransferRequests registers ch to receive every
// CrosschainTransferRequest this contract emits.
func (c *BridgeContract) SubscribeTransferRequests(ch chan<- CrosschainTransferRequest) event.Subscription {
	return c.events.transferRequest.Subscribe(ch)
}

// SubscribeRequestSigned registers ch to receive every RequestSigned this
// contract emits.
func (c *BridgeContract) SubscribeRequestSigned(ch chan<- RequestSigned) event.Subscription {
	return c.events.requestSigned.Subscribe(ch)
}

// SubscribeRequestProcessed registers ch to receive every RequestProcessed
// this contract emits.
func (c *BridgeContract) SubscribeRequestProcessed(ch chan<- RequestProcessed) event.Subscription {
	return c.events.requestProcessed.Subscribe(ch)
}
