package relayer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/gorilla/websocket"

	"guardianbridge/core"
	"guardianbridge/core/chaina"
	"guardianbridge/core/chaine"
)

// wsRequest/wsResponse are the minimal JSON-RPC envelope the relayer
// speaks to either chain's node over a websocket (spec §6
// azero_node_wss_url / eth_node_wss_url). The actual node RPC method set
// is chain-specific and out of scope per spec §1 ("block-chain RPC
// client libraries"); the method names this file calls
// (chain_getFinalizedHead, chain_getBlockEvents,
// contract_dryRunReceiveRequest, contract_submitReceiveRequest) are
// fixed literals, and the constructors take no method-name parameters.
type wsRequest struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type wsResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// wsRPCClient is a single persistent websocket connection used for
// synchronous request/response RPC, the same "one round trip at a time"
// discipline RemoteSigner uses for the sign protocol. A production
// deployment runs one of these per chain.
type wsRPCClient struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	nextID atomic.Uint64
}

func dialWebsocketRPC(wsURL string) (*wsRPCClient, error) {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("guardianbridge: dial %s: %w", wsURL, err)
	}
	return &wsRPCClient{conn: conn}, nil
}

func (c *wsRPCClient) call(method string, params, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var raw json.RawMessage
	if params != nil {
		enc, err := json.Marshal(params)
		if err != nil {
			return err
		}
		raw = enc
	}

	req := wsRequest{ID: c.nextID.Add(1), Method: method, Params: raw}
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("guardianbridge: write %s: %w", method, err)
	}

	var resp wsResponse
	if err := c.conn.ReadJSON(&resp); err != nil {
		return fmt.Errorf("guardianbridge: read %s response: %w", method, err)
	}
	if resp.Error != "" {
		return fmt.Errorf("guardianbridge: %s: %s", method, resp.Error)
	}
	if result == nil || resp.Result == nil {
		return nil
	}
	return json.Unmarshal(resp.Result, result)
}

func (c *wsRPCClient) Close() error {
	return c.conn.Close()
}

// chainARawEvent is the JSON shape a Chain A node's RPC answers a
// chain_getBlockEvents call with: the fixed-layout CrosschainTransferRequest
// payload exactly as core/chaina.DecodeCrosschainTransferRequestEvent
// expects it, untouched by this transport.
type chainARawEvent struct {
	Raw []byte `json:"raw"`
}

// chainERawLog mirrors the go-ethereum core/types.Log fields
// core/chaine.DecodeCrosschainTransferRequest needs: the event topics
// (for signature matching) and the ABI-encoded data.
type chainERawLog struct {
	Topics [][32]byte `json:"topics"`
	Data   []byte     `json:"data"`
}

// NewChainAWebsocketClient builds a ChainClient for Chain A (spec §6
// azero_node_wss_url) backed by a persistent websocket RPC connection.
// Event decode and receive_request encode go through core/chaina's
// extrinsic codec (spec §4.6 steps 1 & 3), the same codec core.Hash's
// u128 layout is built on, so nothing here can drift from the bit-exact
// cross-chain hash invariant spec §4.1 requires.
func NewChainAWebsocketClient(wsURL string, signer Signer) (ChainClient, func() error, error) {
	rpc, err := dialWebsocketRPC(wsURL)
	if err != nil {
		return ChainClient{}, nil, err
	}

	client := ChainClient{
		ChainName: "chaina",
		FinalizedHead: func(ctx context.Context) (uint64, error) {
			var head uint64
			if err := rpc.call("chain_getFinalizedHead", nil, &head); err != nil {
				return 0, err
			}
			return head, nil
		},
		BlockEvents: func(ctx context.Context, block uint64) ([]CrosschainTransferEvent, error) {
			var wire []chainARawEvent
			if err := rpc.call("chain_getBlockEvents", map[string]uint64{"block": block}, &wire); err != nil {
				return nil, err
			}
			out := make([]CrosschainTransferEvent, 0, len(wire))
			for _, w := range wire {
				committeeID, destToken, amount, destReceiver, nonce, err := chaina.DecodeCrosschainTransferRequestEvent(w.Raw)
				if err != nil {
					return nil, fmt.Errorf("guardianbridge: decode chain A block %d event: %w", block, err)
				}
				out = append(out, CrosschainTransferEvent{
					SourceBlock: block,
					CommitteeID: committeeID.Uint64(),
					LocalToken:  destToken,
					Amount:      amount.Bytes(),
					Receiver:    destReceiver,
					Nonce:       nonce.Uint64(),
				})
			}
			return out, nil
		},
		DryRunReceive: func(ctx context.Context, ev CrosschainTransferEvent) error {
			return rpc.call("contract_dryRunReceiveRequest", ev, nil)
		},
		SubmitReceive: func(ctx context.Context, ev CrosschainTransferEvent) (uint64, error) {
			hash, err := rehash(ev)
			if err != nil {
				return 0, err
			}
			sig, err := signer.Sign(hash[:])
			if err != nil {
				return 0, fmt.Errorf("guardianbridge: sign receive_request: %w", err)
			}
			extrinsic, err := chaina.EncodeReceiveRequestExtrinsic(hash, ev.CommitteeID, ev.LocalToken, decodeAmount(ev.Amount), ev.Receiver, ev.Nonce)
			if err != nil {
				return 0, fmt.Errorf("guardianbridge: encode receive_request extrinsic: %w", err)
			}
			var txBlock uint64
			err = rpc.call("contract_submitReceiveRequest", struct {
				Extrinsic []byte         `json:"extrinsic"`
				Signer    core.AccountID `json:"signer"`
				Signature []byte         `json:"signature"`
			}{Extrinsic: extrinsic, Signer: sig.Signer, Signature: sig.Bytes}, &txBlock)
			return txBlock, err
		},
	}
	return client, rpc.Close, nil
}

// NewChainEWebsocketClient builds a ChainClient for Chain E (spec §6
// eth_node_wss_url) backed by a persistent websocket RPC connection.
// Event decode and receive_request encode go through core/chaine's ABI
// codec (spec §4.6 steps 1 & 3), the same go-ethereum ABI machinery a
// bound contract caller would use.
func NewChainEWebsocketClient(wsURL string, signer Signer) (ChainClient, func() error, error) {
	rpc, err := dialWebsocketRPC(wsURL)
	if err != nil {
		return ChainClient{}, nil, err
	}

	client := ChainClient{
		ChainName: "chaine",
		FinalizedHead: func(ctx context.Context) (uint64, error) {
			var head uint64
			if err := rpc.call("chain_getFinalizedHead", nil, &head); err != nil {
				return 0, err
			}
			return head, nil
		},
		BlockEvents: func(ctx context.Context, block uint64) ([]CrosschainTransferEvent, error) {
			var wire []chainERawLog
			if err := rpc.call("chain_getBlockEvents", map[string]uint64{"block": block}, &wire); err != nil {
				return nil, err
			}
			out := make([]CrosschainTransferEvent, 0, len(wire))
			for _, w := range wire {
				topics := make([]common.Hash, len(w.Topics))
				for i, t := range w.Topics {
					topics[i] = common.Hash(t)
				}
				log := gethtypes.Log{Topics: topics, Data: w.Data}
				committeeID, destToken, amount, destReceiver, nonce, err := chaine.DecodeCrosschainTransferRequest(log)
				if err != nil {
					return nil, fmt.Errorf("guardianbridge: decode chain E block %d event: %w", block, err)
				}
				out = append(out, CrosschainTransferEvent{
					SourceBlock: block,
					CommitteeID: committeeID.Uint64(),
					LocalToken:  destToken,
					Amount:      amount.Bytes(),
					Receiver:    destReceiver,
					Nonce:       nonce.Uint64(),
				})
			}
			return out, nil
		},
		DryRunReceive: func(ctx context.Context, ev CrosschainTransferEvent) error {
			return rpc.call("contract_dryRunReceiveRequest", ev, nil)
		},
		SubmitReceive: func(ctx context.Context, ev CrosschainTransferEvent) (uint64, error) {
			hash, err := rehash(ev)
			if err != nil {
				return 0, err
			}
			sig, err := signer.Sign(hash[:])
			if err != nil {
				return 0, fmt.Errorf("guardianbridge: sign receive_request: %w", err)
			}
			calldata, err := chaine.EncodeReceiveRequestCalldata(hash, ev.CommitteeID, ev.LocalToken, decodeAmount(ev.Amount), ev.Receiver, ev.Nonce)
			if err != nil {
				return 0, fmt.Errorf("guardianbridge: encode receive_request calldata: %w", err)
			}
			var txBlock uint64
			err = rpc.call("contract_submitReceiveRequest", struct {
				Calldata  []byte         `json:"calldata"`
				Signer    core.AccountID `json:"signer"`
				Signature []byte         `json:"signature"`
			}{Calldata: calldata, Signer: sig.Signer, Signature: sig.Bytes}, &txBlock)
			return txBlock, err
		},
	}
	return client, rpc.Close, nil
}
