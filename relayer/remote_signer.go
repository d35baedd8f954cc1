package relayer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"guardianbridge/core"
)

// signerMessage is the wire envelope for the remote signer's stream
// socket protocol (spec §4.8): one JSON object per line, request then
// response, no pipelining. Type tags the message; AccountId responses
// carry AccountID, Sign requests carry Payload, and Signed responses carry
// Payload, AccountID and Signature together.
type signerMessage struct {
	Type string `json:"type"`

	Payload   []byte         `json:"payload,omitempty"`
	AccountID core.AccountID `json:"account_id,omitempty"`
	Signature []byte         `json:"signature,omitempty"`
}

const (
	msgPing      = "Ping"
	msgPong      = "Pong"
	msgAccountID = "AccountId"
	msgSign      = "Sign"
	msgSigned    = "Signed"
)

// RemoteSigner speaks the out-of-process signer protocol over a single
// long-lived TCP connection, spec §4.8 variant (b). Every exchange is
// request/response: this adapter serializes calls with a mutex since the
// protocol explicitly forbids pipelining.
type RemoteSigner struct {
	mu      sync.Mutex
	conn    net.Conn
	reader  *bufio.Reader
	account core.AccountID
}

// DialRemoteSigner connects to a remote signer at addr (host:port,
// typically built from config.SignerCID/SignerPort) and fetches its
// account id.
func DialRemoteSigner(addr string) (*RemoteSigner, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("guardianbridge: dial remote signer: %w", err)
	}
	s := &RemoteSigner{conn: conn, reader: bufio.NewReader(conn)}

	if err := s.roundTrip(signerMessage{Type: msgPing}, msgPong); err != nil {
		conn.Close()
		return nil, fmt.Errorf("guardianbridge: remote signer ping: %w", err)
	}

	resp, err := s.request(signerMessage{Type: msgAccountID})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("guardianbridge: remote signer account id: %w", err)
	}
	if resp.Type != msgAccountID {
		conn.Close()
		return nil, fmt.Errorf("guardianbridge: remote signer sent unexpected response type %q", resp.Type)
	}
	s.account = resp.AccountID
	return s, nil
}

// AccountID returns the account the remote signer holds keys for.
func (s *RemoteSigner) AccountID() core.AccountID {
	return s.account
}

// Sign asks the remote signer to sign payload, then verifies the echoed
// payload matches what was requested — the MUST in spec §4.8's last
// sentence, defending against a misbehaving or confused signer process.
func (s *RemoteSigner) Sign(payload []byte) (Signature, error) {
	resp, err := s.request(signerMessage{Type: msgSign, Payload: payload})
	if err != nil {
		return Signature{}, err
	}
	if resp.Type != msgSigned {
		return Signature{}, fmt.Errorf("guardianbridge: remote signer sent unexpected response type %q", resp.Type)
	}
	if !bytes.Equal(resp.Payload, payload) {
		return Signature{}, fmt.Errorf("guardianbridge: remote signer echoed a different payload than requested")
	}
	if resp.AccountID != s.account {
		return Signature{}, fmt.Errorf("guardianbridge: remote signer signed as a different account than expected")
	}
	return Signature{Signer: resp.AccountID, Bytes: resp.Signature}, nil
}

// roundTrip sends req and requires the response to have type wantType.
func (s *RemoteSigner) roundTrip(req signerMessage, wantType string) error {
	resp, err := s.request(req)
	if err != nil {
		return err
	}
	if resp.Type != wantType {
		return fmt.Errorf("guardianbridge: expected response type %q, got %q", wantType, resp.Type)
	}
	return nil
}

// request performs one request/response exchange. The mutex enforces
// the protocol's no-pipelining rule even if Sign is called concurrently
// from multiple handler goroutines.
func (s *RemoteSigner) request(req signerMessage) (signerMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enc, err := json.Marshal(req)
	if err != nil {
		return signerMessage{}, err
	}
	enc = append(enc, '\n')
	if _, err := s.conn.Write(enc); err != nil {
		return signerMessage{}, fmt.Errorf("guardianbridge: write to remote signer: %w", err)
	}

	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		return signerMessage{}, fmt.Errorf("guardianbridge: read from remote signer: %w", err)
	}
	var resp signerMessage
	if err := json.Unmarshal(bytes.TrimSpace(line), &resp); err != nil {
		return signerMessage{}, fmt.Errorf("guardianbridge: decode remote signer response: %w", err)
	}
	return resp, nil
}

// Close closes the underlying connection.
func (s *RemoteSigner) Close() error {
	return s.conn.Close()
}
