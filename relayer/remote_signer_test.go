package relayer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"guardianbridge/core"
)

// fakeSignerServer answers the Ping/AccountId/Sign protocol over a
// net.Pipe connection, standing in for a real out-of-process signer.
func fakeSignerServer(t *testing.T, conn net.Conn, account core.AccountID) {
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return
		}
		var req signerMessage
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(line), &req))

		var resp signerMessage
		switch req.Type {
		case msgPing:
			resp = signerMessage{Type: msgPong}
		case msgAccountID:
			resp = signerMessage{Type: msgAccountID, AccountID: account}
		case msgSign:
			resp = signerMessage{Type: msgSigned, Payload: req.Payload, AccountID: account, Signature: []byte{0xDE, 0xAD}}
		}
		enc, err := json.Marshal(resp)
		require.NoError(t, err)
		enc = append(enc, '\n')
		_, err = conn.Write(enc)
		require.NoError(t, err)
	}
}

func dialedRemoteSigner(t *testing.T, account core.AccountID) (*RemoteSigner, net.Conn) {
	client, server := net.Pipe()
	go fakeSignerServer(t, server, account)

	s := &RemoteSigner{conn: client, reader: bufio.NewReader(client)}
	require.NoError(t, s.roundTrip(signerMessage{Type: msgPing}, msgPong))
	resp, err := s.request(signerMessage{Type: msgAccountID})
	require.NoError(t, err)
	s.account = resp.AccountID
	return s, server
}

func TestRemoteSignerFetchesAccountID(t *testing.T) {
	var account core.AccountID
	account[0] = 0x42
	s, server := dialedRemoteSigner(t, account)
	defer server.Close()
	defer s.Close()

	require.Equal(t, account, s.AccountID())
}

func TestRemoteSignerSignVerifiesEchoedPayload(t *testing.T) {
	var account core.AccountID
	account[0] = 0x42
	s, server := dialedRemoteSigner(t, account)
	defer server.Close()
	defer s.Close()

	sig, err := s.Sign([]byte("some request hash"))
	require.NoError(t, err)
	require.Equal(t, account, sig.Signer)
	require.Equal(t, []byte{0xDE, 0xAD}, sig.Bytes)
}

func TestRemoteSignerRejectsMismatchedEcho(t *testing.T) {
	var account core.AccountID
	account[0] = 0x42
	client, server := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		reader := bufio.NewReader(server)
		line, _ := reader.ReadBytes('\n')
		var req signerMessage
		_ = json.Unmarshal(bytes.TrimSpace(line), &req)
		resp := signerMessage{Type: msgSigned, Payload: []byte("different payload"), AccountID: account, Signature: []byte{1}}
		enc, _ := json.Marshal(resp)
		enc = append(enc, '\n')
		server.Write(enc)
	}()

	s := &RemoteSigner{conn: client, reader: bufio.NewReader(client), account: account}
	_, err := s.Sign([]byte("requested payload"))
	require.Error(t, err)
}
