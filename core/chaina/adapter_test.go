package chaina

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"guardianbridge/core"
)

func TestEncodeReceiveRequestExtrinsicLayout(t *testing.T) {
	var hash core.RequestHash
	copy(hash[:], []byte("request-hash-32-bytes-long-xxxx"))
	var localToken core.TokenID
	copy(localToken[:], []byte("local-token-on-chain-a-32bytes!"))
	var receiver core.AccountID
	copy(receiver[:], []byte("receiver-account-on-chain-e-32b"))

	buf, err := EncodeReceiveRequestExtrinsic(hash, 3, localToken, big.NewInt(12345), receiver, 7)
	require.NoError(t, err)
	require.Equal(t, 1+32+16+32+16+32+16, len(buf))
	require.Equal(t, byte(receiveRequestCallIndex), buf[0])
	require.Equal(t, hash[:], buf[1:33])
}

func TestDecodeCrosschainTransferRequestEventRoundTrips(t *testing.T) {
	var destToken core.TokenID
	copy(destToken[:], []byte("dest-token-on-chain-e-32bytesxx!"))
	var destReceiver core.AccountID
	copy(destReceiver[:], []byte("dest-receiver-on-chain-e-32byte"))

	committeeLE, err := core.EncodeU128LE(big.NewInt(5))
	require.NoError(t, err)
	amountLE, err := core.EncodeU128LE(big.NewInt(998877))
	require.NoError(t, err)
	nonceLE, err := core.EncodeU128LE(big.NewInt(11))
	require.NoError(t, err)

	raw := make([]byte, 0, 16+32+16+32+16)
	raw = append(raw, committeeLE[:]...)
	raw = append(raw, destToken[:]...)
	raw = append(raw, amountLE[:]...)
	raw = append(raw, destReceiver[:]...)
	raw = append(raw, nonceLE[:]...)

	committeeID, gotToken, amount, gotReceiver, nonce, err := DecodeCrosschainTransferRequestEvent(raw)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(5), committeeID)
	require.Equal(t, big.NewInt(998877), amount)
	require.Equal(t, big.NewInt(11), nonce)
	require.Equal(t, destToken, gotToken)
	require.Equal(t, destReceiver, gotReceiver)
}

func TestDecodeCrosschainTransferRequestEventRejectsWrongLength(t *testing.T) {
	_, _, _, _, _, err := DecodeCrosschainTransferRequestEvent([]byte{0x01, 0x02})
	require.Error(t, err)
}
