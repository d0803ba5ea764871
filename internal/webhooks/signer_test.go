package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignIsDeterministic(t *testing.T) {
	payload := []byte(`{"event":"stock.updated"}`)
	first := Sign("secret", payload)
	second := Sign("secret", payload)
	require.Equal(t, first, second)
	require.Len(t, first, 64, "hex-encoded SHA-256 digest")
}

func TestSignMatchesStdlibHMAC(t *testing.T) {
	payload := []byte("payload")
	mac := hmac.New(sha256.New, []byte("key"))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	require.Equal(t, expected, Sign("key", payload))
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"event":"transaction.created"}`)
	sig := Sign("secret", payload)

	require.True(t, VerifySignature("secret", payload, sig))
	require.False(t, VerifySignature("other", payload, sig))
	require.False(t, VerifySignature("secret", []byte("tampered"), sig))
	require.False(t, VerifySignature("secret", payload, sig+"00"))
}
