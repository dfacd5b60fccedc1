package wallet

import (
	"crypto/ecdsa"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, key *ecdsa.PrivateKey, message string, legacyV bool) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	if legacyV {
		sig[crypto.RecoveryIDOffset] += 27
	}
	return hexutil.Encode(sig)
}

func TestAddressHelpers(t *testing.T) {
	addr := "0x52908400098527886e0f7030069857d2e4169ee7"

	assert.True(t, IsAddress(addr))
	assert.False(t, IsAddress("52908400098527886e0f7030069857d2e4169ee7"))
	assert.False(t, IsAddress("0x1234"))
	assert.False(t, IsAddress(""))

	sum, err := Checksum(addr)
	require.NoError(t, err)
	assert.Equal(t, "0x52908400098527886E0F7030069857D2E4169EE7", sum)

	_, err = Checksum("nope")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	assert.Equal(t, "0x5290...9ee7", Short(addr))
	assert.Equal(t, "", Short("garbage"))
}

func TestSignatureMessage(t *testing.T) {
	msg := SignatureMessage("start", "0xabc", 1700000000)
	assert.Equal(t, "tile2048\nAction: start\nAddress: 0xabc\nTimestamp: 1700000000", msg)
}

func TestVerifySignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey).Hex()
	msg := SignatureMessage("start", addr, 1700000000)

	for _, legacy := range []bool{false, true} {
		sig := sign(t, key, msg, legacy)
		assert.NoError(t, VerifySignature(msg, sig, addr), "legacy V %v", legacy)
		assert.NoError(t, VerifySignature(msg, sig, strings.ToLower(addr)), "lower-case address")
	}

	sig := sign(t, key, msg, false)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)
	otherAddr := crypto.PubkeyToAddress(other.PublicKey).Hex()

	assert.ErrorIs(t, VerifySignature(msg, sig, otherAddr), ErrSignerMismatch)
	assert.ErrorIs(t, VerifySignature(msg+"x", sig, addr), ErrSignerMismatch)
	assert.ErrorIs(t, VerifySignature(msg, "0x1234", addr), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature(msg, "not-hex", addr), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature(msg, sig, "0xzz"), ErrInvalidAddress)
}

func TestIsRecentTimestamp(t *testing.T) {
	now := time.Unix(1700000000, 0)

	tests := []struct {
		name   string
		ts     int64
		window time.Duration
		want   bool
	}{
		{"exact", now.Unix(), 0, true},
		{"four minutes ago", now.Add(-4 * time.Minute).Unix(), 0, true},
		{"edge of window", now.Add(-5 * time.Minute).Unix(), 0, true},
		{"too old", now.Add(-6 * time.Minute).Unix(), 0, false},
		{"future within window", now.Add(2 * time.Minute).Unix(), 0, true},
		{"far future", now.Add(time.Hour).Unix(), 0, false},
		{"custom window", now.Add(-30 * time.Second).Unix(), 10 * time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRecentTimestamp(tt.ts, now, tt.window))
		})
	}
}
