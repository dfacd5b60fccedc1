// Package wallet holds the Ethereum helpers used to tie a game session to a
// player's address: address checks, display formatting and personal_sign
// signature verification.
package wallet

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// DefaultWindow is how far a signed timestamp may drift from now.
const DefaultWindow = 5 * time.Minute

const messagePrefix = "tile2048"

var (
	ErrInvalidAddress   = errors.New("wallet: invalid address")
	ErrInvalidSignature = errors.New("wallet: invalid signature")
	ErrSignerMismatch   = errors.New("wallet: signature does not match address")
)

// IsAddress reports whether s is a 0x-prefixed 20-byte hex address.
func IsAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}

// Checksum returns the EIP-55 form of an address.
func Checksum(s string) (string, error) {
	if !IsAddress(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s).Hex(), nil
}

// Short formats an address for display, e.g. 0x1234...abcd.
// Invalid input yields an empty string.
func Short(s string) string {
	if !IsAddress(s) {
		return ""
	}
	return s[:6] + "..." + s[len(s)-4:]
}

// SignatureMessage builds the text a player signs to authorize action.
func SignatureMessage(action, address string, ts int64) string {
	return fmt.Sprintf("%s\nAction: %s\nAddress: %s\nTimestamp: %d", messagePrefix, action, address, ts)
}

// Recover returns the address that produced an EIP-191 personal_sign
// signature over message. V may be 0/1 or 27/28.
func Recover(message, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return common.Address{}, fmt.Errorf("%w: recovery id %d", ErrInvalidSignature, sig[crypto.RecoveryIDOffset])
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifySignature checks that address signed message.
func VerifySignature(message, signature, address string) error {
	if !IsAddress(address) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	signer, err := Recover(message, signature)
	if err != nil {
		return err
	}
	if signer != common.HexToAddress(address) {
		return ErrSignerMismatch
	}
	return nil
}

// IsRecentTimestamp reports whether ts (unix seconds) lies within window of
// now in either direction. A non-positive window uses DefaultWindow.
func IsRecentTimestamp(ts int64, now time.Time, window time.Duration) bool {
	if window <= 0 {
		window = DefaultWindow
	}
	d := now.Sub(time.Unix(ts, 0))
	if d < 0 {
		d = -d
	}
	return d <= window
}
