// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// powchainStamp is embedded into every digest that gets signed. This makes
// it clear the signature comes from this blockchain and was not produced
// for some other system.
const powchainStamp = "\x19Powchain Signed Message:\n32"

// =============================================================================

// Hash returns a hex encoded sha256 digest for the specified values. Each
// value is marshaled to JSON independently and the encoded values are
// sorted before hashing, so the order of the arguments does not change the
// result. Maps are encoded with sorted keys which keeps the digest stable
// for equal mappings built in a different order. An empty string is
// returned if a value can't be encoded.
func Hash(values ...any) string {
	strs := make([]string, len(values))
	for i, value := range values {
		data, err := json.Marshal(value)
		if err != nil {
			return ""
		}
		strs[i] = string(data)
	}

	sort.Strings(strs)

	hash := sha256.Sum256([]byte(strings.Join(strs, "")))
	return hex.EncodeToString(hash[:])
}

// HexToBinary expands each hex digit of the specified string into its four
// bit binary representation.
func HexToBinary(hexStr string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(hexStr) * 4)

	for i := 0; i < len(hexStr); i++ {
		n, ok := hexValue(hexStr[i])
		if !ok {
			return "", fmt.Errorf("invalid hex character %q at position %d", hexStr[i], i)
		}
		fmt.Fprintf(&sb, "%04b", n)
	}

	return sb.String(), nil
}

// LeadingZeroBits returns the number of consecutive zero bits at the start
// of the binary expansion of the hex string. A string that is not valid hex
// has no leading zero bits.
func LeadingZeroBits(hexStr string) int {
	bin, err := HexToBinary(hexStr)
	if err != nil {
		return 0
	}

	return len(bin) - len(strings.TrimLeft(bin, "0"))
}

// =============================================================================

// Sign uses the specified private key to sign the value. The signature is
// returned in the 65 byte [R || S || V] format.
func Sign(value any, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	data, err := stamp(value)
	if err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return nil, err
	}

	// Check the public key extracted from the data and signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return nil, err
	}

	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return nil, errors.New("invalid signature")
	}

	return sig, nil
}

// Verify reports whether the signature was produced over the value by the
// private key behind the specified public key. Malformed keys and
// signatures fail verification.
func Verify(publicKey []byte, value any, sig []byte) bool {
	if len(sig) < crypto.RecoveryIDOffset {
		return false
	}

	if _, err := crypto.UnmarshalPubkey(publicKey); err != nil {
		return false
	}

	data, err := stamp(value)
	if err != nil {
		return false
	}

	return crypto.VerifySignature(publicKey, data, sig[:crypto.RecoveryIDOffset])
}

// PublicKeyToAddress derives the checksummed hex address for the public key.
func PublicKeyToAddress(pk ecdsa.PublicKey) string {
	return crypto.PubkeyToAddress(pk).Hex()
}

// PublicKeyBytesToAddress derives the address for an uncompressed public key
// in its 65 byte encoded form.
func PublicKeyBytesToAddress(publicKey []byte) (string, error) {
	pk, err := crypto.UnmarshalPubkey(publicKey)
	if err != nil {
		return "", err
	}

	return PublicKeyToAddress(*pk), nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this value with
// the powchain stamp embedded into the final hash.
func stamp(value any) ([]byte, error) {
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	// Hash the data into a 32 byte array. This will provide a data
	// length consistency with all data.
	txHash := crypto.Keccak256(v)

	return crypto.Keccak256([]byte(powchainStamp), txHash), nil
}

// hexValue returns the numeric value of a single hex character.
func hexValue(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
