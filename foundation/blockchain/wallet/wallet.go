// Package wallet provides the keypair that identifies an actor on the
// chain. A wallet never stores a balance, that is always replayed from
// the chain history.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet holds a secp256k1 keypair and the address derived from it.
type Wallet struct {
	privateKey *ecdsa.PrivateKey
	publicKey  []byte
	address    string
}

// New generates a wallet with a fresh private key.
func New() (*Wallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	return FromPrivateKey(privateKey)
}

// FromPrivateKey constructs a wallet around an existing private key.
func FromPrivateKey(privateKey *ecdsa.PrivateKey) (*Wallet, error) {
	if privateKey == nil {
		return nil, errors.New("private key is required")
	}

	w := Wallet{
		privateKey: privateKey,
		publicKey:  crypto.FromECDSAPub(&privateKey.PublicKey),
		address:    signature.PublicKeyToAddress(privateKey.PublicKey),
	}

	return &w, nil
}

// Load reads a hex encoded private key from the specified file.
func Load(path string) (*Wallet, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("loading key %q: %w", path, err)
	}

	return FromPrivateKey(privateKey)
}

// Save writes the private key hex encoded to the specified file.
func (w *Wallet) Save(path string) error {
	if err := crypto.SaveECDSA(path, w.privateKey); err != nil {
		return fmt.Errorf("saving key %q: %w", path, err)
	}

	return nil
}

// Address returns the checksummed hex address of the wallet.
func (w *Wallet) Address() string {
	return w.address
}

// PublicKey returns a copy of the uncompressed public key bytes.
func (w *Wallet) PublicKey() []byte {
	pk := make([]byte, len(w.publicKey))
	copy(pk, w.publicKey)
	return pk
}

// Sign signs the canonical encoding of the payload with the wallet's key.
func (w *Wallet) Sign(payload any) ([]byte, error) {
	return signature.Sign(payload, w.privateKey)
}

// Verify reports whether the signature over the payload was produced by
// the private key behind the public key.
func Verify(publicKey []byte, payload any, sig []byte) bool {
	return signature.Verify(publicKey, payload, sig)
}
