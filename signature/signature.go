// Package signature verifies entitlement owner signatures.
//
// Owner addresses recorded on the ledger are base58-encoded ed25519
// public keys, signatures are base58-encoded 64-byte ed25519 signatures
// over the raw message bytes, the encoding wallets use for personal
// message signing.
package signature

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// ParsePublicKey decodes a base58 owner address into an ed25519 public key.
func ParsePublicKey(address string) (ed25519.PublicKey, error) {
	data, err := base58.Decode(address)
	if err != nil {
		return nil, errors.WithMessage(err, "decode base58 address")
	}
	if len(data) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid public key length: %d", len(data))
	}
	return ed25519.PublicKey(data), nil
}

// ParseSignature decodes a base58 signature string.
func ParseSignature(signature string) ([]byte, error) {
	data, err := base58.Decode(signature)
	if err != nil {
		return nil, errors.WithMessage(err, "decode base58 signature")
	}
	if len(data) != ed25519.SignatureSize {
		return nil, errors.Errorf("invalid signature length: %d", len(data))
	}
	return data, nil
}

// Verify reports whether signature over message was produced by the key
// behind ownerAddress. A structurally valid signature from the wrong
// signer yields (false, nil); inputs that cannot be parsed yield an error.
func Verify(ownerAddress string, signature string, message string) (bool, error) {
	publicKey, err := ParsePublicKey(ownerAddress)
	if err != nil {
		return false, errors.WithMessage(err, "parse owner address")
	}

	sig, err := ParseSignature(signature)
	if err != nil {
		return false, errors.WithMessage(err, "parse signature")
	}

	return ed25519.Verify(publicKey, []byte(message), sig), nil
}
