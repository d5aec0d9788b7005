package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/nacl/sign"
)

// IdentityKeyPair is a node's long-lived signing identity, distinct from
// any threshold share it holds in a consensus group.
type IdentityKeyPair struct {
	Public  *[32]byte
	private *[64]byte
}

// GenerateIdentity creates a new Ed25519 identity key pair.
func GenerateIdentity() (*IdentityKeyPair, error) {
	pub, priv, err := sign.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate identity key: %w", err)
	}
	return &IdentityKeyPair{Public: pub, private: priv}, nil
}

// Sign produces a signed message wrapping msg, verifiable with Public.
func (k *IdentityKeyPair) Sign(msg []byte) []byte {
	return sign.Sign(nil, msg, k.private)
}

// VerifyIdentity opens a signed message produced by Sign and returns the
// original message if signedMsg was signed by the holder of public.
func VerifyIdentity(public *[32]byte, signedMsg []byte) ([]byte, bool) {
	return sign.Open(nil, signedMsg, public)
}
