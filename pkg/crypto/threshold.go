// Package crypto wraps the two signature schemes the coordination core
// uses: a BLS threshold scheme for consensus commit proofs, and a plain
// Ed25519 scheme for node identity. The two use distinct key material on
// purpose — compromising a node's identity key must not expose its
// threshold share, and vice versa.
package crypto

import (
	"fmt"
	"sync"

	bls "github.com/herumi/bls-eth-go-binary/bls"
)

var initOnce sync.Once
var initErr error

func ensureInit() error {
	initOnce.Do(func() {
		initErr = bls.Init(bls.BLS12_381)
		if initErr != nil {
			return
		}
		initErr = bls.SetETHmode(bls.EthModeDraft07)
	})
	return initErr
}

// ThresholdGroup holds the public material for a group of n participants
// signing under a (τ, n) threshold scheme: any τ distinct shares recover
// a single compact signature verifiable against MasterPublicKey.
type ThresholdGroup struct {
	Threshold       int
	MasterPublicKey bls.PublicKey
}

// Share is one participant's secret share of the group's threshold key,
// identified by ID (typically the node's index within the group).
type Share struct {
	ID  bls.ID
	key bls.SecretKey
}

// GenerateShares runs a trusted-dealer key split for a (threshold, n)
// group and returns the group's public material plus one Share per
// participant, indexed 1..n. Real deployments should replace this with a
// distributed key generation ceremony; it exists here so tests and
// single-operator bootstraps do not need one.
func GenerateShares(threshold, n int) (*ThresholdGroup, []Share, error) {
	if err := ensureInit(); err != nil {
		return nil, nil, fmt.Errorf("init bls: %w", err)
	}
	if threshold < 1 || n < threshold {
		return nil, nil, fmt.Errorf("invalid threshold group: threshold=%d n=%d", threshold, n)
	}

	var master bls.SecretKey
	master.SetByCSPRNG()
	masterSecrets := master.GetMasterSecretKey(threshold)

	var masterPub bls.PublicKey
	masterPub = *master.GetPublicKey()

	shares := make([]Share, n)
	for i := 0; i < n; i++ {
		id, err := ShareIDFromIndex(i + 1)
		if err != nil {
			return nil, nil, fmt.Errorf("set share id %d: %w", i+1, err)
		}
		var sk bls.SecretKey
		if err := sk.Set(masterSecrets, &id); err != nil {
			return nil, nil, fmt.Errorf("derive share %d: %w", i+1, err)
		}
		shares[i] = Share{ID: id, key: sk}
	}

	return &ThresholdGroup{Threshold: threshold, MasterPublicKey: masterPub}, shares, nil
}

// ShareID identifies a participant's position in the threshold scheme.
type ShareID = bls.ID

// ShareIDFromIndex derives the threshold-scheme ID for participant index
// (1-based), matching the convention GenerateShares uses to mint shares.
func ShareIDFromIndex(index int) (ShareID, error) {
	var id bls.ID
	if err := id.SetDecString(fmt.Sprintf("%d", index)); err != nil {
		return bls.ID{}, fmt.Errorf("derive share id for index %d: %w", index, err)
	}
	return id, nil
}

// ShareSignature is one participant's signature share on a round hash.
type ShareSignature struct {
	ID  bls.ID
	Sig bls.Sign
}

// Sign produces s's signature share over hash.
func (s Share) Sign(hash []byte) ShareSignature {
	sig := s.key.SignHash(hash)
	return ShareSignature{ID: s.ID, Sig: *sig}
}

// AggregatedSignature is the compact, size-independent-of-f commit proof
// recovered from >= τ distinct share signatures.
type AggregatedSignature struct {
	Sig bls.Sign
}

// Recover reconstructs the group signature from shares via Lagrange
// interpolation. Requires len(shares) >= the group's threshold; callers
// are responsible for enforcing that before calling Recover.
func Recover(shares []ShareSignature) (AggregatedSignature, error) {
	if len(shares) == 0 {
		return AggregatedSignature{}, fmt.Errorf("recover threshold signature: no shares")
	}
	sigs := make([]bls.Sign, len(shares))
	ids := make([]bls.ID, len(shares))
	for i, s := range shares {
		sigs[i] = s.Sig
		ids[i] = s.ID
	}
	var recovered bls.Sign
	if err := recovered.Recover(sigs, ids); err != nil {
		return AggregatedSignature{}, fmt.Errorf("recover threshold signature: %w", err)
	}
	return AggregatedSignature{Sig: recovered}, nil
}

// Verify checks agg against hash under the group's master public key.
func (g *ThresholdGroup) Verify(agg AggregatedSignature, hash []byte) bool {
	return agg.Sig.VerifyHash(&g.MasterPublicKey, hash)
}

// Bytes serializes the aggregated signature to its compact wire form
// (96 bytes: a compressed BLS12-381 G2 point, since ETH mode signs in G2).
func (a AggregatedSignature) Bytes() []byte {
	return a.Sig.Serialize()
}

// ParseAggregatedSignature deserializes a compact signature previously
// produced by AggregatedSignature.Bytes.
func ParseAggregatedSignature(b []byte) (AggregatedSignature, error) {
	var sig bls.Sign
	if err := sig.Deserialize(b); err != nil {
		return AggregatedSignature{}, fmt.Errorf("parse aggregated signature: %w", err)
	}
	return AggregatedSignature{Sig: sig}, nil
}
