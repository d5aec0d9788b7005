package crypto

import (
	"encoding/binary"
	"fmt"
	"os"

	bls "github.com/herumi/bls-eth-go-binary/bls"
)

// LoadThresholdGroup reads a group's public threshold material from path,
// written there once by the key-generation ceremony that produced
// GenerateShares' output.
func LoadThresholdGroup(path string) (*ThresholdGroup, error) {
	if err := ensureInit(); err != nil {
		return nil, fmt.Errorf("init bls: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read threshold public material: %w", err)
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("threshold public material truncated")
	}
	threshold := int(binary.BigEndian.Uint32(data[:4]))
	var pub bls.PublicKey
	if err := pub.Deserialize(data[4:]); err != nil {
		return nil, fmt.Errorf("parse threshold public key: %w", err)
	}
	return &ThresholdGroup{Threshold: threshold, MasterPublicKey: pub}, nil
}

// SaveThresholdGroup writes g's public material to path for nodes and
// operator tooling to load later.
func SaveThresholdGroup(g *ThresholdGroup, path string) error {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(g.Threshold))
	buf = append(buf, g.MasterPublicKey.Serialize()...)
	return os.WriteFile(path, buf, 0o600)
}

// LoadShare reads a single node's secret threshold share from path,
// produced alongside SaveThresholdGroup's output by the same ceremony.
func LoadShare(path string) (Share, error) {
	if err := ensureInit(); err != nil {
		return Share{}, fmt.Errorf("init bls: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Share{}, fmt.Errorf("read threshold share: %w", err)
	}
	if len(data) < 4 {
		return Share{}, fmt.Errorf("threshold share truncated")
	}
	idLen := int(binary.BigEndian.Uint32(data[:4]))
	rest := data[4:]
	if len(rest) < idLen {
		return Share{}, fmt.Errorf("threshold share truncated")
	}
	var id bls.ID
	if err := id.Deserialize(rest[:idLen]); err != nil {
		return Share{}, fmt.Errorf("parse share id: %w", err)
	}
	var sk bls.SecretKey
	if err := sk.Deserialize(rest[idLen:]); err != nil {
		return Share{}, fmt.Errorf("parse share secret key: %w", err)
	}
	return Share{ID: id, key: sk}, nil
}

// SaveShare writes s to path. Callers are responsible for the file's
// permissions and distribution; this only serializes the bytes.
func SaveShare(s Share, path string) error {
	idBytes := s.ID.Serialize()
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(len(idBytes)))
	buf = append(buf, idBytes...)
	buf = append(buf, s.key.Serialize()...)
	return os.WriteFile(path, buf, 0o600)
}
