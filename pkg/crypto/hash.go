package crypto

import (
	"crypto/sha256"
	"encoding/binary"
)

// RoundHash computes the hash a consensus round's threshold shares are
// signed over: hash(round || value), per the commit protocol.
func RoundHash(round uint64, value []byte) [32]byte {
	h := sha256.New()
	var roundBuf [8]byte
	binary.BigEndian.PutUint64(roundBuf[:], round)
	h.Write(roundBuf[:])
	h.Write(value)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
