package wire

import (
	"bytes"
	"fmt"

	xdr "github.com/rasky/go-xdr/xdr2"
)

// Encode marshals v (a pointer to one of this package's message types)
// to its canonical XDR wire form.
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, v); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

// Decode unmarshals data produced by Encode into v, which must be a
// pointer to the same message type that produced data.
func Decode(data []byte, v interface{}) error {
	if _, err := xdr.Unmarshal(bytes.NewReader(data), v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
