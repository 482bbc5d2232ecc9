package matchinfo

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformedBuffer reports a matchinfo BLOB whose length is not a multiple
// of four bytes.
var ErrMalformedBuffer = errors.New("matchinfo: malformed buffer")

// wordSize is the width in bytes of one matchinfo value.
const wordSize = 4

// Decode converts a matchinfo BLOB into its unsigned 32-bit words. SQLite
// writes the words in the host's native byte order, so that is the order used
// here. A trailing partial word is rejected rather than dropped.
func Decode(buf []byte) ([]uint32, error) {
	if len(buf)%wordSize != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of %d", ErrMalformedBuffer, len(buf), wordSize)
	}
	n := len(buf) / wordSize
	values := make([]uint32, n)
	for i := 0; i < n; i++ {
		values[i] = binary.NativeEndian.Uint32(buf[i*wordSize:])
	}
	return values, nil
}

// Encode is the inverse of Decode. It is mostly useful for building fixtures.
func Encode(values []uint32) []byte {
	buf := make([]byte, len(values)*wordSize)
	for i, v := range values {
		binary.NativeEndian.PutUint32(buf[i*wordSize:], v)
	}
	return buf
}
