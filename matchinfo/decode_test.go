package matchinfo

import (
	"errors"
	"testing"
)

func littleEndianHost() bool {
	return Encode([]uint32{1})[0] == 1
}

func TestDecode(t *testing.T) {
	if !littleEndianHost() {
		t.Skip("fixture bytes are little-endian")
	}
	buf := []byte{
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
	}
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []uint32{1, 2, 2, 2}
	if len(got) != len(want) {
		t.Fatalf("Decode returned %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("value[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDecode_Unsigned(t *testing.T) {
	got, err := Decode([]byte{0xff, 0xff, 0xff, 0xff})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got[0] != 0xffffffff {
		t.Fatalf("value = %d, want %d", got[0], uint32(0xffffffff))
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 6, 7, 13} {
		if _, err := Decode(make([]byte, n)); !errors.Is(err, ErrMalformedBuffer) {
			t.Errorf("Decode(len=%d) error = %v, want ErrMalformedBuffer", n, err)
		}
	}
}

func TestDecode_Length(t *testing.T) {
	for _, n := range []int{0, 4, 8, 40, 400} {
		buf := make([]byte, n)
		for i := range buf {
			buf[i] = byte(i * 7)
		}
		got, err := Decode(buf)
		if err != nil {
			t.Fatalf("Decode(len=%d) failed: %v", n, err)
		}
		if len(got) != n/4 {
			t.Fatalf("Decode(len=%d) returned %d values, want %d", n, len(got), n/4)
		}
		again, _ := Decode(buf)
		for i := range got {
			if got[i] != again[i] {
				t.Fatalf("Decode not deterministic at %d: %d vs %d", i, got[i], again[i])
			}
		}
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	orig := []uint32{0, 1, 42, 1 << 31, 0xffffffff}
	got, err := Decode(Encode(orig))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for i := range orig {
		if got[i] != orig[i] {
			t.Fatalf("value[%d] = %d, want %d", i, got[i], orig[i])
		}
	}
}

func TestCursor(t *testing.T) {
	c := NewCursor([]uint32{7, 9})
	if c.Remaining() != 2 {
		t.Fatalf("Remaining = %d, want 2", c.Remaining())
	}
	v, idx, err := c.Next()
	if err != nil || v != 7 || idx != 0 {
		t.Fatalf("Next = %d, %d, %v; want 7, 0, nil", v, idx, err)
	}
	v, idx, err = c.Next()
	if err != nil || v != 9 || idx != 1 {
		t.Fatalf("Next = %d, %d, %v; want 9, 1, nil", v, idx, err)
	}
	if _, _, err = c.Next(); !errors.Is(err, ErrTruncated) {
		t.Fatalf("Next past end error = %v, want ErrTruncated", err)
	}
	if c.Pos() != 2 {
		t.Fatalf("Pos after over-read = %d, want 2", c.Pos())
	}
}
