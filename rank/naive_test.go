package rank

import (
	"errors"
	"math"
	"testing"

	"github.com/viant/sqlite-fts4rank/matchinfo"
)

func TestNaive(t *testing.T) {
	testCases := []struct {
		name   string
		values []uint32
		want   float64
	}{
		{name: "single hit", values: []uint32{1, 1, 1, 2, 2}, want: -0.5},
		{name: "two phrases", values: []uint32{2, 1, 1, 2, 2, 3, 4, 1}, want: -1.25},
		{name: "skips phrase without hits", values: []uint32{2, 1, 0, 5, 3, 3, 4, 1}, want: -0.75},
		{name: "no hits", values: []uint32{1, 2, 0, 3, 2, 0, 1, 1}, want: 0},
		{name: "no phrases", values: []uint32{0, 2}, want: 0},
	}
	for _, tc := range testCases {
		got, err := Naive(matchinfo.Encode(tc.values))
		if err != nil {
			t.Fatalf("%s: Naive failed: %v", tc.name, err)
		}
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("%s: Naive = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNaive_OrderInvariant(t *testing.T) {
	a := []uint32{2, 2, 1, 4, 1, 0, 9, 9, 3, 5, 2, 2, 8, 3}
	b := []uint32{2, 2, 2, 8, 3, 3, 5, 2, 0, 9, 9, 1, 4, 1}
	sa, err := Naive(matchinfo.Encode(a))
	if err != nil {
		t.Fatalf("Naive(a) failed: %v", err)
	}
	sb, err := Naive(matchinfo.Encode(b))
	if err != nil {
		t.Fatalf("Naive(b) failed: %v", err)
	}
	if math.Abs(sa-sb) > 1e-12 {
		t.Fatalf("Naive depends on pair order: %v vs %v", sa, sb)
	}
}

func TestNaive_EmptyBuffer(t *testing.T) {
	got, err := Naive(nil)
	if err != nil || got != 0 {
		t.Fatalf("Naive(nil) = %v, %v; want 0, nil", got, err)
	}
}

func TestNaive_Errors(t *testing.T) {
	if _, err := Naive([]byte{1, 0}); !errors.Is(err, matchinfo.ErrMalformedBuffer) {
		t.Fatalf("Naive(short) error = %v, want ErrMalformedBuffer", err)
	}
	if _, err := Naive(matchinfo.Encode([]uint32{1, 1, 1})); !errors.Is(err, matchinfo.ErrTruncated) {
		t.Fatalf("Naive(truncated) error = %v, want ErrTruncated", err)
	}
}

func TestNaive_DoesNotModifyInput(t *testing.T) {
	buf := matchinfo.Encode([]uint32{1, 1, 1, 2, 2})
	orig := append([]byte(nil), buf...)
	if _, err := Naive(buf); err != nil {
		t.Fatalf("Naive failed: %v", err)
	}
	for i := range buf {
		if buf[i] != orig[i] {
			t.Fatalf("input modified at byte %d", i)
		}
	}
}
