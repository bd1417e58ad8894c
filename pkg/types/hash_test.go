package types

import (
	"strings"
	"testing"
)

func TestHash_IsZero(t *testing.T) {
	var zero Hash
	if !zero.IsZero() {
		t.Error("zero-value Hash should be zero")
	}

	nonZero := Hash{0x01}
	if nonZero.IsZero() {
		t.Error("non-zero Hash should not be zero")
	}
}

func TestHash_String(t *testing.T) {
	h := Hash{0xab}
	s := h.String()
	if len(s) != HashSize*2 {
		t.Errorf("String() length = %d, want %d", len(s), HashSize*2)
	}
	if !strings.HasPrefix(s, "ab") {
		t.Errorf("String() = %s, expected to start with 'ab'", s)
	}
}

func TestHexToHash_Roundtrip(t *testing.T) {
	h := Hash{0xde, 0xad, 0xbe, 0xef}
	back, err := HexToHash(h.String())
	if err != nil {
		t.Fatalf("HexToHash: %v", err)
	}
	if back != h {
		t.Errorf("roundtrip mismatch: got %s, want %s", back, h)
	}
}

func TestHexToHash_Invalid(t *testing.T) {
	if _, err := HexToHash("abcd"); err == nil {
		t.Error("short hex should fail")
	}
	if _, err := HexToHash(strings.Repeat("zz", 32)); err == nil {
		t.Error("non-hex should fail")
	}
}

func TestTokenID_IsNative(t *testing.T) {
	if !NativeTokenID.IsNative() {
		t.Error("NativeTokenID should be native")
	}
	if (TokenID{0x01}).IsNative() {
		t.Error("non-zero TokenID should not be native")
	}
}

func TestParseTokenID(t *testing.T) {
	id := TokenID{0x11, 0x22}
	back, err := ParseTokenID(id.String())
	if err != nil {
		t.Fatalf("ParseTokenID: %v", err)
	}
	if back != id {
		t.Errorf("roundtrip mismatch: got %s, want %s", back, id)
	}

	if _, err := ParseTokenID("1234"); err == nil {
		t.Error("short token id should fail")
	}
}
