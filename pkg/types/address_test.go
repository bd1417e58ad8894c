package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAddress_IsZero(t *testing.T) {
	var zero Address
	if !zero.IsZero() {
		t.Error("zero-value Address should be zero")
	}

	nonZero := Address{0x01}
	if nonZero.IsZero() {
		t.Error("non-zero Address should not be zero")
	}
}

func TestAddress_String(t *testing.T) {
	oldHRP := activeHRP
	defer func() { activeHRP = oldHRP }()

	SetAddressHRP(MainnetHRP)

	a := Address{0xab}
	a[19] = 0xcd
	if s := a.String(); !strings.HasPrefix(s, "kgx1") {
		t.Errorf("String() should start with 'kgx1', got %s", s)
	}

	SetAddressHRP(TestnetHRP)
	if s := a.String(); !strings.HasPrefix(s, "tkgx1") {
		t.Errorf("String() should start with 'tkgx1', got %s", s)
	}
}

func TestParseAddress_Bech32_Roundtrip(t *testing.T) {
	oldHRP := activeHRP
	defer func() { activeHRP = oldHRP }()

	SetAddressHRP(MainnetHRP)

	a := Address{0x8f, 0x3a, 0x44, 0xb8, 0x05, 0x6c, 0xaf, 0xec, 0x36, 0x8d,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a}

	parsed, err := ParseAddress(a.String())
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if parsed != a {
		t.Errorf("roundtrip mismatch: got %x, want %x", parsed, a)
	}
}

func TestParseAddress_RawHex(t *testing.T) {
	a := Address{0xab, 0xcd}
	parsed, err := ParseAddress(a.Hex())
	if err != nil {
		t.Fatalf("ParseAddress hex: %v", err)
	}
	if parsed != a {
		t.Errorf("hex roundtrip mismatch: got %x, want %x", parsed, a)
	}
}

func TestParseAddress_Invalid(t *testing.T) {
	cases := []string{
		"",
		"kgx1qqqqq",    // truncated bech32
		"notanaddress", // garbage
		"abcd",         // short hex
	}
	for _, c := range cases {
		if _, err := ParseAddress(c); err == nil {
			t.Errorf("ParseAddress(%q) should fail", c)
		}
	}
}

func TestIsValidAddress(t *testing.T) {
	a := Address{0x42}
	if !IsValidAddress(a.String()) {
		t.Errorf("IsValidAddress(%s) = false, want true", a.String())
	}
	if IsValidAddress("definitely-not-an-address") {
		t.Error("IsValidAddress should reject garbage")
	}
}

func TestAddress_Group(t *testing.T) {
	cases := []struct {
		first byte
		want  uint8
	}{
		{0x00, 0},
		{0x01, 1},
		{0x02, 2},
		{0x03, 3},
		{0x04, 0},
		{0xff, 3},
	}
	for _, c := range cases {
		a := Address{c.first}
		if got := a.Group(); got != c.want {
			t.Errorf("Address{%#x}.Group() = %d, want %d", c.first, got, c.want)
		}
	}
}

func TestAddress_JSON_Roundtrip(t *testing.T) {
	oldHRP := activeHRP
	defer func() { activeHRP = oldHRP }()

	SetAddressHRP(MainnetHRP)

	a := Address{0x11, 0x22, 0x33}
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back Address
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != a {
		t.Errorf("JSON roundtrip mismatch: got %x, want %x", back, a)
	}
}
