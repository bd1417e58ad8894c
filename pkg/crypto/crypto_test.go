package crypto

import (
	"bytes"
	"testing"
)

func TestHash_Deterministic(t *testing.T) {
	a := Hash([]byte("hello"))
	b := Hash([]byte("hello"))
	if a != b {
		t.Error("Hash should be deterministic")
	}

	c := Hash([]byte("world"))
	if a == c {
		t.Error("different inputs should hash differently")
	}
}

func TestAddressFromPubKey(t *testing.T) {
	priv, err := PrivateKeyFromBytes(bytes.Repeat([]byte{0x42}, 32))
	if err != nil {
		t.Fatalf("PrivateKeyFromBytes: %v", err)
	}

	addr := AddressFromPubKey(priv.PublicKey())
	if addr.IsZero() {
		t.Error("derived address should not be zero")
	}

	// Same pubkey, same address.
	again := AddressFromPubKey(priv.PublicKey())
	if addr != again {
		t.Error("address derivation should be deterministic")
	}
}

func TestSign_Verify(t *testing.T) {
	priv, err := PrivateKeyFromBytes(bytes.Repeat([]byte{0x07}, 32))
	if err != nil {
		t.Fatalf("PrivateKeyFromBytes: %v", err)
	}

	digest := Hash([]byte("a transfer payload"))
	sig, err := priv.Sign(digest[:])
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if !VerifySignature(digest[:], sig, priv.PublicKey()) {
		t.Error("signature should verify")
	}

	other := Hash([]byte("another payload"))
	if VerifySignature(other[:], sig, priv.PublicKey()) {
		t.Error("signature should not verify against a different hash")
	}
}

func TestSign_RejectsBadHashLength(t *testing.T) {
	priv, err := PrivateKeyFromBytes(bytes.Repeat([]byte{0x07}, 32))
	if err != nil {
		t.Fatalf("PrivateKeyFromBytes: %v", err)
	}
	if _, err := priv.Sign([]byte("short")); err == nil {
		t.Error("Sign should reject non-32-byte hashes")
	}
}

func TestPrivateKeyFromBytes_BadLength(t *testing.T) {
	if _, err := PrivateKeyFromBytes([]byte{0x01}); err == nil {
		t.Error("expected error for short key")
	}
}
