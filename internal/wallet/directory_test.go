package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Klingon-tech/klingnet-tipbot/pkg/types"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testDirectory(t *testing.T) *Directory {
	t.Helper()
	return NewDirectory(StaticMnemonicReader(testMnemonic))
}

func TestKeyFor_Deterministic(t *testing.T) {
	d := testDirectory(t)

	k1, err := d.KeyFor(7)
	if err != nil {
		t.Fatalf("KeyFor: %v", err)
	}
	k2, err := d.KeyFor(7)
	if err != nil {
		t.Fatalf("KeyFor: %v", err)
	}
	if k1.Address() != k2.Address() {
		t.Errorf("same index derived different addresses: %s vs %s", k1.Address(), k2.Address())
	}
}

func TestKeyFor_Injective(t *testing.T) {
	d := testDirectory(t)

	seen := make(map[types.Address]int64)
	for i := int64(0); i < 25; i++ {
		k, err := d.KeyFor(i)
		if err != nil {
			t.Fatalf("KeyFor(%d): %v", i, err)
		}
		if prev, dup := seen[k.Address()]; dup {
			t.Fatalf("indices %d and %d derived the same address %s", prev, i, k.Address())
		}
		seen[k.Address()] = i
	}
}

func TestKeyFor_DifferentMnemonic(t *testing.T) {
	d1 := testDirectory(t)
	d2 := NewDirectory(StaticMnemonicReader(
		"legal winner thank year wave sausage worth useful legal winner thank yellow"))

	k1, err := d1.KeyFor(0)
	if err != nil {
		t.Fatalf("KeyFor: %v", err)
	}
	k2, err := d2.KeyFor(0)
	if err != nil {
		t.Fatalf("KeyFor: %v", err)
	}
	if k1.Address() == k2.Address() {
		t.Error("different mnemonics derived the same address")
	}
}

func TestKeyFor_NegativeIndex(t *testing.T) {
	d := testDirectory(t)
	if _, err := d.KeyFor(-1); err == nil {
		t.Error("negative index should fail")
	}
}

func TestKey_GroupInRange(t *testing.T) {
	d := testDirectory(t)
	for i := int64(0); i < 10; i++ {
		k, err := d.KeyFor(i)
		if err != nil {
			t.Fatalf("KeyFor(%d): %v", i, err)
		}
		if g := k.Group(); g >= types.NumGroups {
			t.Errorf("KeyFor(%d).Group() = %d, want < %d", i, g, types.NumGroups)
		}
	}
}

func TestKey_SignerMatchesAddress(t *testing.T) {
	d := testDirectory(t)
	k, err := d.KeyFor(3)
	if err != nil {
		t.Fatalf("KeyFor: %v", err)
	}
	signer, err := k.Signer()
	if err != nil {
		t.Fatalf("Signer: %v", err)
	}
	if string(signer.PublicKey()) != string(k.PublicKey()) {
		t.Error("signer public key should match wallet public key")
	}
}

func TestFileMnemonicReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, MnemonicFileName)
	if err := os.WriteFile(path, []byte(testMnemonic+"\n"), 0600); err != nil {
		t.Fatalf("write mnemonic: %v", err)
	}

	read := FileMnemonicReader(dir)
	got, err := read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != testMnemonic {
		t.Errorf("read mnemonic = %q, want %q", got, testMnemonic)
	}
}

func TestFileMnemonicReader_Missing(t *testing.T) {
	read := FileMnemonicReader(t.TempDir())
	if _, err := read(); err == nil {
		t.Error("missing mnemonic file should fail")
	}
}

func TestFileMnemonicReader_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, MnemonicFileName)
	if err := os.WriteFile(path, []byte("not a mnemonic"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	read := FileMnemonicReader(dir)
	if _, err := read(); err == nil {
		t.Error("invalid mnemonic content should fail")
	}
}

func TestGenerateMnemonic_Valid(t *testing.T) {
	m, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}
	if !ValidateMnemonic(m) {
		t.Error("generated mnemonic should validate")
	}
}

func TestEncryption_Roundtrip(t *testing.T) {
	params := EncryptionParams{Memory: 1024, Iterations: 1, Parallelism: 1}
	enc, err := Encrypt([]byte(testMnemonic), []byte("hunter2"), params)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	dec, err := Decrypt(enc, []byte("hunter2"))
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(dec) != testMnemonic {
		t.Error("decrypted mnemonic mismatch")
	}

	if _, err := Decrypt(enc, []byte("wrong")); err == nil {
		t.Error("wrong password should fail")
	}
}
