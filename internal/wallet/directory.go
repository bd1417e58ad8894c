package wallet

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-tipbot/pkg/crypto"
	"github.com/Klingon-tech/klingnet-tipbot/pkg/types"
)

// MnemonicReader returns the current master mnemonic. It is invoked on every
// derivation so the secret can be rotated without restarting the process.
type MnemonicReader func() (string, error)

// Key is a user's derived signing wallet. It holds the private key for the
// duration of one call and is never persisted.
type Key struct {
	hd   *HDKey
	addr types.Address
}

// Address returns the wallet's chain address.
func (k *Key) Address() types.Address {
	return k.addr
}

// Group returns the wallet's address group, used to select the operator
// fee-collection address.
func (k *Key) Group() uint8 {
	return k.addr.Group()
}

// PublicKey returns the compressed 33-byte public key.
func (k *Key) PublicKey() []byte {
	return k.hd.PublicKeyBytes()
}

// Signer returns the signing key for submitting transactions.
func (k *Key) Signer() (*crypto.PrivateKey, error) {
	return k.hd.Signer()
}

// Directory derives one wallet per user from the master mnemonic and the
// user's sequential id. Derivation is deterministic and does no I/O, so a
// stored user address never needs re-derivation.
type Directory struct {
	readMnemonic MnemonicReader
}

// NewDirectory creates a wallet directory backed by the given mnemonic reader.
func NewDirectory(r MnemonicReader) *Directory {
	return &Directory{readMnemonic: r}
}

// KeyFor derives the signing wallet for the given user index.
func (d *Directory) KeyFor(index int64) (*Key, error) {
	if index < 0 {
		return nil, fmt.Errorf("negative derivation index %d", index)
	}

	mnemonic, err := d.readMnemonic()
	if err != nil {
		return nil, fmt.Errorf("read mnemonic: %w", err)
	}

	seed, err := SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}

	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}

	hd, err := master.DeriveUser(uint32(index))
	if err != nil {
		return nil, err
	}

	return &Key{hd: hd, addr: hd.Address()}, nil
}
