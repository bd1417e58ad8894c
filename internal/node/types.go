package node

import (
	"math/big"

	"github.com/Klingon-tech/klingnet-tipbot/pkg/types"
)

// TokenBalance is one token entry of an address balance.
type TokenBalance struct {
	ID     types.TokenID `json:"id"`
	Amount string        `json:"amount"` // base units, decimal string
}

// Balance is the fullnode's view of an address.
type Balance struct {
	Balance       string         `json:"balance"` // native base units
	LockedBalance string         `json:"lockedBalance,omitempty"`
	TokenBalances []TokenBalance `json:"tokenBalances,omitempty"`
	UTXONum       int            `json:"utxoNum"`
}

// Transaction status types reported by the fullnode.
const (
	TxNotFound  = "not-found"
	TxMempooled = "mempooled"
	TxConfirmed = "confirmed"
)

// TxStatus is the confirmation state of a submitted transaction.
type TxStatus struct {
	Type          string `json:"type"`
	Confirmations int    `json:"chainConfirmations,omitempty"`
}

// TokenOut is a token amount attached to a destination.
type TokenOut struct {
	ID     types.TokenID
	Amount *big.Int
}

// Destination is one output of a transfer. Amount is the native-asset
// amount in base units; Tokens carries any token amounts riding on the
// output.
type Destination struct {
	Address string
	Amount  *big.Int
	Tokens  []TokenOut
}

// NodeInfo is the fullnode readiness report.
type NodeInfo struct {
	Ready  bool `json:"ready"`
	Synced bool `json:"synced"`
}
