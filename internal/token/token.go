// Package token implements the token registry and exact integer amount
// arithmetic for the tip bot.
//
// Tokens are identified by their chain-native TokenID; the reserved all-zero
// ID denotes the chain's native asset. Token rows are immutable once stored
// and refreshed wholesale from the published token list.
package token

import (
	"github.com/Klingon-tech/klingnet-tipbot/pkg/types"
)

// NativeSymbol is the ticker of the chain's native asset.
const NativeSymbol = "KGX"

// NativeDecimals is the decimal precision of the native asset.
const NativeDecimals = 18

// Token describes a fungible asset known to the bot.
type Token struct {
	ID          types.TokenID `json:"id"`
	Name        string        `json:"name"`
	Symbol      string        `json:"symbol"`
	Decimals    uint8         `json:"decimals"`
	Description string        `json:"description,omitempty"`
	LogoURI     string        `json:"logoURI,omitempty"`
}

// IsNative returns true for the chain's native asset.
func (t *Token) IsNative() bool {
	return t.ID.IsNative()
}

// NativeToken returns the descriptor of the chain's native asset.
func NativeToken() *Token {
	return &Token{
		ID:       types.NativeTokenID,
		Name:     "Klingnet",
		Symbol:   NativeSymbol,
		Decimals: NativeDecimals,
	}
}
