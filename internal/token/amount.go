package token

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// TokenAmount is an exact, non-negative integer amount of one token,
// expressed in the token's smallest unit. Amounts are only ever mutated by
// SplitPercentage and Accumulate; everything else returns fresh values.
type TokenAmount struct {
	Amount *big.Int
	Token  *Token
}

var hundred = big.NewInt(100)

// NewAmount creates a TokenAmount holding a copy of amount.
func NewAmount(amount *big.Int, tok *Token) *TokenAmount {
	return &TokenAmount{Amount: new(big.Int).Set(amount), Token: tok}
}

// AmountFromRaw parses a base-10 integer string (the chain's wire format)
// into a TokenAmount.
func AmountFromRaw(raw string, tok *Token) (*TokenAmount, error) {
	n, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid raw amount %q", raw)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("negative raw amount %q", raw)
	}
	return &TokenAmount{Amount: n, Token: tok}, nil
}

// AmountFromDecimal converts a human decimal string ("1.5") into a
// TokenAmount using the token's declared precision.
func AmountFromDecimal(s string, tok *Token) (*TokenAmount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	shifted := d.Shift(int32(tok.Decimals))
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", s, tok.Decimals)
	}
	return &TokenAmount{Amount: shifted.BigInt(), Token: tok}, nil
}

// percentage returns amount*p/100, rounded toward zero.
func (a *TokenAmount) percentage(p int64) *big.Int {
	n := new(big.Int).Mul(a.Amount, big.NewInt(p))
	return n.Div(n, hundred)
}

// SplitPercentage extracts p percent of the amount, rounding toward zero.
// The receiver keeps the remainder, so remainder + extracted equals the
// original amount exactly.
func (a *TokenAmount) SplitPercentage(p int64) (*TokenAmount, error) {
	if p < 0 || p > 100 {
		return nil, fmt.Errorf("percentage %d out of range [0, 100]", p)
	}
	extracted := a.percentage(p)
	a.Amount.Sub(a.Amount, extracted)
	return &TokenAmount{Amount: extracted, Token: a.Token}, nil
}

// Percentage returns p percent of the amount without mutating the receiver.
func (a *TokenAmount) Percentage(p int64) (*TokenAmount, error) {
	if p < 0 || p > 100 {
		return nil, fmt.Errorf("percentage %d out of range [0, 100]", p)
	}
	return &TokenAmount{Amount: a.percentage(p), Token: a.Token}, nil
}

// Accumulate adds other into the receiver. The two amounts must be of the
// same token symbol.
func (a *TokenAmount) Accumulate(other *TokenAmount) error {
	if a.Token.Symbol != other.Token.Symbol {
		return fmt.Errorf("cannot sum %s into %s", other.Token.Symbol, a.Token.Symbol)
	}
	a.Amount.Add(a.Amount, other.Amount)
	return nil
}

// Clone returns an independent copy of the amount.
func (a *TokenAmount) Clone() *TokenAmount {
	return NewAmount(a.Amount, a.Token)
}

// IsZero returns true for a zero magnitude.
func (a *TokenAmount) IsZero() bool {
	return a.Amount.Sign() == 0
}

// String renders the amount as a decimal with the token symbol, e.g.
// "1.5 $KGX".
func (a *TokenAmount) String() string {
	d := decimal.NewFromBigInt(a.Amount, -int32(a.Token.Decimals))
	return d.String() + " $" + a.Token.Symbol
}

// Float64 returns a floating approximation for display only. Never use the
// result for arithmetic.
func (a *TokenAmount) Float64() float64 {
	f, _ := decimal.NewFromBigInt(a.Amount, -int32(a.Token.Decimals)).Float64()
	return f
}

// UserBalance is an ordered collection of amounts, at most one per token.
// Ordering is insertion order of first encounter and carries no meaning.
type UserBalance []*TokenAmount

// SumBalances merges balances into one, summing amounts of the same token
// symbol. Returns an error if two entries share a symbol but cannot be
// summed.
func SumBalances(balances ...UserBalance) (UserBalance, error) {
	var out UserBalance
	index := make(map[string]*TokenAmount)

	for _, balance := range balances {
		for _, ta := range balance {
			if acc, ok := index[ta.Token.Symbol]; ok {
				if err := acc.Accumulate(ta); err != nil {
					return nil, err
				}
				continue
			}
			acc := ta.Clone()
			index[ta.Token.Symbol] = acc
			out = append(out, acc)
		}
	}
	return out, nil
}
