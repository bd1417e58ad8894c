package custody

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"

	"github.com/Klingon-tech/klingnet-tipbot/internal/node"
)

// ErrAlreadyRegistered is returned by Register when a user with the same
// chat id already exists. Callers recover by re-fetching the stored user.
var ErrAlreadyRegistered = errors.New("user already registered")

// InvalidAddressError reports a malformed withdrawal destination. It is
// raised before any ledger call is made.
type InvalidAddressError struct {
	Address string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q", e.Address)
}

// NetworkError wraps a transport-level failure reaching the fullnode.
// Retryable.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// NotEnoughFundsError reports the generic insufficient-balance rejection.
// Got and Expected are exact base-unit integers parsed from the node's
// message.
type NotEnoughFundsError struct {
	Got      *big.Int
	Expected *big.Int
}

func (e *NotEnoughFundsError) Error() string {
	return fmt.Sprintf("not enough funds: got %s, expected %s", e.Got, e.Expected)
}

// NotEnoughBalanceForFeeError reports a wallet that cannot cover the
// transaction fee on top of the requested amount.
type NotEnoughBalanceForFeeError struct{}

func (e *NotEnoughBalanceForFeeError) Error() string {
	return "not enough balance to cover the transaction fee"
}

// Output shapes for NotEnoughNativeForOutputError.
const (
	OutputTransaction    = "transaction output"
	OutputNativeAndToken = "native and token change output"
	OutputTokenChange    = "token change output"
)

// NotEnoughNativeForOutputError reports a missing native-asset amount on
// one of the transaction's outputs. Expected and Got are nil for the
// plain transaction-output shape, which the node reports without numbers.
type NotEnoughNativeForOutputError struct {
	Output   string
	Expected *big.Int
	Got      *big.Int
}

func (e *NotEnoughNativeForOutputError) Error() string {
	if e.Expected == nil {
		return fmt.Sprintf("not enough KGX for %s", e.Output)
	}
	return fmt.Sprintf("not enough KGX for %s: expected %s, got %s", e.Output, e.Expected, e.Got)
}

// NotEnoughApprovedBalanceError reports a contract-call gas estimation
// rejecting an address/token pair with insufficient approved balance.
type NotEnoughApprovedBalanceError struct {
	Address  string
	TokenID  string
	Expected *big.Int
	Got      *big.Int
}

func (e *NotEnoughApprovedBalanceError) Error() string {
	return fmt.Sprintf("not enough approved balance for address %s, token %s: expected %s, got %s",
		e.Address, e.TokenID, e.Expected, e.Got)
}

// GeneralError is the classifier fallback. It preserves the original
// cause and a free-form context bag for logging.
type GeneralError struct {
	Msg     string
	Cause   error
	Context map[string]interface{}
}

func (e *GeneralError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *GeneralError) Unwrap() error { return e.Cause }

// The fullnode reports failures as unstructured strings prefixed with
// "[API Error] - ". Patterns are tried in order; the generic
// not-enough-balance pattern must stay last so the more specific shapes
// win.
var (
	feePattern = regexp.MustCompile(
		`^\[API Error\] - Not enough balance for fee, maybe transfer a smaller amount$`)
	txOutputPattern = regexp.MustCompile(
		`^\[API Error\] - Not enough KGX for transaction output$`)
	approvedBalancePattern = regexp.MustCompile(
		`^\[API Error\] - Execution error when estimating gas for tx script or contract: ` +
			`Not enough approved balance for address ([0-9A-Za-z]+), tokenId: (\w+), expected: (\d+), got: (\d+)$`)
	nativeAndTokenChangePattern = regexp.MustCompile(
		`^\[API Error\] - Not enough KGX for KGX and token change output, expected (\d+), got (\d+)$`)
	tokenChangePattern = regexp.MustCompile(
		`^\[API Error\] - Not enough KGX for token change output, expected (\d+), got (\d+)$`)
	notEnoughBalancePattern = regexp.MustCompile(
		`^\[API Error\] - Not enough balance: got (\d+), expected (\d+)$`)
)

type classifierRule struct {
	pattern *regexp.Regexp
	build   func(groups []string) (error, error)
}

var classifierRules = []classifierRule{
	{feePattern, func([]string) (error, error) {
		return &NotEnoughBalanceForFeeError{}, nil
	}},
	{txOutputPattern, func([]string) (error, error) {
		return &NotEnoughNativeForOutputError{Output: OutputTransaction}, nil
	}},
	{approvedBalancePattern, func(groups []string) (error, error) {
		expected, got, err := parseAmountPair(groups[3], groups[4])
		if err != nil {
			return nil, err
		}
		return &NotEnoughApprovedBalanceError{
			Address:  groups[1],
			TokenID:  groups[2],
			Expected: expected,
			Got:      got,
		}, nil
	}},
	{nativeAndTokenChangePattern, func(groups []string) (error, error) {
		expected, got, err := parseAmountPair(groups[1], groups[2])
		if err != nil {
			return nil, err
		}
		return &NotEnoughNativeForOutputError{
			Output:   OutputNativeAndToken,
			Expected: expected,
			Got:      got,
		}, nil
	}},
	{tokenChangePattern, func(groups []string) (error, error) {
		expected, got, err := parseAmountPair(groups[1], groups[2])
		if err != nil {
			return nil, err
		}
		return &NotEnoughNativeForOutputError{
			Output:   OutputTokenChange,
			Expected: expected,
			Got:      got,
		}, nil
	}},
	{notEnoughBalancePattern, func(groups []string) (error, error) {
		got, expected, err := parseAmountPair(groups[1], groups[2])
		if err != nil {
			return nil, err
		}
		return &NotEnoughFundsError{Got: got, Expected: expected}, nil
	}},
}

func parseAmountPair(a, b string) (*big.Int, *big.Int, error) {
	x, ok := new(big.Int).SetString(a, 10)
	if !ok {
		return nil, nil, fmt.Errorf("classifier captured non-numeric amount %q", a)
	}
	y, ok := new(big.Int).SetString(b, 10)
	if !ok {
		return nil, nil, fmt.Errorf("classifier captured non-numeric amount %q", b)
	}
	return x, y, nil
}

var apiErrorPrefix = regexp.MustCompile(`^\[API Error\] - `)

// classifyNodeError maps a raw fullnode failure onto the typed taxonomy
// above. Transport failures become NetworkError; unmatched node messages
// become a GeneralError preserving the original text; errors with no
// node marker pass through unchanged.
func classifyNodeError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *node.APIError
	if !errors.As(err, &apiErr) {
		return &NetworkError{Cause: err}
	}

	msg := apiErr.Message
	for _, rule := range classifierRules {
		groups := rule.pattern.FindStringSubmatch(msg)
		if groups == nil {
			continue
		}
		if len(groups) != rule.pattern.NumSubexp()+1 {
			return fmt.Errorf("classifier pattern %q captured %d groups, want %d",
				rule.pattern, len(groups)-1, rule.pattern.NumSubexp())
		}
		typed, buildErr := rule.build(groups)
		if buildErr != nil {
			return buildErr
		}
		return typed
	}

	if apiErrorPrefix.MatchString(msg) {
		return &GeneralError{
			Msg:   "fullnode rejected the request",
			Cause: apiErr,
			Context: map[string]interface{}{
				"status": apiErr.Status,
			},
		}
	}
	return err
}
