// Package node provides the HTTP client for the Klingnet fullnode's
// walletless API. The bot derives and signs keys locally; the node only
// ever sees public keys, unsigned transactions, and signatures.
package node

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Klingon-tech/klingnet-tipbot/pkg/crypto"
)

// APIError is a structured failure surfaced by the fullnode. The node
// reports errors as plain strings prefixed with "[API Error] - "; Message
// holds the full string so callers can classify it.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client talks to one fullnode over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// New creates a fullnode client for the given base URL. apiKey may be empty.
func New(baseURL, apiKey string) *Client {
	return NewWithTimeout(baseURL, apiKey, 30*time.Second)
}

// NewWithTimeout creates a fullnode client with a custom HTTP timeout.
func NewWithTimeout(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Ready checks that the fullnode is reachable, ready, and synced.
func (c *Client) Ready(ctx context.Context) error {
	var info NodeInfo
	if err := c.get(ctx, "/infos/node", &info); err != nil {
		return err
	}
	if !info.Ready {
		return fmt.Errorf("fullnode is not ready")
	}
	if !info.Synced {
		return fmt.Errorf("fullnode is not synced")
	}
	return nil
}

// AddressBalance queries the native and token balances of an address.
// When mempool is true, unconfirmed outputs count toward the balance and
// the UTXO number.
func (c *Client) AddressBalance(ctx context.Context, address string, mempool bool) (*Balance, error) {
	path := "/addresses/" + url.PathEscape(address) + "/balance"
	if mempool {
		path += "?mempool=true"
	}
	var bal Balance
	if err := c.get(ctx, path, &bal); err != nil {
		return nil, err
	}
	return &bal, nil
}

// TransactionStatus queries the confirmation state of a transaction.
func (c *Client) TransactionStatus(ctx context.Context, txID string) (*TxStatus, error) {
	var st TxStatus
	if err := c.get(ctx, "/transactions/status?txId="+url.QueryEscape(txID), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// wireDestination is the node's JSON shape for one output. Amounts travel
// as decimal strings to avoid JSON number precision loss.
type wireDestination struct {
	Address string      `json:"address"`
	Amount  string      `json:"amount"`
	Tokens  []wireToken `json:"tokens,omitempty"`
}

type wireToken struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
}

type buildTransferRequest struct {
	FromPublicKey string            `json:"fromPublicKey"`
	Destinations  []wireDestination `json:"destinations"`
}

type buildTransferResponse struct {
	TxID       string `json:"txId"`
	UnsignedTx string `json:"unsignedTx"`
}

type submitRequest struct {
	UnsignedTx string `json:"unsignedTx"`
	Signature  string `json:"signature"`
}

type submitResponse struct {
	TxID string `json:"txId"`
}

// SubmitTransfer builds, signs, and submits a transfer with the given
// ordered destination list. Returns the transaction id.
func (c *Client) SubmitTransfer(ctx context.Context, signer crypto.Signer, dests []Destination) (string, error) {
	req := buildTransferRequest{
		FromPublicKey: hex.EncodeToString(signer.PublicKey()),
		Destinations:  make([]wireDestination, 0, len(dests)),
	}
	for _, d := range dests {
		wd := wireDestination{Address: d.Address, Amount: d.Amount.String()}
		for _, tok := range d.Tokens {
			wd.Tokens = append(wd.Tokens, wireToken{ID: tok.ID.String(), Amount: tok.Amount.String()})
		}
		req.Destinations = append(req.Destinations, wd)
	}

	var built buildTransferResponse
	if err := c.post(ctx, "/transactions/build", req, &built); err != nil {
		return "", err
	}
	return c.signAndSubmit(ctx, signer, built.UnsignedTx)
}

type sweepBuildRequest struct {
	FromPublicKey string `json:"fromPublicKey"`
	ToAddress     string `json:"toAddress"`
}

type sweepBuildResponse struct {
	UnsignedTxs []buildTransferResponse `json:"unsignedTxs"`
}

// BuildSweep asks the node for the unsigned transaction set that spends
// every UTXO of the key's address back to toAddress.
func (c *Client) BuildSweep(ctx context.Context, fromPublicKey []byte, toAddress string) ([]string, error) {
	req := sweepBuildRequest{
		FromPublicKey: hex.EncodeToString(fromPublicKey),
		ToAddress:     toAddress,
	}
	var resp sweepBuildResponse
	if err := c.post(ctx, "/transactions/sweep/build", req, &resp); err != nil {
		return nil, err
	}
	unsigned := make([]string, 0, len(resp.UnsignedTxs))
	for _, tx := range resp.UnsignedTxs {
		unsigned = append(unsigned, tx.UnsignedTx)
	}
	return unsigned, nil
}

// SubmitUnsigned signs a previously built unsigned transaction and submits
// it. Returns the transaction id.
func (c *Client) SubmitUnsigned(ctx context.Context, signer crypto.Signer, unsignedTx string) (string, error) {
	return c.signAndSubmit(ctx, signer, unsignedTx)
}

// signAndSubmit signs the BLAKE3 digest of the raw unsigned transaction and
// posts it for inclusion.
func (c *Client) signAndSubmit(ctx context.Context, signer crypto.Signer, unsignedTx string) (string, error) {
	raw, err := hex.DecodeString(unsignedTx)
	if err != nil {
		return "", fmt.Errorf("decode unsigned tx: %w", err)
	}
	digest := crypto.Hash(raw)
	sig, err := signer.Sign(digest[:])
	if err != nil {
		return "", fmt.Errorf("sign tx: %w", err)
	}

	var resp submitResponse
	err = c.post(ctx, "/transactions/submit", submitRequest{
		UnsignedTx: unsignedTx,
		Signature:  hex.EncodeToString(sig),
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.TxID, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		// Transport failures keep their *url.Error chain so callers can
		// classify them as network errors.
		return fmt.Errorf("node request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(data)),
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
