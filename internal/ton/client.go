package ton

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xssnick/tonutils-go/tlb"
)

// Failure classes for provider calls. None of them is retried here; retry
// policy belongs to the caller.
var (
	ErrTimeout         = errors.New("provider timeout")
	ErrConnection      = errors.New("provider connection failure")
	ErrMalformedResult = errors.New("malformed provider result")
)

type ContractState string

const (
	ContractUninitialized ContractState = "uninitialized"
	ContractActive        ContractState = "active"
	ContractFrozen        ContractState = "frozen"
	ContractUnknown       ContractState = "unknown"
)

type AccountState struct {
	Balance tlb.Coins
	State   ContractState
}

// Provider is the blockchain RPC surface the wallet needs.
type Provider interface {
	AccountState(ctx context.Context, addr string) (AccountState, error)
	AccountStates(ctx context.Context, addrs []string) ([]AccountState, error)
	Seqno(ctx context.Context, addr string) (uint32, error)
	SendBoc(ctx context.Context, boc []byte) error
}

const callTimeout = 5 * time.Second

// Client talks to a toncenter API v2 endpoint over HTTP. Every call gets
// its own bounded timeout.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	timeout time.Duration
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{},
		timeout: callTimeout,
	}
}

type envelope struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
	Code   int             `json:"code"`
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	if !env.OK {
		return fmt.Errorf("%w: provider code %d: %s", ErrMalformedResult, env.Code, env.Error)
	}

	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResult, err)
		}
	}

	return nil
}

func classify(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}

type addressInformation struct {
	Balance json.Number `json:"balance"`
	State   string      `json:"state"`
}

func (c *Client) AccountState(ctx context.Context, addr string) (AccountState, error) {
	var info addressInformation
	query := url.Values{"address": {addr}}
	if err := c.call(ctx, http.MethodGet, "getAddressInformation", query, nil, &info); err != nil {
		return AccountState{}, err
	}

	nano, ok := new(big.Int).SetString(info.Balance.String(), 10)
	if !ok {
		return AccountState{}, fmt.Errorf("%w: balance %q", ErrMalformedResult, info.Balance)
	}
	// Providers occasionally report negative balances for special accounts.
	if nano.Sign() < 0 {
		nano.SetInt64(0)
	}

	state := ContractState(info.State)
	switch state {
	case ContractUninitialized, ContractActive, ContractFrozen:
	default:
		state = ContractUnknown
	}

	return AccountState{Balance: tlb.FromNanoTON(nano), State: state}, nil
}

// AccountStates preserves input order. An empty input short-circuits
// without touching the network.
func (c *Client) AccountStates(ctx context.Context, addrs []string) ([]AccountState, error) {
	if len(addrs) == 0 {
		return []AccountState{}, nil
	}

	states := make([]AccountState, 0, len(addrs))
	for _, addr := range addrs {
		state, err := c.AccountState(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", addr, err)
		}
		states = append(states, state)
	}
	return states, nil
}

type runResult struct {
	ExitCode int               `json:"exit_code"`
	Stack    []json.RawMessage `json:"stack"`
}

// Seqno runs the wallet contract's seqno get-method and decodes the
// hex-encoded first stack element. An uninitialized account has no method
// to run and reports seqno 0.
func (c *Client) Seqno(ctx context.Context, addr string) (uint32, error) {
	body := map[string]any{
		"address": addr,
		"method":  "seqno",
		"stack":   []any{},
	}

	var result runResult
	if err := c.call(ctx, http.MethodPost, "runGetMethod", nil, body, &result); err != nil {
		return 0, err
	}

	if result.ExitCode != 0 {
		return 0, nil
	}
	if len(result.Stack) == 0 {
		return 0, fmt.Errorf("%w: empty seqno stack", ErrMalformedResult)
	}

	var pair []string
	if err := json.Unmarshal(result.Stack[0], &pair); err != nil || len(pair) != 2 {
		return 0, fmt.Errorf("%w: unexpected seqno stack element", ErrMalformedResult)
	}

	seqno, err := strconv.ParseUint(strings.TrimPrefix(pair[1], "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: seqno %q: %v", ErrMalformedResult, pair[1], err)
	}

	return uint32(seqno), nil
}

// SendBoc submits a pre-built, pre-signed message. Contents are not
// validated here.
func (c *Client) SendBoc(ctx context.Context, boc []byte) error {
	body := map[string]any{"boc": base64.StdEncoding.EncodeToString(boc)}
	return c.call(ctx, http.MethodPost, "sendBoc", nil, body, nil)
}
