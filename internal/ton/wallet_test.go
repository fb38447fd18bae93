package ton

import (
	"bytes"
	"context"
	"encoding/base64"
	"math/big"
	"sync"
	"testing"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// stubProvider emulates the RPC provider in memory, in the spirit of a
// fake chain client.
type stubProvider struct {
	mu      sync.Mutex
	balance tlb.Coins
	state   ContractState
	seqno   uint32
	sent    [][]byte
	sendErr error
}

func newStubProvider(balanceTON string, state ContractState) *stubProvider {
	return &stubProvider{
		balance: tlb.MustFromTON(balanceTON),
		state:   state,
	}
}

func (p *stubProvider) AccountState(_ context.Context, _ string) (AccountState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return AccountState{Balance: p.balance, State: p.state}, nil
}

func (p *stubProvider) AccountStates(ctx context.Context, addrs []string) ([]AccountState, error) {
	states := make([]AccountState, 0, len(addrs))
	for range addrs {
		state, _ := p.AccountState(ctx, "")
		states = append(states, state)
	}
	return states, nil
}

func (p *stubProvider) Seqno(_ context.Context, _ string) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seqno, nil
}

func (p *stubProvider) SendBoc(_ context.Context, boc []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return p.sendErr
	}
	p.sent = append(p.sent, boc)
	// A submitted init message activates the contract.
	if p.state == ContractUninitialized {
		p.state = ContractActive
	}
	return nil
}

func (p *stubProvider) sentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

// The contract code constant is the one piece of the wallet that cannot
// be derived; a single flipped byte silently moves every user's address.
func TestWalletCodeConstant(t *testing.T) {
	raw, err := base64.StdEncoding.DecodeString(walletCodeBase64)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	code, err := cell.FromBOC(raw)
	if err != nil {
		t.Fatalf("parse code BOC: %v", err)
	}
	if len(code.Hash()) != 32 {
		t.Fatalf("code hash is %d bytes", len(code.Hash()))
	}
	if !bytes.Equal(code.Hash(), walletCode.Hash()) {
		t.Error("parsed code differs from the package-level cell")
	}
}

func TestDeriveWalletDeterministicAddress(t *testing.T) {
	provider := newStubProvider("0", ContractUninitialized)

	first, err := DeriveWallet("abc 1", provider)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	second, err := DeriveWallet("abc 1", provider)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	if first.Address() != second.Address() {
		t.Errorf("addresses differ: %s vs %s", first.Address(), second.Address())
	}
	if first.Address() == first.UnbounceableAddress() {
		t.Error("bounceable and unbounceable encodings must differ")
	}

	if _, err := address.ParseAddr(first.Address()); err != nil {
		t.Errorf("bounceable address does not parse: %v", err)
	}
	if _, err := address.ParseAddr(first.UnbounceableAddress()); err != nil {
		t.Errorf("unbounceable address does not parse: %v", err)
	}

	other, err := DeriveWallet("abc 2", provider)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if other.Address() == first.Address() {
		t.Error("distinct passwords produced the same address")
	}
}

func TestRefresh(t *testing.T) {
	provider := newStubProvider("10", ContractActive)
	w, err := DeriveWallet("abc 1", provider)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	if err := w.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := w.Balance().String(); got != "10" {
		t.Errorf("balance = %s, want 10", got)
	}
	if !w.Initialized() {
		t.Error("wallet should report initialized")
	}
}

func TestRefreshDeploysFundedWallet(t *testing.T) {
	provider := newStubProvider("1", ContractUninitialized)
	w, err := DeriveWallet("abc 1", provider)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	if err := w.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if provider.sentCount() != 1 {
		t.Fatalf("sent %d messages, want 1 init message", provider.sentCount())
	}
}

func TestRefreshLeavesEmptyWalletAlone(t *testing.T) {
	provider := newStubProvider("0", ContractUninitialized)
	w, err := DeriveWallet("abc 1", provider)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	if err := w.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if provider.sentCount() != 0 {
		t.Fatalf("sent %d messages for an unfunded wallet, want 0", provider.sentCount())
	}
}

func TestDeployAlreadyActive(t *testing.T) {
	provider := newStubProvider("1", ContractActive)
	w, err := DeriveWallet("abc 1", provider)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	deployed, err := w.Deploy(context.Background())
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if deployed {
		t.Error("deploy of an active contract must be a no-op")
	}
	if provider.sentCount() != 0 {
		t.Errorf("sent %d messages, want 0", provider.sentCount())
	}
}

func TestTransferSubmits(t *testing.T) {
	provider := newStubProvider("10", ContractActive)
	provider.seqno = 7

	w, err := DeriveWallet("abc 1", provider)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	recipient, err := DeriveWallet("def 2", provider)
	if err != nil {
		t.Fatalf("derive recipient: %v", err)
	}
	to, err := address.ParseAddr(recipient.Address())
	if err != nil {
		t.Fatalf("parse recipient: %v", err)
	}

	amount := tlb.FromNanoTON(big.NewInt(1_000_000_000))
	if err := w.Transfer(context.Background(), to, amount, "hi"); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if provider.sentCount() != 1 {
		t.Fatalf("sent %d messages, want 1", provider.sentCount())
	}
	if len(provider.sent[0]) == 0 {
		t.Error("submitted message is empty")
	}
}
