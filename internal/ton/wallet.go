package ton

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Wallet v3r2 contract parameters. The subwallet id is the network-wide
// default; the send mode pays forwarding fees from the wallet balance.
const (
	walletWorkchain          = 0
	walletSubwallet          = 698983191
	sendModePayGasSeparately = 1
	messageLifetime          = 60 * time.Second
)

const walletCodeBase64 = "te6cckEBAQEAcQAA3v8AIN0gggFMl7ohggEznLqxn3Gw7UTQ0x/THzHXC//jBOCk8mCDCNcYINMf0x/TH/gjE7vyY+1E0NMf0x/T/9FRMrryoVFEuvKiBPkBVBBV+RDyo/gAkyDXSpbTB9QC+wDo0QGkyMsfyx/L/8ntVBC9ba0="

var walletCode *cell.Cell

func init() {
	raw, err := base64.StdEncoding.DecodeString(walletCodeBase64)
	if err != nil {
		panic(fmt.Sprintf("wallet code constant: %v", err))
	}
	walletCode, err = cell.FromBOC(raw)
	if err != nil {
		panic(fmt.Sprintf("wallet code constant: %v", err))
	}
}

// Wallet binds a derived key pair to its v3r2 contract and a chain
// provider. The cached balance and state are stale until Refresh is
// called. The escrow refreshes an issuer's wallet from claimant sessions,
// so the cached chain view is mutex-guarded.
type Wallet struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey

	Wordlist []string

	init        *tlb.StateInit
	addr        *address.Address
	bounceable  string
	unbounceble string

	provider Provider

	mu      sync.Mutex
	balance tlb.Coins
	state   ContractState
}

// DeriveWallet reproduces the wallet for a password. Identical passwords
// always yield the identical wordlist, keys, and address.
func DeriveWallet(password string, provider Provider) (*Wallet, error) {
	words, err := PasswordToWordlist(password)
	if err != nil {
		return nil, err
	}
	return FromWordlist(words, provider)
}

func FromWordlist(words []string, provider Provider) (*Wallet, error) {
	priv, pub := WordlistToKey(words)

	data := cell.BeginCell().
		MustStoreUInt(0, 32).
		MustStoreUInt(walletSubwallet, 32).
		MustStoreSlice(pub, 256).
		EndCell()

	init := &tlb.StateInit{Code: walletCode, Data: data}
	initCell, err := tlb.ToCell(init)
	if err != nil {
		return nil, fmt.Errorf("serialize state init: %w", err)
	}

	addr := address.NewAddress(0, walletWorkchain, initCell.Hash())

	w := &Wallet{
		priv:     priv,
		pub:      pub,
		Wordlist: words,
		init:     init,
		addr:     addr,
		provider: provider,
		balance:  tlb.FromNanoTON(big.NewInt(0)),
		state:    ContractUnknown,
	}
	w.bounceable = address.NewAddress(0, walletWorkchain, initCell.Hash()).Bounce(true).String()
	w.unbounceble = address.NewAddress(0, walletWorkchain, initCell.Hash()).Bounce(false).String()

	return w, nil
}

// Address is the bounceable, user-friendly encoding.
func (w *Wallet) Address() string { return w.bounceable }

// UnbounceableAddress is the encoding shown for deposits.
func (w *Wallet) UnbounceableAddress() string { return w.unbounceble }

// Balance is the chain balance as of the last Refresh.
func (w *Wallet) Balance() tlb.Coins {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance
}

func (w *Wallet) Initialized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == ContractActive
}

// Refresh loads the wallet's balance and contract state. A funded but
// uninitialized wallet is deployed on the spot, matching the deposit flow:
// the contract only exists on chain once someone has paid for it.
func (w *Wallet) Refresh(ctx context.Context) error {
	state, err := w.provider.AccountState(ctx, w.bounceable)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.balance = state.Balance
	w.state = state.State
	needsDeploy := w.state == ContractUninitialized && w.balance.Nano().Sign() > 0
	w.mu.Unlock()

	if needsDeploy {
		if _, err := w.Deploy(ctx); err != nil {
			return fmt.Errorf("deploy wallet: %w", err)
		}
	}

	return nil
}

// Deploy submits the contract's init message. It reports false without
// error when the contract is already active, which callers may ignore;
// a submission failure propagates.
func (w *Wallet) Deploy(ctx context.Context) (bool, error) {
	state, err := w.provider.AccountState(ctx, w.bounceable)
	if err != nil {
		return false, err
	}
	if state.State == ContractActive {
		return false, nil
	}

	// At seqno 0 the contract accepts an unlimited valid-until.
	unsigned := cell.BeginCell().
		MustStoreUInt(walletSubwallet, 32).
		MustStoreUInt(0xFFFFFFFF, 32).
		MustStoreUInt(0, 32)

	boc, err := w.sealExternal(unsigned, true)
	if err != nil {
		return false, err
	}

	if err := w.provider.SendBoc(ctx, boc); err != nil {
		return false, err
	}
	return true, nil
}

// Transfer sends amount to the destination with an optional text comment.
// It refreshes state, fetches the current seqno, submits the signed
// message, and refreshes again so subsequent balance reads are current.
func (w *Wallet) Transfer(ctx context.Context, to *address.Address, amount tlb.Coins, comment string) error {
	if err := w.Refresh(ctx); err != nil {
		return err
	}

	seqno, err := w.provider.Seqno(ctx, w.bounceable)
	if err != nil {
		return err
	}

	boc, err := w.buildTransfer(to, amount, comment, seqno)
	if err != nil {
		return err
	}

	if err := w.provider.SendBoc(ctx, boc); err != nil {
		return err
	}

	return w.Refresh(ctx)
}

func (w *Wallet) buildTransfer(to *address.Address, amount tlb.Coins, comment string, seqno uint32) ([]byte, error) {
	body := cell.BeginCell().EndCell()
	if comment != "" {
		body = cell.BeginCell().MustStoreUInt(0, 32).MustStoreStringSnake(comment).EndCell()
	}

	internal := tlb.InternalMessage{
		IHRDisabled: true,
		Bounce:      to.IsBounceable(),
		DstAddr:     to,
		Amount:      amount,
		Body:        body,
	}
	internalCell, err := tlb.ToCell(internal)
	if err != nil {
		return nil, fmt.Errorf("serialize internal message: %w", err)
	}

	validUntil := time.Now().Add(messageLifetime).Unix()
	unsigned := cell.BeginCell().
		MustStoreUInt(walletSubwallet, 32).
		MustStoreUInt(uint64(validUntil), 32).
		MustStoreUInt(uint64(seqno), 32).
		MustStoreUInt(sendModePayGasSeparately, 8).
		MustStoreRef(internalCell)

	return w.sealExternal(unsigned, !w.Initialized())
}

// sealExternal signs the unsigned body, wraps it into an external message
// and serializes it for submission. State init is attached when the
// contract is not yet deployed.
func (w *Wallet) sealExternal(unsigned *cell.Builder, withInit bool) ([]byte, error) {
	sig := ed25519.Sign(w.priv, unsigned.EndCell().Hash())

	body := cell.BeginCell().
		MustStoreSlice(sig, 512).
		MustStoreBuilder(unsigned).
		EndCell()

	external := &tlb.ExternalMessage{
		DstAddr: w.addr,
		Body:    body,
	}
	if withInit {
		external.StateInit = w.init
	}

	externalCell, err := tlb.ToCell(external)
	if err != nil {
		return nil, fmt.Errorf("serialize external message: %w", err)
	}

	return externalCell.ToBOC(), nil
}
