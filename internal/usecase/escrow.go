package usecase

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"

	"tonpurse/internal/entity"
	"tonpurse/internal/ton"
)

const chequeComment = "contact-transfer"

type chequeStatus int

const (
	chequePending chequeStatus = iota
	chequeRedeeming
)

type chequeEntry struct {
	cheque entity.PendingCheque
	status chequeStatus
}

// ChequeEscrow is the process-wide table of claimable transfer intents.
// Entries move pending -> redeeming -> gone; the pending -> redeeming
// transition is atomic under the mutex, so a cheque is redeemable at most
// once no matter how many claimants race for it.
type ChequeEscrow struct {
	mu      sync.Mutex
	entries map[string]*chequeEntry
}

func NewChequeEscrow() *ChequeEscrow {
	return &ChequeEscrow{
		entries: make(map[string]*chequeEntry),
	}
}

// Issue registers a claimable cheque against the source wallet after a
// fresh balance check. The wallet is borrowed, not copied: the cheque pays
// out of whatever the wallet holds at redemption time.
func (e *ChequeEscrow) Issue(ctx context.Context, source *ton.Wallet, amount tlb.Coins) (entity.PendingCheque, error) {
	if amount.Nano().Sign() <= 0 {
		return entity.PendingCheque{}, entity.ErrInvalidAmount
	}

	if err := source.Refresh(ctx); err != nil {
		return entity.PendingCheque{}, err
	}
	if amount.Nano().Cmp(source.Balance().Nano()) > 0 {
		return entity.PendingCheque{}, entity.ErrInsufficientFunds
	}

	// Hex keeps the token free of the deep-link delimiter characters.
	token := uuid.New()
	cheque := entity.PendingCheque{
		ID:     hex.EncodeToString(token[:]),
		Source: source,
		Amount: amount,
	}

	e.mu.Lock()
	e.entries[cheque.ID] = &chequeEntry{cheque: cheque}
	e.mu.Unlock()

	return cheque, nil
}

// Redeem pays the cheque out to the claimant's wallet. Exactly one of any
// set of concurrent claimants wins; the rest see ErrChequeNotFound. The
// entry is removed only once the transfer is confirmed submitted, and a
// failed submission returns it to pending so the amount is never silently
// lost.
func (e *ChequeEscrow) Redeem(ctx context.Context, id string, claimant *ton.Wallet) (tlb.Coins, error) {
	e.mu.Lock()
	entry, ok := e.entries[id]
	if !ok || entry.status != chequePending {
		e.mu.Unlock()
		return tlb.Coins{}, entity.ErrChequeNotFound
	}
	entry.status = chequeRedeeming
	e.mu.Unlock()

	amount, err := e.payOut(ctx, entry, claimant)
	if err != nil {
		e.mu.Lock()
		entry.status = chequePending
		e.mu.Unlock()
		return tlb.Coins{}, err
	}

	e.mu.Lock()
	delete(e.entries, id)
	e.mu.Unlock()

	return amount, nil
}

func (e *ChequeEscrow) payOut(ctx context.Context, entry *chequeEntry, claimant *ton.Wallet) (tlb.Coins, error) {
	source := entry.cheque.Source
	amount := entry.cheque.Amount

	if err := source.Refresh(ctx); err != nil {
		return tlb.Coins{}, err
	}
	if amount.Nano().Cmp(source.Balance().Nano()) > 0 {
		return tlb.Coins{}, entity.ErrInsufficientFunds
	}

	to, err := address.ParseAddr(claimant.Address())
	if err != nil {
		return tlb.Coins{}, fmt.Errorf("claimant address: %w", err)
	}

	if err := source.Transfer(ctx, to, amount, chequeComment); err != nil {
		return tlb.Coins{}, err
	}

	return amount, nil
}
