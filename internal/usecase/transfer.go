package usecase

import (
	"context"
	"fmt"
	"log"
	"math/big"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"

	"tonpurse/internal/entity"
	"tonpurse/internal/ton"
)

// TransferEngine orchestrates an outgoing transfer: recipient validation,
// fee arithmetic, execution, receipt.
type TransferEngine struct {
	fee tlb.Coins
	min tlb.Coins
}

func NewTransferEngine() *TransferEngine {
	return &TransferEngine{
		fee: tlb.MustFromTON("0.05"),
		min: tlb.MustFromTON("0.001"),
	}
}

// Fee is the flat network fee estimate shown to the user.
func (e *TransferEngine) Fee() tlb.Coins { return e.fee }

// Min is the smallest transferable amount.
func (e *TransferEngine) Min() tlb.Coins { return e.min }

// Max is the largest amount a balance allows once the fee is reserved.
func (e *TransferEngine) Max(balance tlb.Coins) tlb.Coins {
	max := new(big.Int).Sub(balance.Nano(), e.fee.Nano())
	if max.Sign() < 0 {
		max.SetInt64(0)
	}
	return tlb.FromNanoTON(max)
}

// PrepareSend validates a raw recipient address. It accepts exactly what
// the address grammar accepts and nothing else.
func (e *TransferEngine) PrepareSend(raw string) (*address.Address, error) {
	addr, err := address.ParseAddr(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidAddress, err)
	}
	return addr, nil
}

type Quote struct {
	Amount       tlb.Coins
	Fee          tlb.Coins
	Total        tlb.Coins
	BalanceAfter tlb.Coins
}

// Quote computes the transfer totals against a balance. It rejects rather
// than executes when the balance cannot cover amount plus fee.
func (e *TransferEngine) Quote(balance, amount tlb.Coins) (Quote, error) {
	if amount.Nano().Sign() <= 0 {
		return Quote{}, entity.ErrInvalidAmount
	}

	total := new(big.Int).Add(amount.Nano(), e.fee.Nano())
	after := new(big.Int).Sub(balance.Nano(), total)
	if after.Sign() < 0 {
		return Quote{}, entity.ErrInsufficientFunds
	}

	return Quote{
		Amount:       amount,
		Fee:          e.fee,
		Total:        tlb.FromNanoTON(total),
		BalanceAfter: tlb.FromNanoTON(after),
	}, nil
}

type Receipt struct {
	Address string
	Amount  tlb.Coins
	Fee     tlb.Coins
	Total   tlb.Coins
}

// Execute refreshes the wallet, re-checks the quote against the fresh
// balance, submits the signed transfer and refreshes again. The returned
// receipt carries the fields the transport renders.
func (e *TransferEngine) Execute(ctx context.Context, w *ton.Wallet, to *address.Address, amount tlb.Coins, comment string) (Receipt, error) {
	if err := w.Refresh(ctx); err != nil {
		return Receipt{}, err
	}

	quote, err := e.Quote(w.Balance(), amount)
	if err != nil {
		return Receipt{}, err
	}

	if err := w.Transfer(ctx, to, amount, comment); err != nil {
		return Receipt{}, err
	}

	// The transfer is already on the wire; a stale balance view is not
	// worth failing the receipt over.
	if err := w.Refresh(ctx); err != nil {
		log.Printf("refresh after transfer: %v", err)
	}

	return Receipt{
		Address: to.String(),
		Amount:  quote.Amount,
		Fee:     quote.Fee,
		Total:   quote.Total,
	}, nil
}
