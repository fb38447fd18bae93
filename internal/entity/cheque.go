package entity

import (
	"errors"

	"github.com/xssnick/tonutils-go/tlb"

	"tonpurse/internal/ton"
)

var (
	ErrChequeNotFound    = errors.New("cheque not found")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidAddress    = errors.New("invalid address")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// PendingCheque is a claimable transfer intent. The source wallet is
// borrowed from the issuing session for as long as the cheque is open.
type PendingCheque struct {
	ID     string
	Source *ton.Wallet
	Amount tlb.Coins
}
