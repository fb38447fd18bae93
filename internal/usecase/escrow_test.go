package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/xssnick/tonutils-go/tlb"

	"tonpurse/internal/entity"
	"tonpurse/internal/ton"
)

func testCheque(t *testing.T, balanceTON, amountTON string) (*ChequeEscrow, *stubProvider, entity.PendingCheque) {
	t.Helper()

	provider := newStubProvider(balanceTON, ton.ContractActive)
	source, err := ton.DeriveWallet("issuer 1", provider)
	if err != nil {
		t.Fatalf("derive issuer: %v", err)
	}

	escrow := NewChequeEscrow()
	cheque, err := escrow.Issue(context.Background(), source, tlb.MustFromTON(amountTON))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return escrow, provider, cheque
}

func testClaimant(t *testing.T, provider ton.Provider) *ton.Wallet {
	t.Helper()
	w, err := ton.DeriveWallet("claimant 2", provider)
	if err != nil {
		t.Fatalf("derive claimant: %v", err)
	}
	return w
}

func TestIssueValidation(t *testing.T) {
	provider := newStubProvider("1", ton.ContractActive)
	source, err := ton.DeriveWallet("issuer 1", provider)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	escrow := NewChequeEscrow()

	if _, err := escrow.Issue(context.Background(), source, tlb.MustFromTON("0")); !errors.Is(err, entity.ErrInvalidAmount) {
		t.Errorf("zero amount error = %v, want ErrInvalidAmount", err)
	}
	if _, err := escrow.Issue(context.Background(), source, tlb.MustFromTON("2")); !errors.Is(err, entity.ErrInsufficientFunds) {
		t.Errorf("overdraft error = %v, want ErrInsufficientFunds", err)
	}

	cheque, err := escrow.Issue(context.Background(), source, tlb.MustFromTON("0.5"))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if cheque.ID == "" {
		t.Error("cheque ID is empty")
	}
	for _, c := range cheque.ID {
		if c == '-' || c == '_' {
			t.Fatalf("cheque ID %q contains a link delimiter", cheque.ID)
		}
	}
}

func TestRedeemOnce(t *testing.T) {
	escrow, provider, cheque := testCheque(t, "10", "1")
	claimant := testClaimant(t, provider)

	amount, err := escrow.Redeem(context.Background(), cheque.ID, claimant)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if amount.String() != "1" {
		t.Errorf("amount = %s, want 1", amount.String())
	}
	if provider.sentCount() != 1 {
		t.Errorf("sent %d messages, want 1", provider.sentCount())
	}

	if _, err := escrow.Redeem(context.Background(), cheque.ID, claimant); !errors.Is(err, entity.ErrChequeNotFound) {
		t.Errorf("second redeem error = %v, want ErrChequeNotFound", err)
	}
}

func TestRedeemUnknownID(t *testing.T) {
	escrow := NewChequeEscrow()
	claimant := testClaimant(t, newStubProvider("0", ton.ContractUninitialized))

	if _, err := escrow.Redeem(context.Background(), "deadbeef", claimant); !errors.Is(err, entity.ErrChequeNotFound) {
		t.Errorf("error = %v, want ErrChequeNotFound", err)
	}
}

func TestRedeemConcurrent(t *testing.T) {
	escrow, provider, cheque := testCheque(t, "10", "1")
	claimant := testClaimant(t, provider)

	const claimants = 8
	errs := make(chan error, claimants)

	var wg sync.WaitGroup
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := escrow.Redeem(context.Background(), cheque.ID, claimant)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var won, gone int
	for err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, entity.ErrChequeNotFound):
			gone++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if won != 1 {
		t.Errorf("%d claimants won, want exactly 1", won)
	}
	if gone != claimants-1 {
		t.Errorf("%d claimants saw ErrChequeNotFound, want %d", gone, claimants-1)
	}
	if provider.sentCount() != 1 {
		t.Errorf("sent %d messages, want 1", provider.sentCount())
	}
}

func TestRedeemSurvivesSubmitFailure(t *testing.T) {
	escrow, provider, cheque := testCheque(t, "10", "1")
	claimant := testClaimant(t, provider)

	provider.setSendErr(errors.New("node unavailable"))
	if _, err := escrow.Redeem(context.Background(), cheque.ID, claimant); err == nil {
		t.Fatal("redeem succeeded despite a failing submission")
	}

	// The cheque must still be claimable after the transient failure.
	provider.setSendErr(nil)
	amount, err := escrow.Redeem(context.Background(), cheque.ID, claimant)
	if err != nil {
		t.Fatalf("retry redeem: %v", err)
	}
	if amount.String() != "1" {
		t.Errorf("amount = %s, want 1", amount.String())
	}
}

// The issuer keeps using their own session while a claimant redeems, so
// the borrowed source wallet is refreshed from two goroutines at once.
func TestRedeemConcurrentWithIssuerRefresh(t *testing.T) {
	escrow, provider, cheque := testCheque(t, "10", "1")
	claimant := testClaimant(t, provider)
	source := cheque.Source

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			if err := source.Refresh(context.Background()); err != nil {
				t.Errorf("issuer refresh: %v", err)
				return
			}
		}
	}()

	if _, err := escrow.Redeem(context.Background(), cheque.ID, claimant); err != nil {
		t.Errorf("redeem: %v", err)
	}
	<-done

	if got := source.Balance().String(); got != "10" {
		t.Errorf("balance = %s, want 10", got)
	}
}

func TestRedeemUnderfundedSource(t *testing.T) {
	escrow, provider, cheque := testCheque(t, "10", "1")
	claimant := testClaimant(t, provider)

	// The issuer spends the balance out from under the cheque.
	provider.setBalance("0.1")

	if _, err := escrow.Redeem(context.Background(), cheque.ID, claimant); !errors.Is(err, entity.ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}

	// An underfunded cheque stays pending: refunding the balance makes it
	// claimable again.
	provider.setBalance("10")
	if _, err := escrow.Redeem(context.Background(), cheque.ID, claimant); err != nil {
		t.Errorf("redeem after refund: %v", err)
	}
}
