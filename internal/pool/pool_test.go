package pool_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/google/uuid"

	fpmath "github.com/GushALKDev/evm-synthetic-trading-protocol/internal/math"
	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/pool"
)

func TestBank_TransferMovesFunds(t *testing.T) {
	b := pool.NewBank()
	owner := pool.OwnerAccount(uuid.New())

	b.Mint(owner, fpmath.Wad(100))
	if err := b.Transfer(owner, pool.AccountCustody, fpmath.Wad(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if got := b.Balance(owner); got.Cmp(fpmath.Wad(60)) != 0 {
		t.Errorf("owner: got %s, want %s", got, fpmath.Wad(60))
	}
	if got := b.Balance(pool.AccountCustody); got.Cmp(fpmath.Wad(40)) != 0 {
		t.Errorf("custody: got %s, want %s", got, fpmath.Wad(40))
	}
}

func TestBank_InsufficientFundsNoEffect(t *testing.T) {
	b := pool.NewBank()
	owner := pool.OwnerAccount(uuid.New())
	b.Mint(owner, fpmath.Wad(10))

	err := b.Transfer(owner, pool.AccountCustody, fpmath.Wad(11))
	if !errors.Is(err, pool.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if got := b.Balance(owner); got.Cmp(fpmath.Wad(10)) != 0 {
		t.Errorf("failed transfer mutated the source: %s", got)
	}
	if got := b.Balance(pool.AccountCustody); got.Sign() != 0 {
		t.Errorf("failed transfer credited the destination: %s", got)
	}
}

func TestBank_NegativeAmountRejected(t *testing.T) {
	b := pool.NewBank()
	if err := b.Transfer(pool.AccountPool, pool.AccountCustody, big.NewInt(-1)); err == nil {
		t.Error("negative transfer must be rejected")
	}
}

func TestBank_ZeroTransferIsNoop(t *testing.T) {
	b := pool.NewBank()
	if err := b.Transfer(pool.AccountPool, pool.AccountCustody, new(big.Int)); err != nil {
		t.Errorf("zero transfer should succeed: %v", err)
	}
}

func TestBank_BalanceReturnsCopy(t *testing.T) {
	b := pool.NewBank()
	b.Mint(pool.AccountPool, fpmath.Wad(5))

	got := b.Balance(pool.AccountPool)
	got.SetInt64(0)

	if b.Balance(pool.AccountPool).Cmp(fpmath.Wad(5)) != 0 {
		t.Error("Balance must not alias internal state")
	}
}

func TestBank_TotalSupplyConserved(t *testing.T) {
	b := pool.NewBank()
	owner := pool.OwnerAccount(uuid.New())
	b.Mint(owner, fpmath.Wad(100))
	b.Mint(pool.AccountPool, fpmath.Wad(1000))

	b.Transfer(owner, pool.AccountCustody, fpmath.Wad(30))
	b.Transfer(pool.AccountPool, owner, fpmath.Wad(7))

	if got := b.TotalSupply(); got.Cmp(fpmath.Wad(1100)) != 0 {
		t.Errorf("supply: got %s, want %s", got, fpmath.Wad(1100))
	}
}

func TestPool_RequestPayout(t *testing.T) {
	b := pool.NewBank()
	p := pool.NewLiquidityPool(b)
	recipient := pool.OwnerAccount(uuid.New())

	b.Mint(pool.AccountPool, fpmath.Wad(500))

	if err := p.RequestPayout(recipient, fpmath.Wad(200)); err != nil {
		t.Fatalf("payout: %v", err)
	}
	if got := p.TotalAvailable(); got.Cmp(fpmath.Wad(300)) != 0 {
		t.Errorf("pool: got %s, want %s", got, fpmath.Wad(300))
	}
}

func TestPool_PayoutExceedsCapital(t *testing.T) {
	b := pool.NewBank()
	p := pool.NewLiquidityPool(b)
	recipient := pool.OwnerAccount(uuid.New())

	b.Mint(pool.AccountPool, fpmath.Wad(100))

	err := p.RequestPayout(recipient, fpmath.Wad(101))
	if !errors.Is(err, pool.ErrInsufficientCapital) {
		t.Fatalf("expected ErrInsufficientCapital, got %v", err)
	}
	if got := p.TotalAvailable(); got.Cmp(fpmath.Wad(100)) != 0 {
		t.Errorf("failed payout mutated the pool: %s", got)
	}
}

func TestPool_ReserveThenPay(t *testing.T) {
	b := pool.NewBank()
	p := pool.NewLiquidityPool(b)
	recipient := pool.OwnerAccount(uuid.New())

	b.Mint(pool.AccountPool, fpmath.Wad(500))

	if err := p.Reserve(fpmath.Wad(200)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	// Reserved capital no longer counts as available even though the bank
	// balance is untouched.
	if got := p.TotalAvailable(); got.Cmp(fpmath.Wad(300)) != 0 {
		t.Errorf("available after reserve: got %s, want %s", got, fpmath.Wad(300))
	}
	if got := b.Balance(pool.AccountPool); got.Cmp(fpmath.Wad(500)) != 0 {
		t.Errorf("bank balance after reserve: got %s, want %s", got, fpmath.Wad(500))
	}

	if err := p.PayReserved(recipient, fpmath.Wad(200)); err != nil {
		t.Fatalf("pay reserved: %v", err)
	}
	if got := p.TotalAvailable(); got.Cmp(fpmath.Wad(300)) != 0 {
		t.Errorf("available after payout: got %s, want %s", got, fpmath.Wad(300))
	}
	if got := b.Balance(recipient); got.Cmp(fpmath.Wad(200)) != 0 {
		t.Errorf("recipient: got %s, want %s", got, fpmath.Wad(200))
	}
}

func TestPool_ReleaseReturnsCapital(t *testing.T) {
	b := pool.NewBank()
	p := pool.NewLiquidityPool(b)

	b.Mint(pool.AccountPool, fpmath.Wad(100))

	if err := p.Reserve(fpmath.Wad(100)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := p.Reserve(fpmath.Wad(1)); !errors.Is(err, pool.ErrInsufficientCapital) {
		t.Fatalf("expected ErrInsufficientCapital, got %v", err)
	}

	p.Release(fpmath.Wad(100))
	if got := p.TotalAvailable(); got.Cmp(fpmath.Wad(100)) != 0 {
		t.Errorf("available after release: got %s, want %s", got, fpmath.Wad(100))
	}
}

func TestPool_PayWithoutReservationFails(t *testing.T) {
	b := pool.NewBank()
	p := pool.NewLiquidityPool(b)
	recipient := pool.OwnerAccount(uuid.New())

	b.Mint(pool.AccountPool, fpmath.Wad(100))

	if err := p.PayReserved(recipient, fpmath.Wad(50)); err == nil {
		t.Error("payout without a matching reservation must fail")
	}
	if got := b.Balance(pool.AccountPool); got.Cmp(fpmath.Wad(100)) != 0 {
		t.Errorf("failed payout mutated the pool: %s", got)
	}
}

// Concurrent reservations for the last unit of capital must grant exactly
// one; the availability check and the claim are a single atomic step.
func TestPool_ConcurrentReserveSingleWinner(t *testing.T) {
	b := pool.NewBank()
	p := pool.NewLiquidityPool(b)

	b.Mint(pool.AccountPool, fpmath.Wad(100))

	start := make(chan struct{})
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			<-start
			errs <- p.Reserve(fpmath.Wad(100))
		}()
	}
	close(start)

	var granted, rejected int
	for i := 0; i < 8; i++ {
		switch err := <-errs; {
		case err == nil:
			granted++
		case errors.Is(err, pool.ErrInsufficientCapital):
			rejected++
		default:
			t.Fatalf("reserve: %v", err)
		}
	}
	if granted != 1 || rejected != 7 {
		t.Fatalf("reservations: %d granted, %d rejected; want 1 and 7", granted, rejected)
	}
	if got := p.TotalAvailable(); got.Sign() != 0 {
		t.Errorf("available = %s, want 0", got)
	}
}
