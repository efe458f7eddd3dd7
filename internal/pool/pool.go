package pool

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
)

// ErrInsufficientCapital is returned when a payout request exceeds the
// pool's total available capital.
var ErrInsufficientCapital = errors.New("payout exceeds available pool capital")

// LiquidityPool is the pooled counterparty every position nets against.
// Share accounting, deposits and withdrawals live in an external subsystem;
// the engine only pulls payouts and reads available capital.
//
// Payouts are two-phase: a caller first reserves the amount, then pays it
// out after its own bookkeeping is done. The reservation is atomic with the
// availability check, so two concurrent settlements can never both claim
// the last unit of capital.
type LiquidityPool struct {
	bank *Bank

	mu       sync.Mutex
	reserved *big.Int
}

func NewLiquidityPool(bank *Bank) *LiquidityPool {
	return &LiquidityPool{bank: bank, reserved: new(big.Int)}
}

// Reserve sets aside amount of pool capital for an in-flight payout. Fails
// with ErrInsufficientCapital, without any effect, if the unreserved
// capital cannot cover it.
func (p *LiquidityPool) Reserve(amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("reserve amount must be >= 0, got %s", amount)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	avail := p.availableLocked()
	if avail.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, requested %s", ErrInsufficientCapital, avail, amount)
	}
	p.reserved.Add(p.reserved, amount)
	return nil
}

// Release returns reserved capital to the pool without paying it out.
func (p *LiquidityPool) Release(amount *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reserved.Sub(p.reserved, amount)
	if p.reserved.Sign() < 0 {
		panic(fmt.Sprintf("FATAL: pool reservation underflow by %s", new(big.Int).Neg(p.reserved)))
	}
}

// PayReserved transfers previously reserved capital to the recipient and
// consumes the reservation. The full amount must have been reserved first.
func (p *LiquidityPool) PayReserved(recipient Account, amount *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.reserved.Cmp(amount) < 0 {
		return fmt.Errorf("payout %s exceeds reserved capital %s", amount, p.reserved)
	}
	if err := p.bank.Transfer(AccountPool, recipient, amount); err != nil {
		return err
	}
	p.reserved.Sub(p.reserved, amount)
	return nil
}

// RequestPayout reserves and pays in a single step, for callers with no
// bookkeeping between the check and the transfer.
func (p *LiquidityPool) RequestPayout(recipient Account, amount *big.Int) error {
	if err := p.Reserve(amount); err != nil {
		return err
	}
	if err := p.PayReserved(recipient, amount); err != nil {
		p.Release(amount)
		return err
	}
	return nil
}

// TotalAvailable reports the pool capital not claimed by in-flight payouts.
func (p *LiquidityPool) TotalAvailable() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.availableLocked()
}

func (p *LiquidityPool) availableLocked() *big.Int {
	return new(big.Int).Sub(p.bank.Balance(AccountPool), p.reserved)
}
