package pool

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/google/uuid"
)

// ErrInsufficientFunds is returned when a transfer would overdraw an account.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Account identifies a base-currency balance holder.
type Account string

const (
	// AccountCustody holds the collateral of all open positions.
	AccountCustody Account = "engine:custody"

	// AccountPool holds the pooled counterparty capital.
	AccountPool Account = "pool:capital"
)

// OwnerAccount derives the account for a trader identity.
func OwnerAccount(id uuid.UUID) Account {
	return Account("owner:" + id.String())
}

// Bank is the minimal base-currency balance ledger the engine settles
// against. It stands in for the external token custody layer: every value
// transfer in the system is a Transfer between two accounts, so conservation
// can be asserted by summing balances.
type Bank struct {
	mu       sync.Mutex
	balances map[Account]*big.Int
}

func NewBank() *Bank {
	return &Bank{balances: make(map[Account]*big.Int)}
}

// Mint credits an account out of thin air. Bootstrap and tests only.
func (b *Bank) Mint(acct Account, amount *big.Int) {
	if amount.Sign() <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(acct, amount)
}

// Balance returns a copy of the account balance.
func (b *Bank) Balance(acct Account) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur, ok := b.balances[acct]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(cur)
}

// Transfer moves amount from one account to another. Zero transfers are
// no-ops; negative amounts are rejected. Fails without any effect if the
// source balance is insufficient.
func (b *Bank) Transfer(from, to Account, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("transfer amount must be >= 0, got %s", amount)
	}
	if amount.Sign() == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cur, ok := b.balances[from]
	if !ok || cur.Cmp(amount) < 0 {
		return fmt.Errorf("%w: account %s has %s, needs %s", ErrInsufficientFunds, from, b.balanceLocked(from), amount)
	}

	cur.Sub(cur, amount)
	b.credit(to, amount)
	return nil
}

func (b *Bank) credit(acct Account, amount *big.Int) {
	cur, ok := b.balances[acct]
	if !ok {
		cur = new(big.Int)
		b.balances[acct] = cur
	}
	cur.Add(cur, amount)
}

func (b *Bank) balanceLocked(acct Account) *big.Int {
	cur, ok := b.balances[acct]
	if !ok {
		return new(big.Int)
	}
	return cur
}

// TotalSupply sums all balances. Invariant checks only.
func (b *Bank) TotalSupply() *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := new(big.Int)
	for _, v := range b.balances {
		total.Add(total, v)
	}
	return total
}
