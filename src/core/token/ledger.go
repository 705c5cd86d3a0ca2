// Package token implements the account ledger: spendable balances, escrowed
// stakes keyed by purpose tag, and the delegated-spend allowance table.
package token

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrUnauthorizedRelease   = errors.New("unauthorized stake release")
	ErrInvalidAmount         = errors.New("amount must be positive")
)

// Authority names the component allowed to release stakes under a purpose
// namespace. The namespace is the tag text before the first colon, so
// "model:7" belongs to AuthorityRegistry and "governance" to
// AuthorityGovernance.
type Authority string

const (
	AuthorityGovernance Authority = "governance"
	AuthorityRegistry   Authority = "model"
)

// Account holds one participant's token state. Accounts are created on first
// receipt and never destroyed, only zeroed.
type Account struct {
	Address    string
	Spendable  uint64
	Staked     map[string]uint64 // purpose tag -> escrowed amount
	Allowances map[string]uint64 // spender -> approved remainder
}

// Ledger is the token custody ledger. It is not safe for concurrent use; the
// owning facade serializes access.
type Ledger struct {
	accounts map[string]*Account
	supply   uint64
}

func NewLedger() *Ledger {
	return &Ledger{accounts: make(map[string]*Account)}
}

func (l *Ledger) account(addr string) *Account {
	a, ok := l.accounts[addr]
	if !ok {
		a = &Account{
			Address:    addr,
			Staked:     make(map[string]uint64),
			Allowances: make(map[string]uint64),
		}
		l.accounts[addr] = a
	}
	return a
}

// Mint issues new tokens to addr, creating the account if needed.
func (l *Ledger) Mint(addr string, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	l.account(addr).Spendable += amount
	l.supply += amount
	l.checkConservation()
	return nil
}

// Transfer moves spendable tokens between accounts. Both sides are updated
// or neither.
func (l *Ledger) Transfer(from, to string, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	src := l.account(from)
	if src.Spendable < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, src.Spendable, amount)
	}
	src.Spendable -= amount
	l.account(to).Spendable += amount
	l.checkConservation()
	return nil
}

// Approve sets the amount spender may move out of owner's spendable balance.
// Re-approval overwrites the previous cap.
func (l *Ledger) Approve(owner, spender string, amount uint64) {
	l.account(owner).Allowances[spender] = amount
}

// Allowance reports the remaining approved amount for spender on owner.
func (l *Ledger) Allowance(owner, spender string) uint64 {
	a, ok := l.accounts[owner]
	if !ok {
		return 0
	}
	return a.Allowances[spender]
}

// TransferFrom moves tokens from `from` to `to` on behalf of spender,
// consuming allowance.
func (l *Ledger) TransferFrom(spender, from, to string, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	src := l.account(from)
	if src.Allowances[spender] < amount {
		return fmt.Errorf("%w: approved %d, need %d", ErrInsufficientAllowance, src.Allowances[spender], amount)
	}
	if src.Spendable < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, src.Spendable, amount)
	}
	src.Allowances[spender] -= amount
	src.Spendable -= amount
	l.account(to).Spendable += amount
	l.checkConservation()
	return nil
}

// Stake escrows spendable tokens under a purpose tag.
func (l *Ledger) Stake(addr, purpose string, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	a := l.account(addr)
	if a.Spendable < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, a.Spendable, amount)
	}
	a.Spendable -= amount
	a.Staked[purpose] += amount
	l.checkConservation()
	return nil
}

// ReleaseStake returns escrowed tokens to the spendable balance. Only the
// authority owning the purpose namespace may release.
func (l *Ledger) ReleaseStake(addr, purpose string, amount uint64, by Authority) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if purposeAuthority(purpose) != by {
		return fmt.Errorf("%w: %q is not releasable by %q", ErrUnauthorizedRelease, purpose, by)
	}
	a := l.account(addr)
	if a.Staked[purpose] < amount {
		return fmt.Errorf("%w: staked %d under %q, need %d", ErrInsufficientBalance, a.Staked[purpose], purpose, amount)
	}
	a.Staked[purpose] -= amount
	if a.Staked[purpose] == 0 {
		delete(a.Staked, purpose)
	}
	a.Spendable += amount
	l.checkConservation()
	return nil
}

func purposeAuthority(purpose string) Authority {
	if i := strings.IndexByte(purpose, ':'); i >= 0 {
		return Authority(purpose[:i])
	}
	return Authority(purpose)
}

// BalanceOf reports the spendable balance. Unknown accounts read as zero.
func (l *Ledger) BalanceOf(addr string) uint64 {
	if a, ok := l.accounts[addr]; ok {
		return a.Spendable
	}
	return 0
}

// StakedOf reports the amount escrowed under one purpose tag.
func (l *Ledger) StakedOf(addr, purpose string) uint64 {
	if a, ok := l.accounts[addr]; ok {
		return a.Staked[purpose]
	}
	return 0
}

// TotalSupply reports all tokens ever issued and not burned.
func (l *Ledger) TotalSupply() uint64 { return l.supply }

// checkConservation verifies spendable + staked across all accounts equals
// the issued supply. A mismatch means ledger code lost or fabricated tokens,
// so it panics rather than returning an error.
func (l *Ledger) checkConservation() {
	var sum uint64
	for _, a := range l.accounts {
		sum += a.Spendable
		for _, s := range a.Staked {
			sum += s
		}
	}
	if sum != l.supply {
		panic(fmt.Sprintf("token ledger conservation violated: accounts hold %d, supply is %d", sum, l.supply))
	}
}
