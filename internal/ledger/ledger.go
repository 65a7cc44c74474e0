// Package ledger provides atomic resource accounting for planets and
// empires. Debits are check-and-apply in one step under a per-actor lock, so
// no caller can observe a balance that passed the check but was drained by a
// concurrent debit before the apply.
package ledger

import (
	"fmt"
	"sync"

	"github.com/talgya/voidtrader/internal/empire"
)

// Account is anything holding a three-pool balance the ledger can move.
// Both *empire.Planet and *empire.Empire satisfy it.
type Account interface {
	Balance() empire.Amounts
	SetBalance(empire.Amounts)
	// LedgerKey uniquely names the account for lock serialization.
	LedgerKey() string
}

// Ledger serializes balance mutations per account.
type Ledger struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{locks: make(map[string]*sync.Mutex)}
}

func (l *Ledger) lockFor(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

// TryDebit atomically checks and removes amt from the account. Returns
// ErrInsufficientResources (and leaves the balance untouched) if any pool
// would go negative, and ErrInvalidRange if amt itself is negative.
func (l *Ledger) TryDebit(acct Account, amt empire.Amounts) error {
	if amt.Negative() {
		return fmt.Errorf("debit %s: negative amount: %w", acct.LedgerKey(), empire.ErrInvalidRange)
	}

	m := l.lockFor(acct.LedgerKey())
	m.Lock()
	defer m.Unlock()

	bal := acct.Balance()
	if !bal.Covers(amt) {
		return fmt.Errorf("debit %s: %w", acct.LedgerKey(), empire.ErrInsufficientResources)
	}
	acct.SetBalance(bal.Sub(amt))
	return nil
}

// Credit adds amt to the account. Credits always succeed and commute with
// concurrent credits to the same account. Negative amounts are rejected with
// ErrInvalidRange rather than silently becoming debits.
func (l *Ledger) Credit(acct Account, amt empire.Amounts) error {
	if amt.Negative() {
		return fmt.Errorf("credit %s: negative amount: %w", acct.LedgerKey(), empire.ErrInvalidRange)
	}

	m := l.lockFor(acct.LedgerKey())
	m.Lock()
	defer m.Unlock()

	acct.SetBalance(acct.Balance().Add(amt))
	return nil
}

// Transfer debits amt from one account and credits it to another as a single
// logical move. On a failed debit nothing changes on either side.
func (l *Ledger) Transfer(from, to Account, amt empire.Amounts) error {
	if err := l.TryDebit(from, amt); err != nil {
		return err
	}
	return l.Credit(to, amt)
}
