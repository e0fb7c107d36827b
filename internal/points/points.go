package points

import (
	"time"

	"github.com/merchstore/go-points-orders/internal/fault"
)

// Account is a user's current points balance. Balance never goes negative;
// the ledger, not the account, is the audit trail.
type Account struct {
	UserID  string `json:"user_id"`
	Balance int    `json:"balance"`
}

// Reason codes recorded on ledger entries.
type Reason string

const (
	ReasonOrderCreated   Reason = "ORDER_CREATED"
	ReasonOrderCancelled Reason = "ORDER_CANCELLED"
)

// LedgerEntry is an immutable record of one balance change.
type LedgerEntry struct {
	TS      time.Time `json:"ts"`
	UserID  string    `json:"user_id"`
	Delta   int       `json:"delta"`
	Reason  Reason    `json:"reason"`
	OrderID int64     `json:"order_id,omitempty"`
}

// Debit returns the account with amount removed plus the matching ledger
// entry. Amount 0 is a no-op on the balance but still produces an entry.
func Debit(acc Account, amount int, reason Reason, orderID int64, now time.Time) (Account, LedgerEntry, error) {
	if amount < 0 {
		return acc, LedgerEntry{}, fault.New(fault.Validation, "amount", amount)
	}
	if acc.Balance < amount {
		return acc, LedgerEntry{}, fault.New(fault.InsufficientPoints,
			"balance", acc.Balance, "required", amount)
	}
	acc.Balance -= amount
	e := LedgerEntry{TS: now, UserID: acc.UserID, Delta: -amount, Reason: reason, OrderID: orderID}
	return acc, e, nil
}

// Credit returns the account with amount added plus the matching ledger entry.
func Credit(acc Account, amount int, reason Reason, orderID int64, now time.Time) (Account, LedgerEntry, error) {
	if amount < 0 {
		return acc, LedgerEntry{}, fault.New(fault.Validation, "amount", amount)
	}
	acc.Balance += amount
	e := LedgerEntry{TS: now, UserID: acc.UserID, Delta: amount, Reason: reason, OrderID: orderID}
	return acc, e, nil
}
