package points

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/merchstore/go-points-orders/internal/store"
)

// LoadAccount reads a user's account, defaulting to a zero balance for users
// never seeded. Callers mutating the account must hold its key lock.
func LoadAccount(ctx context.Context, st store.Store, userID string) (Account, error) {
	b, err := st.Get(ctx, store.BucketAccounts, userID)
	if errors.Is(err, store.ErrNotFound) {
		return Account{UserID: userID}, nil
	}
	if err != nil {
		return Account{}, err
	}
	var acc Account
	if err := json.Unmarshal(b, &acc); err != nil {
		return Account{}, err
	}
	return acc, nil
}

func SaveAccount(ctx context.Context, st store.Store, acc Account) error {
	b, err := json.Marshal(acc)
	if err != nil {
		return err
	}
	return st.Put(ctx, store.BucketAccounts, acc.UserID, b)
}

func AppendLedger(ctx context.Context, st store.Store, e LedgerEntry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return st.Append(ctx, store.BucketLedger, b)
}

// LedgerFor returns every ledger entry for one user in append order.
func LedgerFor(ctx context.Context, st store.Store, userID string) ([]LedgerEntry, error) {
	raw, err := st.Log(ctx, store.BucketLedger)
	if err != nil {
		return nil, err
	}
	var out []LedgerEntry
	for _, b := range raw {
		var e LedgerEntry
		if err := json.Unmarshal(b, &e); err != nil {
			return nil, err
		}
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Seed writes balances for accounts that do not exist yet. Already-present
// accounts keep their balance; no ledger entries are produced, seeds are the
// baseline the ledger reconciles against.
func Seed(ctx context.Context, st store.Store, balances map[string]int) error {
	for uid, bal := range balances {
		_, err := st.Get(ctx, store.BucketAccounts, uid)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := SaveAccount(ctx, st, Account{UserID: uid, Balance: bal}); err != nil {
			return err
		}
	}
	return nil
}
