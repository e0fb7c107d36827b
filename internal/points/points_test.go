package points

import (
	"testing"
	"time"

	"github.com/merchstore/go-points-orders/internal/fault"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestDebit(t *testing.T) {
	acc := Account{UserID: "u1", Balance: 5000}

	acc, e, err := Debit(acc, 300, ReasonOrderCreated, 1, now)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if acc.Balance != 4700 {
		t.Fatalf("balance: got %d want 4700", acc.Balance)
	}
	if e.Delta != -300 || e.Reason != ReasonOrderCreated || e.OrderID != 1 || e.UserID != "u1" {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestDebitInsufficient(t *testing.T) {
	acc := Account{UserID: "u1", Balance: 100}

	got, _, err := Debit(acc, 300, ReasonOrderCreated, 1, now)
	if !fault.Is(err, fault.InsufficientPoints) {
		t.Fatalf("expected InsufficientPoints, got %v", err)
	}
	if got.Balance != 100 {
		t.Fatalf("balance must be untouched on failure, got %d", got.Balance)
	}
	d := fault.DetailsOf(err)
	if d["balance"] != 100 || d["required"] != 300 {
		t.Fatalf("details: %+v", d)
	}
}

func TestDebitZeroStillRecorded(t *testing.T) {
	acc := Account{UserID: "u1", Balance: 50}
	acc, e, err := Debit(acc, 0, ReasonOrderCreated, 7, now)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if acc.Balance != 50 {
		t.Fatalf("balance changed on zero debit: %d", acc.Balance)
	}
	if e.Delta != 0 || e.OrderID != 7 {
		t.Fatalf("zero debit must still produce an entry: %+v", e)
	}
}

func TestDebitNegativeRejected(t *testing.T) {
	_, _, err := Debit(Account{UserID: "u1"}, -1, ReasonOrderCreated, 0, now)
	if !fault.Is(err, fault.Validation) {
		t.Fatalf("expected Validation, got %v", err)
	}
}

func TestCredit(t *testing.T) {
	acc := Account{UserID: "u2", Balance: 10}
	acc, e, err := Credit(acc, 300, ReasonOrderCancelled, 4, now)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if acc.Balance != 310 {
		t.Fatalf("balance: got %d want 310", acc.Balance)
	}
	if e.Delta != 300 || e.Reason != ReasonOrderCancelled {
		t.Fatalf("unexpected entry: %+v", e)
	}

	if _, _, err := Credit(acc, -5, ReasonOrderCancelled, 0, now); !fault.Is(err, fault.Validation) {
		t.Fatalf("expected Validation for negative credit, got %v", err)
	}
}
