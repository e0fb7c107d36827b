package orders

import (
	"sort"

	"github.com/merchstore/go-points-orders/internal/fault"
)

type Status string

const (
	StatusNew            Status = "NEW"
	StatusUnderReview    Status = "UNDER_REVIEW"
	StatusAssembling     Status = "ASSEMBLING"
	StatusReadyForPickup Status = "READY_FOR_PICKUP"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
)

var validNext = map[Status]map[Status]bool{
	StatusNew:            {StatusUnderReview: true, StatusCancelled: true},
	StatusUnderReview:    {StatusAssembling: true, StatusCancelled: true},
	StatusAssembling:     {StatusReadyForPickup: true},
	StatusReadyForPickup: {StatusCompleted: true},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

// Cancellation is only permitted before assembly starts. The same guard
// covers the admin transition and the buyer cancel path.
var cancelAllowed = map[Status]bool{
	StatusNew:         true,
	StatusUnderReview: true,
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func CanCancelFrom(s Status) bool { return cancelAllowed[s] }

// AllowedNext lists the legal targets from a status, sorted for stable
// error details.
func AllowedNext(from Status) []Status {
	next := validNext[from]
	out := make([]Status, 0, len(next))
	for s := range next {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseStatus validates an externally supplied status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := validNext[st]; !ok {
		return "", fault.New(fault.Validation, "status", s)
	}
	return st, nil
}
