package inventory

import (
	"github.com/merchstore/go-points-orders/internal/catalog"
	"github.com/merchstore/go-points-orders/internal/fault"
)

// Line is a SKU plus quantity, the unit every stock operation works in.
type Line struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

// Shortage describes one line that could not be reserved.
type Shortage struct {
	SKU       string `json:"sku"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

// Reserve places a soft hold for every line, all-or-nothing: the first pass
// checks availability across the whole set against current committed state,
// the second pass increments counters. A single short SKU fails the batch
// before anything is touched, so no compensating rollback is ever needed.
// Returns the updated variants; inputs are not mutated.
func Reserve(vars map[string]catalog.Variant, lines []Line) (map[string]catalog.Variant, error) {
	var short []Shortage
	for _, l := range lines {
		v := vars[l.SKU]
		if v.Available() < l.Qty {
			short = append(short, Shortage{SKU: l.SKU, Required: l.Qty, Available: v.Available()})
		}
	}
	if len(short) > 0 {
		return nil, fault.New(fault.InsufficientStock, "shortages", short)
	}

	out := clone(vars)
	for _, l := range lines {
		v := out[l.SKU]
		v.Reserved += l.Qty
		out[l.SKU] = v
	}
	return out, nil
}

// Release drops the hold for every line, floored at zero.
func Release(vars map[string]catalog.Variant, lines []Line) map[string]catalog.Variant {
	out := clone(vars)
	for _, l := range lines {
		v := out[l.SKU]
		v.Reserved -= l.Qty
		if v.Reserved < 0 {
			v.Reserved = 0
		}
		out[l.SKU] = v
	}
	return out
}

// Consume turns a reservation into a permanent stock decrement. If the order
// never reserved, it reserves first; the documented transition graph always
// reserves on review, but the fallback keeps Consume safe on its own.
func Consume(vars map[string]catalog.Variant, lines []Line, reserved bool) (map[string]catalog.Variant, error) {
	out := vars
	if !reserved {
		var err error
		out, err = Reserve(vars, lines)
		if err != nil {
			return nil, err
		}
	} else {
		out = clone(vars)
	}
	for _, l := range lines {
		v := out[l.SKU]
		v.StockTotal -= l.Qty
		v.Reserved -= l.Qty
		if v.Reserved < 0 {
			v.Reserved = 0
		}
		out[l.SKU] = v
	}
	return out, nil
}

func clone(vars map[string]catalog.Variant) map[string]catalog.Variant {
	out := make(map[string]catalog.Variant, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	return out
}
