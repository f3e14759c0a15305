package readclient

import "github.com/google/uuid"

// View is the reconciliation of one Snapshot.
//
// Pending products have no order yet; with an at-least-once transport that
// is normal for a short while and permanent only if the event was lost.
// Duplicated maps a product id to its order count when that count exceeds
// one (redelivery). Orphans are orders whose product is not listed, either
// direct orders for unknown products or events that beat the product read.
type View struct {
	Products   int
	Orders     int
	Pending    []Product
	Duplicated map[uuid.UUID]int
	Orphans    []Order
}

// Reconcile compares products and orders in s.
func Reconcile(s Snapshot) View {
	counts := make(map[uuid.UUID]int, len(s.Orders))
	for _, o := range s.Orders {
		counts[o.ProductID]++
	}

	known := make(map[uuid.UUID]struct{}, len(s.Products))
	v := View{
		Products:   len(s.Products),
		Orders:     len(s.Orders),
		Duplicated: make(map[uuid.UUID]int),
	}
	for _, p := range s.Products {
		known[p.ID] = struct{}{}
		switch n := counts[p.ID]; {
		case n == 0:
			v.Pending = append(v.Pending, p)
		case n > 1:
			v.Duplicated[p.ID] = n
		}
	}
	for _, o := range s.Orders {
		if _, ok := known[o.ProductID]; !ok {
			v.Orphans = append(v.Orphans, o)
		}
	}
	return v
}

// Settled reports whether every product has exactly one order and there are
// no orphans.
func (v View) Settled() bool {
	return len(v.Pending) == 0 && len(v.Duplicated) == 0 && len(v.Orphans) == 0
}
