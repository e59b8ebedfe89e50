package models

import "sort"

// ItemKind distinguishes the two selectable kinds a cart can hold.
type ItemKind string

const (
	ItemKindProduct ItemKind = "products"
	ItemKindOption  ItemKind = "options"
)

// Valid reports whether the kind is one of the two known kinds.
func (k ItemKind) Valid() bool {
	return k == ItemKindProduct || k == ItemKindOption
}

// Cart is the transient selection on a station. Quantities are always
// strictly positive; an item that drops to zero is removed from the map.
// Cart is a value: Change returns a fresh cart and never mutates the
// receiver, so callers can compare snapshots to detect changes.
type Cart struct {
	Products map[string]int `json:"products"`
	Options  map[string]int `json:"options"`
}

// NewCart returns an empty cart.
func NewCart() Cart {
	return Cart{
		Products: map[string]int{},
		Options:  map[string]int{},
	}
}

// Change applies delta to the quantity of the given item and returns the
// resulting cart. A missing item counts as quantity zero; a resulting
// quantity of zero or less removes the item entirely.
func (c Cart) Change(id string, kind ItemKind, delta int) Cart {
	next := Cart{
		Products: copyQuantities(c.Products),
		Options:  copyQuantities(c.Options),
	}

	var target map[string]int
	switch kind {
	case ItemKindProduct:
		target = next.Products
	case ItemKindOption:
		target = next.Options
	default:
		return next
	}

	q := target[id] + delta
	if q <= 0 {
		delete(target, id)
	} else {
		target[id] = q
	}
	return next
}

// HasSelection reports whether the cart holds at least one product. A cart
// with only options selected is not submittable; options accompany products.
func (c Cart) HasSelection() bool {
	for _, q := range c.Products {
		if q > 0 {
			return true
		}
	}
	return false
}

// OrderLine is one flattened cart entry as sent to the backend.
type OrderLine struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// Lines flattens one kind of the cart into order lines, sorted by id so the
// output is deterministic.
func (c Cart) Lines(kind ItemKind) []OrderLine {
	var src map[string]int
	switch kind {
	case ItemKindProduct:
		src = c.Products
	case ItemKindOption:
		src = c.Options
	default:
		return nil
	}

	lines := make([]OrderLine, 0, len(src))
	for id, q := range src {
		lines = append(lines, OrderLine{ID: id, Quantity: q})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines
}

func copyQuantities(src map[string]int) map[string]int {
	dst := make(map[string]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
