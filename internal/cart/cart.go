// Package cart implements the client-held shopping cart as a pure reducer:
// an ordered list of line items whose total is derived state, recomputed
// after every transition. Nothing here touches storage; the checkout flow
// rebuilds a Cart from the submitted payload to recompute totals server-side.
package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Item struct {
	ProductID   uuid.UUID
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Quantity    int
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	Items []Item
	Total decimal.Decimal
}

func New() Cart {
	return Cart{Total: decimal.Zero}
}

// Add merges into an existing line for the same product, otherwise appends.
func (c Cart) Add(item Item) Cart {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	items := make([]Item, len(c.Items))
	copy(items, c.Items)

	merged := false
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}
	return reduce(items)
}

// UpdateQuantity sets the quantity for a product; a quantity of zero or less
// removes the line.
func (c Cart) UpdateQuantity(productID uuid.UUID, quantity int) Cart {
	if quantity <= 0 {
		return c.Remove(productID)
	}
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
		}
	}
	return reduce(items)
}

func (c Cart) Remove(productID uuid.UUID) Cart {
	items := make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		if it.ProductID != productID {
			items = append(items, it)
		}
	}
	return reduce(items)
}

func (c Cart) Clear() Cart {
	return New()
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Count is the number of units across all lines.
func (c Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func reduce(items []Item) Cart {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return Cart{Items: items, Total: total}
}
