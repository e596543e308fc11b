package steps

import "github.com/kuitang/storefront-e2e/internal/cart"

func cartSnapshot(total int) cart.Snapshot {
	return cart.Snapshot{
		Rows: []cart.Row{
			{Product: "Blue Top", UnitPrice: 500, Quantity: 1, Total: 500},
			{Product: "Men Tshirt", UnitPrice: 400, Quantity: 1, Total: 400},
		},
		GrandTotal: &total,
	}
}
