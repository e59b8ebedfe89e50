package services

import (
	"math"

	"github.com/larsjuhl/kantine-kiosk/models"
)

// TotalPrice derives the cart total by joining quantities against the
// current catalog. Items that have vanished from the catalog since they were
// carted contribute zero; a stale cart must never error. Each line is
// rounded to the smallest currency unit so repeated recomputation cannot
// accumulate float drift.
func TotalPrice(cart models.Cart, products []models.Product, options []models.Option) float64 {
	productPrices := make(map[string]float64, len(products))
	for _, p := range products {
		productPrices[p.ID] = p.Price
	}
	optionPrices := make(map[string]float64, len(options))
	for _, o := range options {
		optionPrices[o.ID] = o.Price
	}

	var total float64
	for id, quantity := range cart.Products {
		total += roundLine(productPrices[id] * float64(quantity))
	}
	for id, quantity := range cart.Options {
		total += roundLine(optionPrices[id] * float64(quantity))
	}
	return total
}

func roundLine(amount float64) float64 {
	return math.Round(amount*100) / 100
}
