package service

import (
	"math"

	"github.com/shopmesh/storefront/internal/models"
)

// TaxRate is the fixed storefront-wide sales tax rate.
const TaxRate = 0.09

// Round2 rounds a monetary value to exactly two decimal places. Every
// derived amount passes through it before storage or comparison so repeated
// recomputation cannot drift.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeTotals derives subtotal, tax and total from line items, rounding
// after each derived step.
func ComputeTotals(lines []models.OrderLine) (subtotal, taxAmount, total float64) {

	for _, line := range lines {
		subtotal += line.UnitPrice * float64(line.Quantity)
	}

	subtotal = Round2(subtotal)
	taxAmount = Round2(subtotal * TaxRate)
	total = Round2(subtotal + taxAmount)

	return subtotal, taxAmount, total
}

// InverseTotals rederives subtotal and tax from an edited total. This is the
// admin-edit direction and is deliberately asymmetric from ComputeTotals:
// the subtotal is divided out of the total first and rounded, then the tax
// is the rounded remainder, so subtotal + taxAmount == total exactly.
func InverseTotals(total float64) (subtotal, taxAmount float64) {

	if total < 0 {
		total = 0
	}

	subtotal = Round2(total / (1 + TaxRate))
	taxAmount = Round2(total - subtotal)

	if taxAmount < 0 {
		taxAmount = 0
	}

	return subtotal, taxAmount
}
