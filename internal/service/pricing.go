package service

import (
	"errors"

	"github.com/shopspring/decimal"
)

// TaxRate is added on top of the ticket price and charged to the buyer.
var TaxRate = decimal.RequireFromString("0.05")

var ErrInvalidPrice = errors.New("invalid ticket price")

var hundred = decimal.NewFromInt(100)

// Quote is the price breakdown of one checkout. PerTicket and UnitAmountMinor
// include tax; the provider charges UnitAmountMinor × Quantity.
type Quote struct {
	UnitPrice       decimal.Decimal
	Quantity        int
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	PerTicket       decimal.Decimal
	UnitAmountMinor int64
}

func ComputePrice(unitPrice decimal.Decimal, qty int) (Quote, error) {
	if !unitPrice.IsPositive() || qty <= 0 {
		return Quote{}, ErrInvalidPrice
	}
	q := decimal.NewFromInt(int64(qty))
	subtotal := unitPrice.Mul(q)
	tax := subtotal.Mul(TaxRate)
	total := subtotal.Add(tax)
	perTicket := total.Div(q)

	return Quote{
		UnitPrice:       unitPrice,
		Quantity:        qty,
		Subtotal:        subtotal,
		Tax:             tax,
		Total:           total,
		PerTicket:       perTicket,
		UnitAmountMinor: perTicket.Mul(hundred).Round(0).IntPart(),
	}, nil
}

// ParsePrice parses a decimal amount such as "20.00". Anything non-numeric
// or not strictly positive is ErrInvalidPrice.
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, ErrInvalidPrice
	}
	return d, nil
}

// FromMinorUnits converts an amount in the smallest currency unit to a
// two-decimal amount.
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}
