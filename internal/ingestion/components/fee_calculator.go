package components

import (
	"github.com/shopspring/decimal"

	"github.com/payment-webhook-ledger/internal/ingestion/service"
)

var processingFeeRate = decimal.RequireFromString("0.02")

// FeeCalculator derives the processing fee and net amount of a payment
type FeeCalculator struct {
	rate decimal.Decimal
}

func NewFeeCalculator() *FeeCalculator {
	return &FeeCalculator{rate: processingFeeRate}
}

// CalculateDerivedFields rounds the fee to cents first, then subtracts it.
// Both roundings are half away from zero.
func (c *FeeCalculator) CalculateDerivedFields(amount decimal.Decimal) service.DerivedFields {
	fee := amount.Mul(c.rate).Round(2)
	net := amount.Sub(fee).Round(2)
	return service.DerivedFields{
		ProcessingFee: fee,
		NetAmount:     net,
	}
}
