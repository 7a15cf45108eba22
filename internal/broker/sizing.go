package broker

import "github.com/shopspring/decimal"

// SizingRules 描述按触发价分档的数量规则。
type SizingRules struct {
	LowPriceLimit float64
	MidPriceLimit float64
	LowQty        int
	HighQty       int
}

// Sizer picks an order quantity from a trigger price.
type Sizer struct {
	low     decimal.Decimal
	mid     decimal.Decimal
	lowQty  int
	highQty int
}

// NewSizer materialises sizing rules.
func NewSizer(rules SizingRules) Sizer {
	return Sizer{
		low:     decimal.NewFromFloat(rules.LowPriceLimit),
		mid:     decimal.NewFromFloat(rules.MidPriceLimit),
		lowQty:  rules.LowQty,
		highQty: rules.HighQty,
	}
}

// QtyFor returns the quantity for one order. The low and mid bands
// currently share a quantity. A missing trigger price sizes as zero and
// lands in the lowest band.
func (s Sizer) QtyFor(price decimal.Decimal) int {
	switch {
	case price.LessThanOrEqual(s.low):
		return s.lowQty
	case price.LessThanOrEqual(s.mid):
		return s.lowQty
	default:
		return s.highQty
	}
}
