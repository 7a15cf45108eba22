package broker

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSizerBands(t *testing.T) {
	sizer := NewSizer(SizingRules{LowPriceLimit: 200, MidPriceLimit: 600, LowQty: 10, HighQty: 5})

	cases := []struct {
		price float64
		want  int
	}{
		{price: 150, want: 10},
		{price: 200, want: 10},
		{price: 350, want: 10},
		{price: 600, want: 10},
		{price: 600.01, want: 5},
		{price: 3500, want: 5},
		{price: 0, want: 10},
	}

	for _, tc := range cases {
		if got := sizer.QtyFor(decimal.NewFromFloat(tc.price)); got != tc.want {
			t.Fatalf("价格 %.2f 期望数量 %d, 实际 %d", tc.price, tc.want, got)
		}
	}
}
