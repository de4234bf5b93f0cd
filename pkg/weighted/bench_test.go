package weighted

import (
	"testing"

	"github.com/shopspring/decimal"
)

func BenchmarkPow(b *testing.B) {
	base := decimal.RequireFromString("0.9523809523809523809523809523809523")
	exponent := decimal.RequireFromString("0.25")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Pow(base, exponent)
	}
}

func BenchmarkCalcOutGivenIn(b *testing.B) {
	balanceIn := decimal.RequireFromString("13451234567890")
	balanceOut := decimal.RequireFromString("98765432109876")
	weightIn := decimal.RequireFromString("8")
	weightOut := decimal.RequireFromString("2")
	in := decimal.NewFromInt(1_000_000)
	fee := decimal.RequireFromString("0.003")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = CalcOutGivenIn(balanceIn, weightIn, balanceOut, weightOut, in, fee)
	}
}

func BenchmarkCalcPoolOutGivenSingleIn(b *testing.B) {
	balanceIn := decimal.RequireFromString("13451234567890")
	supply := decimal.RequireFromString("100000000000000000000")
	in := decimal.NewFromInt(1_000_000)
	fee := decimal.RequireFromString("0.003")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = CalcPoolOutGivenSingleIn(balanceIn, decimal.NewFromInt(1), supply, decimal.NewFromInt(2), in, fee)
	}
}
