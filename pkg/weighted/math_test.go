package weighted

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcSpotPrice(t *testing.T) {
	tests := []struct {
		name                       string
		balanceIn, weightIn        string
		balanceOut, weightOut, fee string
		want                       string
	}{
		{name: "equal weights", balanceIn: "100", weightIn: "1", balanceOut: "100", weightOut: "1", fee: "0", want: "1"},
		{name: "fee scales price", balanceIn: "100", weightIn: "1", balanceOut: "100", weightOut: "1", fee: "0.5", want: "2"},
		{name: "unbalanced reserves", balanceIn: "300", weightIn: "1", balanceOut: "100", weightOut: "1", fee: "0", want: "3"},
		{name: "weights offset reserves", balanceIn: "800", weightIn: "8", balanceOut: "200", weightOut: "2", fee: "0", want: "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalcSpotPrice(d(tt.balanceIn), d(tt.weightIn), d(tt.balanceOut), d(tt.weightOut), d(tt.fee))
			require.NoError(t, err)
			assert.Truef(t, got.Equal(d(tt.want)), "want %s, got %s", tt.want, got)
		})
	}
}

func TestCalcOutGivenIn_EqualWeightsIsConstantProduct(t *testing.T) {
	got, err := CalcOutGivenIn(d("100"), d("1"), d("100"), d("1"), d("10"), decimal.Zero)
	require.NoError(t, err)

	// 100 - 100*100/110
	want := d("100").Sub(d("10000").DivRound(d("110"), 40))
	requireClose(t, want, got, "1e-30")
}

func TestCalcOutGivenIn_IntegerWeightRatio(t *testing.T) {
	got, err := CalcOutGivenIn(d("100"), d("2"), d("100"), d("1"), d("10"), decimal.Zero)
	require.NoError(t, err)

	// 100 * (1 - (100/110)^2)
	want := d("100").Sub(d("1000000").DivRound(d("12100"), 40))
	requireClose(t, want, got, "1e-30")
}

func TestCalcOutGivenIn_FractionalWeightRatio(t *testing.T) {
	got, err := CalcOutGivenIn(d("100"), d("1"), d("100"), d("4"), d("10"), d("0.003"))
	require.NoError(t, err)

	want := 100 * (1 - math.Pow(100/(100+10*0.997), 0.25))
	assert.InDelta(t, want, got.InexactFloat64(), 1e-12)
	assert.True(t, got.LessThan(d("100")))
}

func TestCalcOutGivenIn_Monotonic(t *testing.T) {
	prev := decimal.Zero
	for _, amount := range []string{"0.001", "1", "5", "10", "50", "1000", "1000000"} {
		got, err := CalcOutGivenIn(d("100"), d("3"), d("250"), d("7"), d(amount), d("0.003"))
		require.NoError(t, err)
		require.Truef(t, got.GreaterThan(prev), "amount %s: %s <= %s", amount, got, prev)
		require.Truef(t, got.LessThan(d("250")), "amount %s drains the reserve: %s", amount, got)
		prev = got
	}
}

func TestCalcOutGivenIn_FeeDecreasesOutput(t *testing.T) {
	prev, err := CalcOutGivenIn(d("100"), d("1"), d("100"), d("1"), d("10"), decimal.Zero)
	require.NoError(t, err)
	for _, fee := range []string{"0.0001", "0.003", "0.01", "0.1", "0.99"} {
		got, err := CalcOutGivenIn(d("100"), d("1"), d("100"), d("1"), d("10"), d(fee))
		require.NoError(t, err)
		require.Truef(t, got.LessThan(prev), "fee %s: %s >= %s", fee, got, prev)
		prev = got
	}
}

func TestCalcInGivenOut_Monotonic(t *testing.T) {
	prev := decimal.Zero
	for _, amount := range []string{"0.001", "1", "10", "50", "90", "99", "99.9999"} {
		got, err := CalcInGivenOut(d("100"), d("2"), d("100"), d("3"), d(amount), d("0.003"))
		require.NoError(t, err)
		require.Truef(t, got.GreaterThan(prev), "amount %s: %s <= %s", amount, got, prev)
		prev = got
	}
	// Draining approaches an unbounded cost.
	assert.True(t, prev.GreaterThan(d("1000000000")))
}

func TestCalcInGivenOut_FeeIncreasesInput(t *testing.T) {
	prev, err := CalcInGivenOut(d("100"), d("1"), d("100"), d("1"), d("10"), decimal.Zero)
	require.NoError(t, err)
	for _, fee := range []string{"0.0001", "0.003", "0.01", "0.1", "0.99"} {
		got, err := CalcInGivenOut(d("100"), d("1"), d("100"), d("1"), d("10"), d(fee))
		require.NoError(t, err)
		require.Truef(t, got.GreaterThan(prev), "fee %s: %s <= %s", fee, got, prev)
		prev = got
	}
}

func TestCalcInGivenOut_InvertsCalcOutGivenIn(t *testing.T) {
	tests := []struct {
		name                string
		weightIn, weightOut string
		fee                 string
	}{
		{name: "equal weights", weightIn: "1", weightOut: "1", fee: "0"},
		{name: "80/20", weightIn: "8", weightOut: "2", fee: "0"},
		{name: "30/70", weightIn: "0.3", weightOut: "0.7", fee: "0"},
		{name: "with fee", weightIn: "2", weightOut: "1", fee: "0.003"},
	}
	amountIn := d("10")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := CalcOutGivenIn(d("1000"), d(tt.weightIn), d("500"), d(tt.weightOut), amountIn, d(tt.fee))
			require.NoError(t, err)

			in, err := CalcInGivenOut(d("1000"), d(tt.weightIn), d("500"), d(tt.weightOut), out, d(tt.fee))
			require.NoError(t, err)
			requireClose(t, amountIn, in, "1e-20")
		})
	}
}

func TestCalcInGivenOut_DrainingFails(t *testing.T) {
	for _, amount := range []string{"100", "100.000001", "1000"} {
		_, err := CalcInGivenOut(d("100"), d("1"), d("100"), d("1"), d(amount), decimal.Zero)
		require.ErrorIs(t, err, ErrInvariantViolation, "amount %s", amount)
	}
}

func TestCalcPoolOutGivenSingleIn_SingleAssetPool(t *testing.T) {
	got, err := CalcPoolOutGivenSingleIn(d("100"), d("5"), d("1000"), d("5"), d("10"), d("0.3"))
	require.NoError(t, err)
	assert.Truef(t, got.Equal(d("100")), "got %s", got)

	// poolSupply * amountIn / balanceIn, whatever the fee.
	got, err = CalcPoolOutGivenSingleIn(d("3"), d("1"), d("7"), d("1"), d("1"), d("0.9"))
	require.NoError(t, err)
	requireClose(t, d("7").DivRound(d("3"), 40), got, "1e-30")
}

func TestCalcPoolOutGivenSingleIn_HalfWeight(t *testing.T) {
	got, err := CalcPoolOutGivenSingleIn(d("100"), d("1"), d("1000"), d("2"), d("10"), d("0.01"))
	require.NoError(t, err)

	// Half of the deposit pays the fee: 10 * (1 - 0.5*0.01) = 9.95.
	want := 1000*math.Sqrt(109.95/100) - 1000
	assert.InDelta(t, want, got.InexactFloat64(), 1e-9)
}

func TestCalcPoolOutGivenSingleIn_FeeDecreasesShares(t *testing.T) {
	prev, err := CalcPoolOutGivenSingleIn(d("100"), d("1"), d("1000"), d("4"), d("10"), decimal.Zero)
	require.NoError(t, err)
	require.True(t, prev.IsPositive())
	for _, fee := range []string{"0.001", "0.01", "0.1"} {
		got, err := CalcPoolOutGivenSingleIn(d("100"), d("1"), d("1000"), d("4"), d("10"), d(fee))
		require.NoError(t, err)
		require.Truef(t, got.LessThan(prev), "fee %s: %s >= %s", fee, got, prev)
		prev = got
	}
}

func TestZeroAmountYieldsZero(t *testing.T) {
	out, err := CalcOutGivenIn(d("100"), d("1"), d("50"), d("3"), decimal.Zero, d("0.003"))
	require.NoError(t, err)
	assert.True(t, out.IsZero(), "out given in: %s", out)

	in, err := CalcInGivenOut(d("100"), d("1"), d("50"), d("3"), decimal.Zero, d("0.003"))
	require.NoError(t, err)
	assert.True(t, in.IsZero(), "in given out: %s", in)

	shares, err := CalcPoolOutGivenSingleIn(d("100"), d("1"), d("1000"), d("3"), decimal.Zero, d("0.003"))
	require.NoError(t, err)
	assert.True(t, shares.IsZero(), "pool out: %s", shares)
}

func TestInvalidDomainInput(t *testing.T) {
	tests := []struct {
		name string
		call func() (decimal.Decimal, error)
	}{
		{"spot zero weight in", func() (decimal.Decimal, error) {
			return CalcSpotPrice(d("100"), d("0"), d("100"), d("1"), d("0"))
		}},
		{"spot zero balance out", func() (decimal.Decimal, error) {
			return CalcSpotPrice(d("100"), d("1"), d("0"), d("1"), d("0"))
		}},
		{"spot fee of one", func() (decimal.Decimal, error) {
			return CalcSpotPrice(d("100"), d("1"), d("100"), d("1"), d("1"))
		}},
		{"out negative weight out", func() (decimal.Decimal, error) {
			return CalcOutGivenIn(d("100"), d("1"), d("100"), d("-1"), d("10"), d("0"))
		}},
		{"out negative amount", func() (decimal.Decimal, error) {
			return CalcOutGivenIn(d("100"), d("1"), d("100"), d("1"), d("-10"), d("0"))
		}},
		{"out fee above one", func() (decimal.Decimal, error) {
			return CalcOutGivenIn(d("100"), d("1"), d("100"), d("1"), d("10"), d("1.5"))
		}},
		{"out negative fee", func() (decimal.Decimal, error) {
			return CalcOutGivenIn(d("100"), d("1"), d("100"), d("1"), d("10"), d("-0.1"))
		}},
		{"out zero balance in", func() (decimal.Decimal, error) {
			return CalcOutGivenIn(d("0"), d("1"), d("100"), d("1"), d("10"), d("0"))
		}},
		{"in zero weight in", func() (decimal.Decimal, error) {
			return CalcInGivenOut(d("100"), d("0"), d("100"), d("1"), d("10"), d("0"))
		}},
		{"in negative amount", func() (decimal.Decimal, error) {
			return CalcInGivenOut(d("100"), d("1"), d("100"), d("1"), d("-1"), d("0"))
		}},
		{"in fee of one", func() (decimal.Decimal, error) {
			return CalcInGivenOut(d("100"), d("1"), d("100"), d("1"), d("10"), d("1"))
		}},
		{"join zero total weight", func() (decimal.Decimal, error) {
			return CalcPoolOutGivenSingleIn(d("100"), d("1"), d("1000"), d("0"), d("10"), d("0"))
		}},
		{"join weight above total", func() (decimal.Decimal, error) {
			return CalcPoolOutGivenSingleIn(d("100"), d("3"), d("1000"), d("2"), d("10"), d("0"))
		}},
		{"join zero balance", func() (decimal.Decimal, error) {
			return CalcPoolOutGivenSingleIn(d("0"), d("1"), d("1000"), d("2"), d("10"), d("0"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.call()
			require.ErrorIs(t, err, ErrInvalidDomainInput)
		})
	}
}

func TestConcurrentCallsAgree(t *testing.T) {
	want, err := CalcOutGivenIn(d("1234.5"), d("0.8"), d("678.9"), d("0.2"), d("12.34"), d("0.0025"))
	require.NoError(t, err)

	results := make([]decimal.Decimal, 32)
	var wg conc.WaitGroup
	for i := range results {
		i := i
		wg.Go(func() {
			results[i], _ = CalcOutGivenIn(d("1234.5"), d("0.8"), d("678.9"), d("0.2"), d("12.34"), d("0.0025"))
		})
	}
	wg.Wait()

	for i, got := range results {
		assert.Truef(t, got.Equal(want), "goroutine %d: want %s, got %s", i, want, got)
	}
}
