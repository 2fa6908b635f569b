package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreTiers(t *testing.T) {
	tests := []struct {
		amount float64
		want   int
	}{
		{500, 1},
		{9_999.99, 1},
		{10_000, 2},
		{49_999, 2},
		{75_000, 3},
		{100_000, 5},
		{499_999, 5},
		{500_000, 7},
		{1_000_000, 8},
		{5_000_000, 9},
		{9_999_999, 9},
		{10_000_000, 10},
		{250_000_000, 10},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Score(tt.amount, 0, 0), "amount %v", tt.amount)
	}
}

func TestScoreHistoryAdjustments(t *testing.T) {
	assert.Equal(t, 3, Score(75_000, 5, 0), "five prior claims is not frequent")
	assert.Equal(t, 4, Score(75_000, 6, 0))
	assert.Equal(t, 4, Score(75_000, 0, 1))
	assert.Equal(t, 5, Score(75_000, 6, 1), "both adjustments apply independently")
	assert.Equal(t, 10, Score(9_000_000, 6, 1), "capped")
}

func TestScoreCapsAtTenForLargeFrequentClaimant(t *testing.T) {
	assert.Equal(t, 10, Score(12_000_000, 6, 1))
}

func TestScoreMonotonicInAmount(t *testing.T) {
	histories := [][2]int{{0, 0}, {6, 0}, {0, 2}, {7, 3}}
	for _, h := range histories {
		prev := 0
		for amount := 0.0; amount <= 20_000_000; amount += 12_500 {
			got := Score(amount, h[0], h[1])
			assert.GreaterOrEqual(t, got, prev, "amount %v history %v", amount, h)
			assert.LessOrEqual(t, got, MaxScore)
			prev = got
		}
	}
}
