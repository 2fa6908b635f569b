// Package risk scores a claim from its amount and the filing customer's
// claim history. The score is computed once, before the claim is inserted.
package risk

// Amount tiers; each bound is exclusive (an amount equal to the bound falls
// into the next tier).
var tiers = []struct {
	below float64
	score int
}{
	{10_000, 1},
	{50_000, 2},
	{100_000, 3},
	{500_000, 5},
	{1_000_000, 7},
	{5_000_000, 8},
	{10_000_000, 9},
}

const (
	MaxScore = 10

	// FrequentClaimantThreshold is the number of prior claims above which a
	// customer is treated as a frequent claimant.
	FrequentClaimantThreshold = 5
)

// Score maps an amount and history to an integer in [1, 10].
func Score(amount float64, customerClaimCount, customerDeclinedCount int) int {
	score := MaxScore
	for _, t := range tiers {
		if amount < t.below {
			score = t.score
			break
		}
	}

	if customerClaimCount > FrequentClaimantThreshold {
		score = min(MaxScore, score+1)
	}
	if customerDeclinedCount > 0 {
		score = min(MaxScore, score+1)
	}
	return score
}
