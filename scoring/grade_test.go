package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLetter(t *testing.T) {
	testCases := []struct {
		score    float64
		expected string
	}{
		{100, "A"}, {80, "A"}, {79.9, "B"}, {60, "B"}, {59.9, "C"},
		{40, "C"}, {39.9, "D"}, {20, "D"}, {19.9, "E"}, {0, "E"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Letter(tc.score), "score %v", tc.score)
	}
}

func TestRuleBased_LowImpactWithLabels(t *testing.T) {
	r := RuleBased(Request{
		ProductName: "Jus local",
		TotalCO2:    0.3, TotalWater: 15, TotalEnergy: 0.8,
		HasBioLabel: true, HasRecyclable: true, HasLocalLabel: true,
	})
	assert.Equal(t, 100.0, r.Score)
	assert.Equal(t, "A", r.Letter)
	assert.Equal(t, 0.7, r.Confidence)
	assert.Equal(t, RuleModelName, r.ModelUsed)
	assert.Equal(t, "Jus local", r.ProductName)
}

func TestRuleBased_HighImpactSaturates(t *testing.T) {
	r := RuleBased(Request{TotalCO2: 15, TotalWater: 800, TotalEnergy: 70})
	assert.Equal(t, 0.0, r.Score)
	assert.Equal(t, "E", r.Letter)
}

func TestRuleBased_HalfCeilings(t *testing.T) {
	r := RuleBased(Request{TotalCO2: 5, TotalWater: 250, TotalEnergy: 25})
	assert.Equal(t, 50.0, r.Score)
	assert.Equal(t, "C", r.Letter)

	r = RuleBased(Request{TotalCO2: 5, TotalWater: 250, TotalEnergy: 25, HasBioLabel: true})
	assert.Equal(t, 55.0, r.Score)
}

func TestRuleBased_CustomCeilings(t *testing.T) {
	r := RuleBased(Request{TotalCO2: 5, TotalWater: 250, TotalEnergy: 25, MaxCO2Ref: 20, MaxWaterRef: 1000, MaxEnergyRef: 100})
	assert.Equal(t, 75.0, r.Score)
	assert.Equal(t, "B", r.Letter)
}

func TestRuleBased_NegativeTotalsClampToZeroRatio(t *testing.T) {
	r := RuleBased(Request{TotalCO2: -3, TotalWater: -10, TotalEnergy: -1})
	assert.Equal(t, 100.0, r.Score)
}

func TestRuleBased_LetterFromUnroundedScore(t *testing.T) {
	r := RuleBased(Request{TotalCO2: 4.008})
	assert.Equal(t, 80.0, r.Score)
	assert.Equal(t, "B", r.Letter)
}

func TestExplain(t *testing.T) {
	req := Request{TotalCO2: 5, TotalWater: 250, TotalEnergy: 25, TransportKm: 200, PackagingType: "plastic"}
	r := RuleBased(req)
	assert.Equal(t,
		"Score C (50/100) calculé par rule-based. Basé sur CO₂=5kg, Eau=250L, Énergie=25MJ, Transport=200km, Emballage=plastic.",
		Explain(req, r))
}
