package imputer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghassane04/EcoLabel-MS/lca"
)

func TestDefaultDataset(t *testing.T) {
	samples, err := DefaultDataset()
	require.NoError(t, err)
	assert.Len(t, samples, 240)
	assert.NotEmpty(t, samples[0].Features.PackagingType)
}

func TestReadDataset_MissingColumn(t *testing.T) {
	_, err := ReadDataset(strings.NewReader("num_ingredients,total_weight_kg\n1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manquante")
}

func TestReadDataset_BadNumber(t *testing.T) {
	csv := strings.Join(datasetColumns, ",") + "\n" + "x,1,0,0,1,glass,0.1,10,1.0\n"
	_, err := ReadDataset(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ligne 2")
}

func TestTrain_FitsSyntheticDataset(t *testing.T) {
	samples, err := DefaultDataset()
	require.NoError(t, err)

	m, err := Train(samples, DefaultTrainOptions())
	require.NoError(t, err)
	assert.Equal(t, 48, m.TestSize)
	assert.Equal(t, 192, m.TrainSize)
	assert.Len(t, m.Coefficients, len(FeatureNames))
	assert.Greater(t, m.Metrics.R2, 0.5)
	assert.Greater(t, m.Metrics.RMSE, 0.0)
	assert.Equal(t, []string{"aluminum", "cardboard", "glass", "paper", "plastic"}, m.PackagingClasses)

	meat := lca.Features{NumIngredients: 4, TotalWeightKg: 1.5, HasMeat: true, PackagingType: "plastic", PackagingWeightKg: 0.2, TransportKm: 300}
	veg := meat
	veg.HasMeat = false
	veg.HasVegetables = true
	assert.Greater(t, m.Predict(meat), m.Predict(veg))
}

func TestTrain_TooFewSamples(t *testing.T) {
	_, err := Train(make([]Sample, 3), DefaultTrainOptions())
	assert.Error(t, err)
}

func TestEstimateCO2_ClampsAndRounds(t *testing.T) {
	m := &Model{
		PackagingClasses: []string{"glass", "plastic"},
		Coefficients:     []float64{-5, 0, 0, 0, 0, 0, 0, 0, 0},
	}
	est, err := m.EstimateCO2(lca.Features{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, est.CO2Kg)

	m.Coefficients = []float64{1.23456, 0, 0, 0, 0, 0, 1, 0, 0}
	est, err = m.EstimateCO2(lca.Features{PackagingType: "plastic"})
	require.NoError(t, err)
	assert.Equal(t, 2.235, est.CO2Kg)

	// classe inconnue encodée à 0
	est, err = m.EstimateCO2(lca.Features{PackagingType: "bamboo"})
	require.NoError(t, err)
	assert.Equal(t, 1.235, est.CO2Kg)
}

func TestEstimateCO2_NilModel(t *testing.T) {
	var m *Model
	_, err := m.EstimateCO2(lca.Features{})
	assert.ErrorIs(t, err, lca.ErrEstimationUnavailable)
}

func TestConfidence(t *testing.T) {
	testCases := []struct {
		name     string
		f        lca.Features
		expected float64
	}{
		{"base", lca.Features{HasDairy: true}, 0.85},
		{"meat", lca.Features{HasMeat: true}, 0.90},
		{"vegetables only", lca.Features{HasVegetables: true}, 0.88},
		{"vegetables and dairy", lca.Features{HasVegetables: true, HasDairy: true}, 0.85},
		{"long transport", lca.Features{HasMeat: true, TransportKm: 1500}, 0.80},
		{"heavy", lca.Features{TotalWeightKg: 3.5}, 0.75},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Confidence(tc.f), tc.name)
	}
}

func TestLoadOrTrain_SavesThenLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "co2_imputer.json")

	m, trained, err := LoadOrTrain(path)
	require.NoError(t, err)
	assert.True(t, trained)
	_, err = os.Stat(path)
	require.NoError(t, err)

	again, trained, err := LoadOrTrain(path)
	require.NoError(t, err)
	assert.False(t, trained)
	assert.Equal(t, m.Coefficients, again.Coefficients)
	assert.Equal(t, m.PackagingClasses, again.PackagingClasses)
}

func TestLoad_CorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{\"coefficients\":[1,2]}"), 0o644))
	_, _, err := LoadOrTrain(path)
	assert.Error(t, err)
}
