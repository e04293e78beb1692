package scoring

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDataset(t *testing.T) {
	samples, err := DefaultDataset()
	require.NoError(t, err)
	assert.Len(t, samples, 400)
}

func TestReadDataset_UnknownGrade(t *testing.T) {
	csv := strings.Join(datasetColumns, ",") + "\n" + "1,1,1,glass,0.1,10,0,0,0,fresh,Z\n"
	_, err := ReadDataset(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ligne 2")
}

func TestTrainCentroids(t *testing.T) {
	samples, err := DefaultDataset()
	require.NoError(t, err)

	m, err := TrainCentroids(samples, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, 80, m.TestSize)
	assert.Equal(t, 320, m.TrainSize)
	assert.Greater(t, m.Accuracy, 0.4)
	assert.Equal(t, []string{"beverage", "dairy", "fresh", "meat", "processed"}, m.CategoryClasses)

	high, err := m.Classify(Request{TotalCO2: 15, TotalWater: 800, TotalEnergy: 70, PackagingWeightKg: 0.5, TransportKm: 1500, PackagingType: "aluminum", Category: "beverage"})
	require.NoError(t, err)
	assert.Equal(t, "E", high.Grade)

	low, err := m.Classify(Request{TotalCO2: 0.3, TotalWater: 15, TotalEnergy: 0.8, PackagingWeightKg: 0.2, TransportKm: 50,
		HasBioLabel: true, HasRecyclable: true, HasLocalLabel: true, PackagingType: "aluminum", Category: "beverage"})
	require.NoError(t, err)
	assert.Contains(t, []string{"A", "B"}, low.Grade)

	var sum float64
	for _, p := range low.Probabilities {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 0.01)
	assert.Equal(t, low.Probabilities[low.Grade], low.Confidence)
}

func TestCentroidModel_NilIsUnavailable(t *testing.T) {
	var m *CentroidModel
	_, err := m.Classify(Request{})
	assert.ErrorIs(t, err, ErrClassifierUnavailable)

	s := NewScorer(m)
	r, err := s.Score(Request{TotalCO2: 5, TotalWater: 250, TotalEnergy: 25})
	assert.ErrorIs(t, err, ErrClassifierUnavailable)
	assert.Equal(t, RuleModelName, r.ModelUsed)
}

func TestLoadOrTrainCentroids(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring_model.json")
	m, trained, err := LoadOrTrainCentroids(path)
	require.NoError(t, err)
	assert.True(t, trained)

	again, trained, err := LoadOrTrainCentroids(path)
	require.NoError(t, err)
	assert.False(t, trained)
	assert.Equal(t, m.Centroids, again.Centroids)

	require.NoError(t, os.WriteFile(path, []byte(`{"mean":[1]}`), 0o644))
	_, _, err = LoadOrTrainCentroids(path)
	assert.Error(t, err)
}
