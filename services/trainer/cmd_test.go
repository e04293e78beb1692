package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghassane04/EcoLabel-MS/lca"
	"github.com/ghassane04/EcoLabel-MS/scoring"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestImputerTrainThenEstimate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "co2.json")

	out, err := run(t, "imputer", "train", "-o", path)
	require.NoError(t, err)
	var summary struct {
		DatasetSize int `json:"dataset_size"`
		TestSize    int `json:"test_size"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 240, summary.DatasetSize)
	assert.Equal(t, 48, summary.TestSize)

	out, err = run(t, "imputer", "estimate", "-m", path, "--meat", "--weight", "1.5", "--transport", "300")
	require.NoError(t, err)
	var est lca.Estimate
	require.NoError(t, json.Unmarshal([]byte(out), &est))
	assert.GreaterOrEqual(t, est.CO2Kg, 0.0)
	assert.Equal(t, 0.90, est.Confidence)
}

func TestImputerEstimate_MissingModel(t *testing.T) {
	_, err := run(t, "imputer", "estimate", "-m", filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestScoringTrainThenPredict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.json")

	_, err := run(t, "scoring", "train", "-o", path, "--seed", "7")
	require.NoError(t, err)

	out, err := run(t, "scoring", "predict", "-m", path, "--name", "Steak", "--co2", "9.8", "--water", "490", "--energy", "48")
	require.NoError(t, err)
	var res scoring.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, scoring.CentroidModelName, res.ModelUsed)
	assert.Contains(t, scoring.Grades, res.Letter)
}

func TestScoringPredict_RulesOnly(t *testing.T) {
	out, err := run(t, "scoring", "predict", "--rules", "--name", "Eau", "--bio")
	require.NoError(t, err)
	var res scoring.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "A", res.Letter)
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, scoring.RuleModelName, res.ModelUsed)
}

func TestScoringTrain_BadDataFile(t *testing.T) {
	_, err := run(t, "scoring", "train", "--data", filepath.Join(t.TempDir(), "absent.csv"), "-o", "")
	assert.Error(t, err)
}
