package reports

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghassane04/EcoLabel-MS/lca"
)

func TestExport_LocalSink(t *testing.T) {
	sink, err := NewLocalSink(filepath.Join(t.TempDir(), "reports"))
	require.NoError(t, err)

	report := lca.NewEstimator(nil, nil).Calculate(lca.Request{
		ProductName: "Sauce tomate",
		Ingredients: []lca.Ingredient{{Name: "tomato", QuantityKg: 0.5}},
		Packaging:   lca.Packaging{Material: "glass", WeightKg: 0.3},
		Transport:   lca.Transport{DistanceKm: 150},
	}, lca.NewFactorTable(lca.DefaultFactors()))

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	loc, err := Export(context.Background(), sink, report, at)
	require.NoError(t, err)
	assert.Equal(t, "Sauce_tomate_20250102030405.csv", filepath.Base(loc))

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "component,type,quantity,co2,water,energy,provenance", lines[0])
	assert.Equal(t, "tomato,ingredient,0.5,0.75,25,1,known", lines[1])

	entries, err := os.ReadDir(sink.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalSink_CancelledContext(t *testing.T) {
	sink, err := NewLocalSink(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sink.Put(ctx, "x.csv", strings.NewReader("a"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewGCSSink_Validation(t *testing.T) {
	_, err := NewGCSSink(context.Background(), "", "", "")
	assert.Error(t, err)

	_, err = NewGCSSink(context.Background(), "lca-reports", "", filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
