package imputer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ghassane04/EcoLabel-MS/lca"
)

const ModelName = "OLS CO₂ Regressor"

// Noms des coefficients, intercept en tête.
var FeatureNames = []string{
	"intercept",
	"num_ingredients", "total_weight_kg",
	"has_meat", "has_dairy", "has_vegetables",
	"packaging_encoded", "packaging_weight_kg", "transport_km",
}

// Metrics résume l'évaluation sur le jeu de test.
type Metrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2_score"`
}

// Model est un régresseur entraîné. Il n'est jamais modifié après Train ou Load.
type Model struct {
	Name             string             `json:"model"`
	TrainedAt        time.Time          `json:"trained_at"`
	DatasetSize      int                `json:"dataset_size"`
	TrainSize        int                `json:"train_size"`
	TestSize         int                `json:"test_size"`
	PackagingClasses []string           `json:"packaging_classes"`
	Coefficients     []float64          `json:"coefficients"`
	Metrics          Metrics            `json:"metrics"`
	CO2Range         map[string]float64 `json:"co2_range"`
}

// TrainOptions règle la séparation train/test.
type TrainOptions struct {
	TestFraction float64
	Seed         int64
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{TestFraction: 0.2, Seed: 42}
}

// Train ajuste le modèle par moindres carrés sur la partie entraînement
// et l'évalue sur la partie test.
func Train(samples []Sample, opts TrainOptions) (*Model, error) {
	if len(samples) < len(FeatureNames)+2 {
		return nil, fmt.Errorf("imputer: %d échantillons, pas assez pour entraîner", len(samples))
	}
	if opts.TestFraction <= 0 || opts.TestFraction >= 1 {
		opts.TestFraction = 0.2
	}

	m := &Model{
		Name:             ModelName,
		DatasetSize:      len(samples),
		PackagingClasses: packagingClasses(samples),
	}

	perm := rand.New(rand.NewSource(opts.Seed)).Perm(len(samples))
	nTest := int(math.Round(float64(len(samples)) * opts.TestFraction))
	if nTest < 1 {
		nTest = 1
	}
	test := make([]Sample, 0, nTest)
	train := make([]Sample, 0, len(samples)-nTest)
	for i, p := range perm {
		if i < nTest {
			test = append(test, samples[p])
		} else {
			train = append(train, samples[p])
		}
	}
	m.TrainSize, m.TestSize = len(train), len(test)

	x := mat.NewDense(len(train), len(FeatureNames), nil)
	y := mat.NewVecDense(len(train), nil)
	for i, s := range train {
		x.SetRow(i, m.row(s.Features))
		y.SetVec(i, s.CO2Kg)
	}
	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return nil, fmt.Errorf("imputer: résolution moindres carrés: %w", err)
	}
	m.Coefficients = make([]float64, beta.Len())
	for i := range m.Coefficients {
		m.Coefficients[i] = beta.AtVec(i)
	}

	m.Metrics = m.evaluate(test)
	m.CO2Range = co2Range(samples)
	m.TrainedAt = time.Now().UTC()
	return m, nil
}

// Predict renvoie la prédiction brute (non bornée).
func (m *Model) Predict(f lca.Features) float64 {
	row := m.row(f)
	var y float64
	for i, c := range m.Coefficients {
		y += c * row[i]
	}
	return y
}

// EstimateCO2 implémente lca.CO2Estimator : prédiction bornée à 0 et arrondie au gramme.
func (m *Model) EstimateCO2(f lca.Features) (lca.Estimate, error) {
	if m == nil || len(m.Coefficients) != len(FeatureNames) {
		return lca.Estimate{}, lca.ErrEstimationUnavailable
	}
	co2 := math.Max(0, m.Predict(f))
	return lca.Estimate{
		CO2Kg:      math.Round(co2*1000) / 1000,
		Confidence: Confidence(f),
	}, nil
}

// Confidence est une heuristique : meilleure pour les produits carnés ou végétaux
// bien représentés, dégradée pour les valeurs extrêmes.
func Confidence(f lca.Features) float64 {
	c := 0.85
	if f.HasMeat {
		c = 0.90
	} else if f.HasVegetables && !f.HasDairy {
		c = 0.88
	}
	if f.TransportKm > 1000 || f.TotalWeightKg > 3 {
		c -= 0.10
	}
	return math.Round(c*100) / 100
}

// encodePackaging suit l'ordre alphabétique des classes ; une classe inconnue vaut 0.
func (m *Model) encodePackaging(p string) float64 {
	i := sort.SearchStrings(m.PackagingClasses, p)
	if i < len(m.PackagingClasses) && m.PackagingClasses[i] == p {
		return float64(i)
	}
	return 0
}

func (m *Model) row(f lca.Features) []float64 {
	return []float64{
		1,
		float64(f.NumIngredients),
		f.TotalWeightKg,
		boolFloat(f.HasMeat),
		boolFloat(f.HasDairy),
		boolFloat(f.HasVegetables),
		m.encodePackaging(f.PackagingType),
		f.PackagingWeightKg,
		f.TransportKm,
	}
}

func (m *Model) evaluate(test []Sample) Metrics {
	pred := make([]float64, len(test))
	obs := make([]float64, len(test))
	var absErr, sqErr float64
	for i, s := range test {
		pred[i] = m.Predict(s.Features)
		obs[i] = s.CO2Kg
		d := pred[i] - obs[i]
		absErr += math.Abs(d)
		sqErr += d * d
	}
	n := float64(len(test))
	return Metrics{
		MAE:  absErr / n,
		RMSE: math.Sqrt(sqErr / n),
		R2:   stat.RSquaredFrom(pred, obs, nil),
	}
}

// Save écrit le modèle en JSON, en créant le répertoire si besoin.
func (m *Model) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load relit un modèle sauvegardé par Save.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("imputer: modèle illisible %s: %w", path, err)
	}
	if len(m.Coefficients) != len(FeatureNames) {
		return nil, fmt.Errorf("imputer: modèle %s: %d coefficients, %d attendus", path, len(m.Coefficients), len(FeatureNames))
	}
	sort.Strings(m.PackagingClasses)
	return &m, nil
}

// LoadOrTrain charge le modèle depuis path ; s'il n'existe pas, l'entraîne sur le jeu
// embarqué et le sauvegarde. trained indique qu'un entraînement a eu lieu.
func LoadOrTrain(path string) (m *Model, trained bool, err error) {
	if path != "" {
		m, err = Load(path)
		if err == nil {
			return m, false, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, false, err
		}
	}
	samples, err := DefaultDataset()
	if err != nil {
		return nil, false, err
	}
	m, err = Train(samples, DefaultTrainOptions())
	if err != nil {
		return nil, false, err
	}
	if path != "" {
		if err := m.Save(path); err != nil {
			return m, true, fmt.Errorf("imputer: sauvegarde %s: %w", path, err)
		}
	}
	return m, true, nil
}

func packagingClasses(samples []Sample) []string {
	seen := map[string]struct{}{}
	for _, s := range samples {
		seen[s.Features.PackagingType] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func co2Range(samples []Sample) map[string]float64 {
	vals := make([]float64, len(samples))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, s := range samples {
		vals[i] = s.CO2Kg
		lo = math.Min(lo, s.CO2Kg)
		hi = math.Max(hi, s.CO2Kg)
	}
	return map[string]float64{"min": lo, "max": hi, "mean": stat.Mean(vals, nil)}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
