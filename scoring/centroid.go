package scoring

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//go:embed data/training_dataset.csv
var defaultDataset []byte

const CentroidModelName = "Nearest-Centroid Grade Classifier"

// FeatureNames dans l'ordre du vecteur de caractéristiques.
var FeatureNames = []string{
	"co2_kg", "water_l", "energy_mj",
	"packaging_weight_kg", "transport_km",
	"has_bio_label", "has_recyclable", "has_local_label",
	"packaging_encoded", "category_encoded",
}

// Les totaux ACV dominent la distance ; les encodages catégoriels pèsent peu.
var featureWeights = []float64{1, 1, 1, 0.2, 0.2, 0.5, 0.5, 0.5, 0.1, 0.1}

var datasetColumns = []string{
	"co2_kg", "water_l", "energy_mj", "packaging_type", "packaging_weight_kg",
	"transport_km", "has_bio_label", "has_recyclable", "has_local_label",
	"category", "score_letter",
}

// Sample est une ligne étiquetée du jeu d'entraînement.
type Sample struct {
	Request Request
	Grade   string
}

// CentroidModel classe une requête selon le centroïde de note le plus proche
// dans l'espace standardisé. Immuable après Train ou Load.
type CentroidModel struct {
	Name             string               `json:"model"`
	TrainedAt        time.Time            `json:"trained_at"`
	DatasetSize      int                  `json:"dataset_size"`
	TrainSize        int                  `json:"train_size"`
	TestSize         int                  `json:"test_size"`
	Accuracy         float64              `json:"accuracy"`
	PackagingClasses []string             `json:"packaging_classes"`
	CategoryClasses  []string             `json:"category_classes"`
	Mean             []float64            `json:"mean"`
	StdDev           []float64            `json:"std_dev"`
	Centroids        map[string][]float64 `json:"centroids"`
	ClassCounts      map[string]int       `json:"class_counts"`
}

// DefaultDataset renvoie le jeu embarqué.
func DefaultDataset() ([]Sample, error) {
	return ReadDataset(bytes.NewReader(defaultDataset))
}

// ReadDataset lit un CSV avec en-tête, colonnes dans un ordre quelconque.
func ReadDataset(r io.Reader) ([]Sample, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("scoring: lecture CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, errors.New("scoring: jeu de données vide")
	}
	idx := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		idx[strings.TrimSpace(h)] = i
	}
	for _, c := range datasetColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("scoring: colonne %q manquante", c)
		}
	}

	out := make([]Sample, 0, len(records)-1)
	for line, row := range records[1:] {
		get := func(col string) string {
			if i := idx[col]; i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		var parseErr error
		num := func(col string) float64 {
			v, err := strconv.ParseFloat(get(col), 64)
			if err != nil && parseErr == nil {
				parseErr = fmt.Errorf("%s: %w", col, err)
			}
			return v
		}
		s := Sample{
			Request: Request{
				TotalCO2:          num("co2_kg"),
				TotalWater:        num("water_l"),
				TotalEnergy:       num("energy_mj"),
				PackagingType:     get("packaging_type"),
				PackagingWeightKg: num("packaging_weight_kg"),
				TransportKm:       num("transport_km"),
				HasBioLabel:       num("has_bio_label") != 0,
				HasRecyclable:     num("has_recyclable") != 0,
				HasLocalLabel:     num("has_local_label") != 0,
				Category:          get("category"),
			},
			Grade: strings.ToUpper(get("score_letter")),
		}
		if parseErr != nil {
			return nil, fmt.Errorf("scoring: ligne %d: %w", line+2, parseErr)
		}
		if _, ok := ScoreValues[s.Grade]; !ok {
			return nil, fmt.Errorf("scoring: ligne %d: note %q inconnue", line+2, s.Grade)
		}
		out = append(out, s)
	}
	return out, nil
}

// TrainCentroids standardise les caractéristiques, calcule un centroïde par note
// et mesure l'exactitude sur une partie réservée.
func TrainCentroids(samples []Sample, testFraction float64, seed int64) (*CentroidModel, error) {
	if len(samples) < 10 {
		return nil, fmt.Errorf("scoring: %d échantillons, pas assez pour entraîner", len(samples))
	}
	if testFraction <= 0 || testFraction >= 1 {
		testFraction = 0.2
	}

	m := &CentroidModel{
		Name:             CentroidModelName,
		DatasetSize:      len(samples),
		PackagingClasses: classes(samples, func(s Sample) string { return s.Request.PackagingType }),
		CategoryClasses:  classes(samples, func(s Sample) string { return s.Request.Category }),
	}

	perm := rand.New(rand.NewSource(seed)).Perm(len(samples))
	nTest := int(math.Round(float64(len(samples)) * testFraction))
	test, train := make([]Sample, 0, nTest), make([]Sample, 0, len(samples)-nTest)
	for i, p := range perm {
		if i < nTest {
			test = append(test, samples[p])
		} else {
			train = append(train, samples[p])
		}
	}
	m.TrainSize, m.TestSize = len(train), len(test)

	raw := make([][]float64, len(train))
	for i, s := range train {
		raw[i] = m.vector(s.Request)
	}
	m.Mean = make([]float64, len(FeatureNames))
	m.StdDev = make([]float64, len(FeatureNames))
	col := make([]float64, len(train))
	for j := range FeatureNames {
		for i := range raw {
			col[i] = raw[i][j]
		}
		m.Mean[j], m.StdDev[j] = stat.MeanStdDev(col, nil)
		if m.StdDev[j] == 0 {
			m.StdDev[j] = 1
		}
	}

	m.Centroids = map[string][]float64{}
	m.ClassCounts = map[string]int{}
	for i, s := range train {
		c, ok := m.Centroids[s.Grade]
		if !ok {
			c = make([]float64, len(FeatureNames))
			m.Centroids[s.Grade] = c
		}
		floats.Add(c, m.standardise(raw[i]))
		m.ClassCounts[s.Grade]++
	}
	for g, c := range m.Centroids {
		floats.Scale(1/float64(m.ClassCounts[g]), c)
	}

	if len(test) > 0 {
		hits := 0
		for _, s := range test {
			if cl, err := m.Classify(s.Request); err == nil && cl.Grade == s.Grade {
				hits++
			}
		}
		m.Accuracy = float64(hits) / float64(len(test))
	}
	m.TrainedAt = time.Now().UTC()
	return m, nil
}

// Classify implémente Classifier : probabilités par softmax des distances négatives.
func (m *CentroidModel) Classify(req Request) (Classification, error) {
	if m == nil || len(m.Centroids) == 0 || len(m.Mean) != len(FeatureNames) {
		return Classification{}, ErrClassifierUnavailable
	}
	z := m.standardise(m.vector(req))

	grades := make([]string, 0, len(m.Centroids))
	for g := range m.Centroids {
		grades = append(grades, g)
	}
	sort.Strings(grades)

	dist := make([]float64, len(grades))
	for i, g := range grades {
		var d float64
		for j, c := range m.Centroids[g] {
			diff := z[j] - c
			d += featureWeights[j] * diff * diff
		}
		dist[i] = -math.Sqrt(d)
	}
	maxLogit := floats.Max(dist)
	var sum float64
	for i := range dist {
		dist[i] = math.Exp(dist[i] - maxLogit)
		sum += dist[i]
	}

	cl := Classification{Probabilities: make(map[string]float64, len(grades)), ModelName: m.Name}
	for i, g := range grades {
		p := dist[i] / sum
		cl.Probabilities[g] = math.Round(p*1000) / 1000
		if p > cl.Confidence {
			cl.Confidence = p
			cl.Grade = g
		}
	}
	cl.Confidence = math.Round(cl.Confidence*1000) / 1000
	return cl, nil
}

func (m *CentroidModel) vector(req Request) []float64 {
	return []float64{
		req.TotalCO2, req.TotalWater, req.TotalEnergy,
		req.PackagingWeightKg, req.TransportKm,
		boolFloat(req.HasBioLabel), boolFloat(req.HasRecyclable), boolFloat(req.HasLocalLabel),
		encode(m.PackagingClasses, req.PackagingType),
		encode(m.CategoryClasses, req.Category),
	}
}

func (m *CentroidModel) standardise(v []float64) []float64 {
	out := make([]float64, len(v))
	for j := range v {
		out[j] = (v[j] - m.Mean[j]) / m.StdDev[j]
	}
	return out
}

// Save écrit le modèle en JSON.
func (m *CentroidModel) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func LoadCentroids(path string) (*CentroidModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m CentroidModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("scoring: modèle illisible %s: %w", path, err)
	}
	if len(m.Mean) != len(FeatureNames) || len(m.StdDev) != len(FeatureNames) || len(m.Centroids) == 0 {
		return nil, fmt.Errorf("scoring: modèle %s incomplet", path)
	}
	for g, c := range m.Centroids {
		if len(c) != len(FeatureNames) {
			return nil, fmt.Errorf("scoring: centroïde %s de taille %d", g, len(c))
		}
	}
	sort.Strings(m.PackagingClasses)
	sort.Strings(m.CategoryClasses)
	return &m, nil
}

// LoadOrTrainCentroids charge path ou, s'il est absent, entraîne sur le jeu embarqué et sauvegarde.
func LoadOrTrainCentroids(path string) (m *CentroidModel, trained bool, err error) {
	if path != "" {
		m, err = LoadCentroids(path)
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
	m, err = TrainCentroids(samples, 0.2, 42)
	if err != nil {
		return nil, false, err
	}
	if path != "" {
		if err := m.Save(path); err != nil {
			return m, true, fmt.Errorf("scoring: sauvegarde %s: %w", path, err)
		}
	}
	return m, true, nil
}

func classes(samples []Sample, key func(Sample) string) []string {
	seen := map[string]struct{}{}
	for _, s := range samples {
		seen[key(s)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func encode(classes []string, v string) float64 {
	i := sort.SearchStrings(classes, v)
	if i < len(classes) && classes[i] == v {
		return float64(i)
	}
	return 0
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
