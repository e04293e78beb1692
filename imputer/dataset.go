// Package imputer fournit l'estimateur statistique du CO2 total d'un produit,
// utilisé quand des ingrédients sont absents du catalogue de facteurs.
//
// Le modèle est une régression linéaire (moindres carrés) sur les huit
// caractéristiques de lca.Features. Il est entraîné une fois, sauvegardé en JSON,
// puis rechargé tel quel : le handle obtenu est immuable.
package imputer

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ghassane04/EcoLabel-MS/lca"
)

//go:embed data/co2_training.csv
var defaultDataset []byte

// Sample est une ligne du jeu d'entraînement.
type Sample struct {
	Features lca.Features
	CO2Kg    float64
}

var datasetColumns = []string{
	"num_ingredients", "total_weight_kg",
	"has_meat", "has_dairy", "has_vegetables",
	"packaging_type", "packaging_weight_kg", "transport_km",
	"total_co2_kg",
}

// DefaultDataset renvoie le jeu d'entraînement embarqué.
func DefaultDataset() ([]Sample, error) {
	return ReadDataset(bytes.NewReader(defaultDataset))
}

// ReadDataset lit un CSV avec en-tête ; l'ordre des colonnes est libre.
func ReadDataset(r io.Reader) ([]Sample, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("imputer: lecture CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("imputer: jeu de données vide")
	}

	idx := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		idx[strings.TrimSpace(h)] = i
	}
	for _, c := range datasetColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("imputer: colonne %q manquante", c)
		}
	}

	samples := make([]Sample, 0, len(records)-1)
	for line, row := range records[1:] {
		p := rowParser{row: row, idx: idx}
		s := Sample{
			Features: lca.Features{
				NumIngredients:    int(p.float("num_ingredients")),
				TotalWeightKg:     p.float("total_weight_kg"),
				HasMeat:           p.float("has_meat") != 0,
				HasDairy:          p.float("has_dairy") != 0,
				HasVegetables:     p.float("has_vegetables") != 0,
				PackagingType:     p.str("packaging_type"),
				PackagingWeightKg: p.float("packaging_weight_kg"),
				TransportKm:       p.float("transport_km"),
			},
			CO2Kg: p.float("total_co2_kg"),
		}
		if p.err != nil {
			return nil, fmt.Errorf("imputer: ligne %d: %w", line+2, p.err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

type rowParser struct {
	row []string
	idx map[string]int
	err error
}

func (p *rowParser) str(col string) string {
	i := p.idx[col]
	if i >= len(p.row) {
		if p.err == nil {
			p.err = fmt.Errorf("colonne %s absente", col)
		}
		return ""
	}
	return strings.TrimSpace(p.row[i])
}

func (p *rowParser) float(col string) float64 {
	s := p.str(col)
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", col, err)
		return 0
	}
	return v
}
