package lca

import (
	"encoding/csv"
	"io"
	"strconv"
)

type Kind string

const (
	KindIngredient Kind = "ingredient"
	KindPackaging  Kind = "packaging"
	KindTransport  Kind = "transport"
)

// Provenance indique quel chemin de calcul a produit les valeurs d'une ligne.
type Provenance string

const (
	ProvenanceKnown     Provenance = "known"
	ProvenanceDefault   Provenance = "default"
	ProvenanceEstimated Provenance = "estimated"
)

// LineItem est la contribution d'un élément du produit.
// Quantity est en kg, ou en km pour le transport.
type LineItem struct {
	ComponentName string     `json:"component"`
	Kind          Kind       `json:"type"`
	Quantity      float64    `json:"quantity"`
	CO2           float64    `json:"co2"`
	Water         float64    `json:"water"`
	Energy        float64    `json:"energy"`
	Provenance    Provenance `json:"provenance"`
}

// Imputation trace le passage par l'estimateur statistique.
type Imputation struct {
	UnknownIngredients int     `json:"unknown_ingredients"`
	Applied            bool    `json:"applied"`
	Flags              Flags   `json:"flags"`
	EstimatedTotalCO2  float64 `json:"estimated_total_co2,omitempty"`
	KnownCO2           float64 `json:"known_co2,omitempty"`
	RemainingCO2       float64 `json:"remaining_co2,omitempty"`
	Confidence         float64 `json:"confidence,omitempty"`
	// Toujours false : seul le CO2 est corrigé, eau et énergie gardent les valeurs par défaut.
	WaterEnergyCorrected bool   `json:"water_energy_corrected"`
	FallbackReason       string `json:"fallback_reason,omitempty"`
	Err                  string `json:"error,omitempty"`
}

// ImpactReport agrège les lignes d'un calcul. Il n'est plus modifié après Calculate.
type ImpactReport struct {
	ProductName    string      `json:"product_name"`
	TotalCO2       float64     `json:"total_co2_kg"`
	TotalWater     float64     `json:"total_water_l"`
	TotalEnergy    float64     `json:"total_energy_mj"`
	LineItems      []LineItem  `json:"line_items"`
	UsedEstimation bool        `json:"used_estimation"`
	Imputation     *Imputation `json:"imputation,omitempty"`
}

// Fallback renvoie la raison du repli sur les valeurs par défaut, vide sinon.
func (r ImpactReport) Fallback() string {
	if r.Imputation == nil {
		return ""
	}
	return r.Imputation.FallbackReason
}

var csvHeader = []string{"component", "type", "quantity", "co2", "water", "energy", "provenance"}

// WriteCSV exporte les lignes du rapport sous forme de tableau plat.
func (r ImpactReport) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, li := range r.LineItems {
		row := []string{
			li.ComponentName,
			string(li.Kind),
			formatFloat(li.Quantity),
			formatFloat(li.CO2),
			formatFloat(li.Water),
			formatFloat(li.Energy),
			string(li.Provenance),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
