// Package scoring attribue une note environnementale A–E et un score 0–100
// à partir des totaux d'un calcul ACV et des métadonnées de l'étiquette.
package scoring

import (
	"fmt"
	"math"
)

// Plafonds de référence par défaut pour la normalisation.
const (
	DefaultMaxCO2    = 10.0
	DefaultMaxWater  = 500.0
	DefaultMaxEnergy = 50.0
)

// Poids et bonus de la formule de repli.
const (
	weightCO2    = 0.50
	weightWater  = 0.25
	weightEnergy = 0.25

	bonusBio        = 5.0
	bonusRecyclable = 3.0
	bonusLocal      = 5.0

	ruleConfidence = 0.7
	RuleModelName  = "rule-based"
)

// ScoreValues convertit une lettre en score pour la moyenne pondérée par les probabilités.
var ScoreValues = map[string]float64{"A": 95, "B": 75, "C": 55, "D": 35, "E": 15}

// Grades dans l'ordre du meilleur au moins bon.
var Grades = []string{"A", "B", "C", "D", "E"}

// Request regroupe les entrées du scoring.
type Request struct {
	ProductName       string  `json:"product_name"`
	TotalCO2          float64 `json:"total_co2"`
	TotalWater        float64 `json:"total_water"`
	TotalEnergy       float64 `json:"total_energy"`
	PackagingType     string  `json:"packaging_type"`
	PackagingWeightKg float64 `json:"packaging_weight_kg"`
	TransportKm       float64 `json:"transport_km"`
	HasBioLabel       bool    `json:"has_bio_label"`
	HasRecyclable     bool    `json:"has_recyclable"`
	HasLocalLabel     bool    `json:"has_local_label"`
	Category          string  `json:"category"`
	MaxCO2Ref         float64 `json:"max_co2_ref"`
	MaxWaterRef       float64 `json:"max_water_ref"`
	MaxEnergyRef      float64 `json:"max_energy_ref"`
}

// Result est la note calculée.
type Result struct {
	ProductName   string             `json:"product_name"`
	Score         float64            `json:"score_numerical"`
	Letter        string             `json:"score_letter"`
	Confidence    float64            `json:"confidence_level"`
	Explanation   string             `json:"explanation"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	ModelUsed     string             `json:"model_used"`
}

// Letter applique les seuils 80/60/40/20.
func Letter(score float64) string {
	switch {
	case score >= 80:
		return "A"
	case score >= 60:
		return "B"
	case score >= 40:
		return "C"
	case score >= 20:
		return "D"
	default:
		return "E"
	}
}

// RuleBased est la formule linéaire de repli : chaque total est normalisé par son plafond
// et borné à [0,1], pondéré 50/25/25, soustrait de 100, puis les bonus de labels s'ajoutent.
func RuleBased(req Request) Result {
	maxCO2, maxWater, maxEnergy := ceilings(req)

	raw := clamp01(req.TotalCO2/maxCO2)*weightCO2 +
		clamp01(req.TotalWater/maxWater)*weightWater +
		clamp01(req.TotalEnergy/maxEnergy)*weightEnergy
	score := 100 - raw*100

	if req.HasBioLabel {
		score += bonusBio
	}
	if req.HasRecyclable {
		score += bonusRecyclable
	}
	if req.HasLocalLabel {
		score += bonusLocal
	}
	score = math.Max(0, math.Min(100, score))

	return Result{
		ProductName: req.ProductName,
		Score:       round1(score),
		Letter:      Letter(score),
		Confidence:  ruleConfidence,
		ModelUsed:   RuleModelName,
	}
}

// Explain construit la phrase d'explication renvoyée au client.
func Explain(req Request, r Result) string {
	return fmt.Sprintf(
		"Score %s (%g/100) calculé par %s. Basé sur CO₂=%gkg, Eau=%gL, Énergie=%gMJ, Transport=%gkm, Emballage=%s.",
		r.Letter, r.Score, r.ModelUsed,
		req.TotalCO2, req.TotalWater, req.TotalEnergy, req.TransportKm, req.PackagingType,
	)
}

func ceilings(req Request) (float64, float64, float64) {
	c, w, e := req.MaxCO2Ref, req.MaxWaterRef, req.MaxEnergyRef
	if c <= 0 {
		c = DefaultMaxCO2
	}
	if w <= 0 {
		w = DefaultMaxWater
	}
	if e <= 0 {
		e = DefaultMaxEnergy
	}
	return c, w, e
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
