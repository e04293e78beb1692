package main

import (
	"encoding/json"
	"time"
)

// LCAResult est une ligne de lca_results.
type LCAResult struct {
	ID             int64           `json:"id"`
	ProductName    string          `json:"product_name"`
	TotalCO2       float64         `json:"total_co2_kg"`
	TotalWater     float64         `json:"total_water_l"`
	TotalEnergy    float64         `json:"total_energy_mj"`
	UsedEstimation bool            `json:"used_estimation"`
	Details        json.RawMessage `json:"details,omitempty"`
	ReportLocation string          `json:"report_location,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ProductScore est une ligne de product_scores.
type ProductScore struct {
	ID              int64     `json:"id"`
	ProductName     string    `json:"product_name"`
	ScoreNumerical  float64   `json:"score_numerical"`
	ScoreLetter     string    `json:"score_letter"`
	ConfidenceLevel float64   `json:"confidence_level"`
	Explanation     string    `json:"explanation"`
	ModelUsed       string    `json:"model_used"`
	CreatedAt       time.Time `json:"created_at"`
}

// ProductRaw est le texte brut d'un fichier d'étiquette.
type ProductRaw struct {
	ID         int64     `json:"id"`
	GTIN       *string   `json:"gtin"`
	SourceType string    `json:"source_type"`
	Filename   string    `json:"filename"`
	RawText    string    `json:"raw_text"`
	CreatedAt  time.Time `json:"created_at"`
}

type ExtractionLog struct {
	ID            int64
	RawText       string
	ExtractedData json.RawMessage
	Extractor     string
	CreatedAt     time.Time
}

// Stats résume l'historique pour /api/provenance/stats.
type Stats struct {
	TotalScores       int64            `json:"total_scores"`
	TotalLCA          int64            `json:"total_lca_calculations"`
	AverageScore      float64          `json:"average_score"`
	AverageCO2        float64          `json:"average_co2_kg"`
	EstimatedLCAShare float64          `json:"estimated_lca_share"`
	GradeDistribution map[string]int64 `json:"grade_distribution"`
}
