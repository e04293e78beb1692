package models

import (
	"time"

	"gorm.io/datatypes"
)

// LCAResult est un calcul ACV persisté ; Details contient les lignes du rapport en JSON.
type LCAResult struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ProductName    string         `gorm:"index;not null" json:"product_name"`
	TotalCO2       float64        `gorm:"column:total_co2;type:double precision" json:"total_co2_kg"`
	TotalWater     float64        `gorm:"column:total_water;type:double precision" json:"total_water_l"`
	TotalEnergy    float64        `gorm:"column:total_energy;type:double precision" json:"total_energy_mj"`
	UsedEstimation bool           `json:"used_estimation"`
	Details        datatypes.JSON `json:"details"`
	ReportLocation string         `json:"report_location,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (LCAResult) TableName() string { return "lca_results" }

// ProductScore est une note attribuée à un produit.
type ProductScore struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ProductName     string    `gorm:"index;not null" json:"product_name"`
	ScoreNumerical  float64   `gorm:"type:double precision" json:"score_numerical"`
	ScoreLetter     string    `gorm:"size:1" json:"score_letter"`
	ConfidenceLevel float64   `gorm:"type:double precision" json:"confidence_level"`
	Explanation     string    `json:"explanation"`
	ModelUsed       string    `json:"model_used"`
	CreatedAt       time.Time `json:"created_at"`
}

func (ProductScore) TableName() string { return "product_scores" }
