package models

import (
	"time"

	"github.com/ghassane04/EcoLabel-MS/lca"
)

// EmissionFactor partage la table emission_factors avec le service de calcul.
type EmissionFactor struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"uniqueIndex;not null" json:"name"`
	Category      string    `gorm:"not null" json:"category"`
	CO2PerUnit    float64   `gorm:"column:co2_per_unit;type:double precision" json:"co2_per_unit"`
	WaterPerUnit  float64   `gorm:"column:water_per_unit;type:double precision" json:"water_per_unit"`
	EnergyPerUnit float64   `gorm:"column:energy_per_unit;type:double precision" json:"energy_per_unit"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (EmissionFactor) TableName() string { return "emission_factors" }

func (f EmissionFactor) ToLCA() lca.EmissionFactor {
	return lca.EmissionFactor{
		Name:          f.Name,
		Category:      lca.Category(f.Category),
		CO2PerUnit:    f.CO2PerUnit,
		WaterPerUnit:  f.WaterPerUnit,
		EnergyPerUnit: f.EnergyPerUnit,
	}
}

func FactorFromLCA(f lca.EmissionFactor) EmissionFactor {
	return EmissionFactor{
		Name:          f.Name,
		Category:      string(f.Category),
		CO2PerUnit:    f.CO2PerUnit,
		WaterPerUnit:  f.WaterPerUnit,
		EnergyPerUnit: f.EnergyPerUnit,
	}
}
