package lca

import "sync/atomic"

// Category identifie la nature d'un facteur d'émission.
type Category string

const (
	CategoryIngredient Category = "ingredient"
	CategoryPackaging  Category = "packaging"
	CategoryTransport  Category = "transport"
)

// TransportKey est le nom du facteur de référence par km·kg.
const TransportKey = "transport_km"

// EmissionFactor représente un facteur de référence (impact par kg, ou par km·kg pour le transport).
type EmissionFactor struct {
	Name          string   `json:"name"`
	Category      Category `json:"category"`
	CO2PerUnit    float64  `json:"co2_per_unit"`
	WaterPerUnit  float64  `json:"water_per_unit"`
	EnergyPerUnit float64  `json:"energy_per_unit"`
}

// Catalog est la seule capacité dont le calcul a besoin côté données de référence.
type Catalog interface {
	Lookup(name string) (EmissionFactor, bool)
}

// FactorTable indexe les facteurs par nom exact (sensible à la casse).
type FactorTable map[string]EmissionFactor

// NewFactorTable construit une table ; en cas de doublon, le dernier facteur gagne.
func NewFactorTable(factors []EmissionFactor) FactorTable {
	t := make(FactorTable, len(factors))
	for _, f := range factors {
		t[f.Name] = f
	}
	return t
}

func (t FactorTable) Lookup(name string) (EmissionFactor, bool) {
	f, ok := t[name]
	return f, ok
}

// DefaultFactors est la liste de départ insérée quand la table de référence est vide.
func DefaultFactors() []EmissionFactor {
	return []EmissionFactor{
		{Name: "tomato", Category: CategoryIngredient, CO2PerUnit: 1.5, WaterPerUnit: 50.0, EnergyPerUnit: 2.0},
		{Name: "sugar", Category: CategoryIngredient, CO2PerUnit: 0.8, WaterPerUnit: 200.0, EnergyPerUnit: 5.0},
		{Name: "plastic", Category: CategoryPackaging, CO2PerUnit: 3.0, WaterPerUnit: 10.0, EnergyPerUnit: 40.0},
		{Name: "glass", Category: CategoryPackaging, CO2PerUnit: 0.9, WaterPerUnit: 5.0, EnergyPerUnit: 15.0},
		{Name: TransportKey, Category: CategoryTransport, CO2PerUnit: 0.0001, WaterPerUnit: 0.0, EnergyPerUnit: 0.005},
	}
}

// Snapshot publie une FactorTable immuable. Un rechargement remplace la table entière,
// les requêtes en cours gardent celle qu'elles ont lue.
type Snapshot struct {
	table atomic.Pointer[FactorTable]
}

func NewSnapshot(t FactorTable) *Snapshot {
	s := &Snapshot{}
	s.Store(t)
	return s
}

// Load retourne la table courante (jamais nil).
func (s *Snapshot) Load() FactorTable {
	if t := s.table.Load(); t != nil {
		return *t
	}
	return FactorTable{}
}

// Store remplace la table. L'appelant ne doit plus modifier t ensuite.
func (s *Snapshot) Store(t FactorTable) {
	if t == nil {
		t = FactorTable{}
	}
	s.table.Store(&t)
}

func (s *Snapshot) Lookup(name string) (EmissionFactor, bool) {
	return s.Load().Lookup(name)
}
