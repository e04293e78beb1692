package lca

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var defaultKeywordsYAML []byte

// Keywords regroupe les listes de mots-clés et les seuils d'intensité CO2
// utilisés pour dériver les indicateurs viande / laitier / légumes.
type Keywords struct {
	Version    int      `yaml:"version" json:"version"`
	Meat       []string `yaml:"meat" json:"meat"`
	Dairy      []string `yaml:"dairy" json:"dairy"`
	Vegetables []string `yaml:"vegetables" json:"vegetables"`
	Thresholds struct {
		MeatCO2  float64 `yaml:"meat_co2" json:"meat_co2"`
		DairyCO2 float64 `yaml:"dairy_co2" json:"dairy_co2"`
	} `yaml:"thresholds" json:"thresholds"`
}

// ParseKeywords décode une configuration YAML de mots-clés.
func ParseKeywords(data []byte) (*Keywords, error) {
	var k Keywords
	if err := yaml.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("lca: lecture des mots-clés: %w", err)
	}
	if k.Thresholds.MeatCO2 == 0 {
		k.Thresholds.MeatCO2 = 6.0
	}
	if k.Thresholds.DairyCO2 == 0 {
		k.Thresholds.DairyCO2 = 3.0
	}
	k.Meat = lowerAll(k.Meat)
	k.Dairy = lowerAll(k.Dairy)
	k.Vegetables = lowerAll(k.Vegetables)
	return &k, nil
}

// LoadKeywords lit un fichier YAML ; un chemin vide renvoie la configuration embarquée.
func LoadKeywords(path string) (*Keywords, error) {
	if path == "" {
		return DefaultKeywords(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lca: ouverture %s: %w", path, err)
	}
	return ParseKeywords(data)
}

// DefaultKeywords renvoie la configuration embarquée (version 1).
func DefaultKeywords() *Keywords {
	k, err := ParseKeywords(defaultKeywordsYAML)
	if err != nil {
		panic(err)
	}
	return k
}

// Flags sont les trois indicateurs booléens envoyés à l'estimateur statistique.
type Flags struct {
	HasMeat       bool `json:"has_meat"`
	HasDairy      bool `json:"has_dairy"`
	HasVegetables bool `json:"has_vegetables"`
}

// Classify combine, pour chaque ingrédient, l'intensité CO2 du catalogue (si connu)
// et la recherche de mots-clés dans le nom. Les indicateurs sont cumulés (OU) sur tout le produit.
func (k *Keywords) Classify(ingredients []Ingredient, catalog Catalog) Flags {
	var fl Flags
	for _, ing := range ingredients {
		if catalog != nil {
			if f, ok := catalog.Lookup(ing.Name); ok {
				switch {
				case f.CO2PerUnit >= k.Thresholds.MeatCO2:
					fl.HasMeat = true
				case f.CO2PerUnit >= k.Thresholds.DairyCO2:
					fl.HasDairy = true
				default:
					fl.HasVegetables = true
				}
			}
		}
		name := strings.ToLower(ing.Name)
		if containsAny(name, k.Meat) {
			fl.HasMeat = true
		}
		if containsAny(name, k.Dairy) {
			fl.HasDairy = true
		}
		if containsAny(name, k.Vegetables) {
			fl.HasVegetables = true
		}
	}
	return fl
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}
