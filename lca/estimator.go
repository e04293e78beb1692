// Package lca calcule l'impact environnemental (CO2, eau, énergie) d'un produit
// à partir de ses ingrédients, de son emballage et de son transport.
//
// Les facteurs connus viennent d'un catalogue de référence. Pour les ingrédients
// absents du catalogue, des multiplicateurs par défaut sont appliqués puis, si un
// estimateur statistique est disponible, le CO2 restant est réparti au prorata des masses.
package lca

import (
	"errors"
	"math"
)

// Multiplicateurs par défaut (par kg) quand un élément est absent du catalogue.
var (
	DefaultIngredientFactor = EmissionFactor{CO2PerUnit: 1.0, WaterPerUnit: 10.0, EnergyPerUnit: 5.0}
	DefaultPackagingFactor  = EmissionFactor{CO2PerUnit: 2.0, WaterPerUnit: 10.0, EnergyPerUnit: 20.0}
)

// ErrEstimationUnavailable signale que l'estimateur CO2 ne peut pas répondre.
var ErrEstimationUnavailable = errors.New("lca: estimation CO2 indisponible")

// Features sont les entrées du modèle de régression CO2.
type Features struct {
	NumIngredients    int     `json:"num_ingredients"`
	TotalWeightKg     float64 `json:"total_weight_kg"`
	HasMeat           bool    `json:"has_meat"`
	HasDairy          bool    `json:"has_dairy"`
	HasVegetables     bool    `json:"has_vegetables"`
	PackagingType     string  `json:"packaging_type"`
	PackagingWeightKg float64 `json:"packaging_weight_kg"`
	TransportKm       float64 `json:"transport_km"`
}

// Estimate est la réponse de l'estimateur : CO2 total estimé pour tout le produit.
type Estimate struct {
	CO2Kg      float64 `json:"co2_kg"`
	Confidence float64 `json:"confidence"`
}

// CO2Estimator est la capacité statistique injectée. Elle ne prédit que le CO2.
type CO2Estimator interface {
	EstimateCO2(f Features) (Estimate, error)
}

type Ingredient struct {
	Name       string  `json:"name"`
	QuantityKg float64 `json:"quantity_kg"`
}

type Packaging struct {
	Material string  `json:"material"`
	WeightKg float64 `json:"weight_kg"`
}

type Transport struct {
	DistanceKm float64 `json:"distance_km"`
	Mode       string  `json:"mode,omitempty"`
}

// Request décrit un produit déjà extrait de son étiquette.
type Request struct {
	ProductName string       `json:"product_name"`
	Ingredients []Ingredient `json:"ingredients"`
	Packaging   Packaging    `json:"packaging"`
	Transport   Transport    `json:"transport"`
}

// Estimator produit des ImpactReport. Il ne fait aucune E/S et peut être partagé entre goroutines.
type Estimator struct {
	co2      CO2Estimator
	keywords *Keywords
}

// NewEstimator accepte un co2 nil : les ingrédients inconnus gardent alors les valeurs par défaut.
func NewEstimator(co2 CO2Estimator, keywords *Keywords) *Estimator {
	if keywords == nil {
		keywords = DefaultKeywords()
	}
	return &Estimator{co2: co2, keywords: keywords}
}

// Calculate calcule le rapport d'impact de req avec le catalogue donné.
// L'appelant fournit un catalogue stable pendant l'appel (voir Snapshot.Load).
func (e *Estimator) Calculate(req Request, catalog Catalog) ImpactReport {
	if catalog == nil {
		catalog = FactorTable{}
	}
	items := make([]LineItem, 0, len(req.Ingredients)+2)

	var unknown []int
	for _, ing := range req.Ingredients {
		f, ok := catalog.Lookup(ing.Name)
		prov := ProvenanceKnown
		if !ok {
			f = DefaultIngredientFactor
			prov = ProvenanceDefault
			unknown = append(unknown, len(items))
		}
		items = append(items, lineItem(ing.Name, KindIngredient, ing.QuantityKg, ing.QuantityKg, f, prov))
	}

	report := ImpactReport{ProductName: req.ProductName}
	if len(unknown) > 0 {
		report.Imputation = e.impute(req, catalog, items, unknown)
		report.UsedEstimation = report.Imputation.Applied
	}

	pkg := req.Packaging
	pf, ok := catalog.Lookup(pkg.Material)
	prov := ProvenanceKnown
	if !ok {
		pf = DefaultPackagingFactor
		prov = ProvenanceDefault
	}
	items = append(items, lineItem(pkg.Material, KindPackaging, pkg.WeightKg, pkg.WeightKg, pf, prov))

	// Le transport s'applique à la masse totale (ingrédients + emballage).
	mass := totalMass(req)
	dist := req.Transport.DistanceKm
	if tf, ok := catalog.Lookup(TransportKey); ok {
		items = append(items, lineItem("transport", KindTransport, dist, dist*mass, tf, ProvenanceKnown))
	} else {
		items = append(items, LineItem{ComponentName: "transport", Kind: KindTransport, Quantity: dist, Provenance: ProvenanceDefault})
	}

	for _, li := range items {
		report.TotalCO2 += li.CO2
		report.TotalWater += li.Water
		report.TotalEnergy += li.Energy
	}
	report.LineItems = items
	return report
}

// impute corrige le CO2 des ingrédients inconnus (items[unknown]) à partir de l'estimation globale.
// L'eau et l'énergie restent aux valeurs par défaut : le modèle ne prédit que le CO2.
func (e *Estimator) impute(req Request, catalog Catalog, items []LineItem, unknown []int) *Imputation {
	imp := &Imputation{UnknownIngredients: len(unknown)}
	if e.co2 == nil {
		imp.FallbackReason = "estimator_unavailable"
		return imp
	}

	var unknownMass float64
	for _, i := range unknown {
		unknownMass += items[i].Quantity
	}
	if unknownMass == 0 {
		imp.FallbackReason = "zero_unknown_mass"
		return imp
	}

	flags := e.keywords.Classify(req.Ingredients, catalog)
	est, err := e.co2.EstimateCO2(Features{
		NumIngredients:    len(req.Ingredients),
		TotalWeightKg:     totalMass(req),
		HasMeat:           flags.HasMeat,
		HasDairy:          flags.HasDairy,
		HasVegetables:     flags.HasVegetables,
		PackagingType:     req.Packaging.Material,
		PackagingWeightKg: req.Packaging.WeightKg,
		TransportKm:       req.Transport.DistanceKm,
	})
	imp.Flags = flags
	if err != nil {
		imp.FallbackReason = "estimator_failed"
		imp.Err = err.Error()
		return imp
	}

	var known float64
	for _, li := range items {
		if li.Kind == KindIngredient && li.Provenance == ProvenanceKnown {
			known += li.CO2
		}
	}
	remaining := math.Max(0, est.CO2Kg-known)
	for _, i := range unknown {
		items[i].CO2 = remaining * (items[i].Quantity / unknownMass)
		items[i].Provenance = ProvenanceEstimated
	}

	imp.Applied = true
	imp.EstimatedTotalCO2 = est.CO2Kg
	imp.KnownCO2 = known
	imp.RemainingCO2 = remaining
	imp.Confidence = est.Confidence
	return imp
}

func lineItem(name string, kind Kind, quantity, base float64, f EmissionFactor, prov Provenance) LineItem {
	return LineItem{
		ComponentName: name,
		Kind:          kind,
		Quantity:      quantity,
		CO2:           base * f.CO2PerUnit,
		Water:         base * f.WaterPerUnit,
		Energy:        base * f.EnergyPerUnit,
		Provenance:    prov,
	}
}

func totalMass(req Request) float64 {
	var m float64
	for _, ing := range req.Ingredients {
		m += ing.QuantityKg
	}
	return m + req.Packaging.WeightKg
}
