package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ghassane04/EcoLabel-MS/imputer"
	"github.com/ghassane04/EcoLabel-MS/lca"
	"github.com/ghassane04/EcoLabel-MS/reports"
)

// LCAHandler regroupe le calcul ACV et le catalogue de facteurs.
type LCAHandler struct {
	store     Store
	estimator *lca.Estimator
	catalog   *lca.Snapshot
	model     *imputer.Model
	sink      reports.Sink
	metrics   *Metrics
	log       *zap.Logger
	now       func() time.Time
}

func NewLCAHandler(store Store, estimator *lca.Estimator, catalog *lca.Snapshot, model *imputer.Model,
	sink reports.Sink, metrics *Metrics, log *zap.Logger) *LCAHandler {
	return &LCAHandler{
		store:     store,
		estimator: estimator,
		catalog:   catalog,
		model:     model,
		sink:      sink,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

type calcRequest struct {
	ProductName string           `json:"product_name" binding:"required"`
	Ingredients []lca.Ingredient `json:"ingredients"`
	Packaging   lca.Packaging    `json:"packaging"`
	Transport   lca.Transport    `json:"transport"`
}

type calcResponse struct {
	ID             int64           `json:"id"`
	ProductName    string          `json:"product_name"`
	TotalCO2       float64         `json:"total_co2_kg"`
	TotalWater     float64         `json:"total_water_l"`
	TotalEnergy    float64         `json:"total_energy_mj"`
	UsedEstimation bool            `json:"used_estimation"`
	Breakdown      breakdown       `json:"breakdown"`
	Imputation     *lca.Imputation `json:"imputation,omitempty"`
	ReportLocation string          `json:"report_location,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type breakdown struct {
	Items []lca.LineItem `json:"items"`
}

// POST /api/lca/calc
func (h *LCAHandler) Calculate(c *gin.Context) {
	var req calcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "payload invalide", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	_, span := tracer.Start(ctx, "lca.calculate")
	report := h.estimator.Calculate(lca.Request{
		ProductName: req.ProductName,
		Ingredients: req.Ingredients,
		Packaging:   req.Packaging,
		Transport:   req.Transport,
	}, h.catalog.Load())
	span.SetAttributes(
		attribute.Int("lca.ingredients", len(req.Ingredients)),
		attribute.Bool("lca.used_estimation", report.UsedEstimation),
		attribute.String("lca.fallback", report.Fallback()),
	)
	span.End()

	if reason := report.Fallback(); reason != "" {
		fields := []zap.Field{
			zap.String("product", report.ProductName),
			zap.String("reason", reason),
			zap.Int("unknown_ingredients", report.Imputation.UnknownIngredients),
		}
		if report.Imputation.Err != "" {
			fields = append(fields, zap.String("error", report.Imputation.Err))
		}
		h.log.Warn("estimateur CO2 non utilisé, valeurs par défaut conservées", fields...)
	}

	details, err := json.Marshal(gin.H{"items": report.LineItems, "imputation": report.Imputation})
	if err != nil {
		internalError(c, h.log, "erreur sérialisation du rapport", err)
		return
	}
	row := &LCAResult{
		ProductName:    report.ProductName,
		TotalCO2:       report.TotalCO2,
		TotalWater:     report.TotalWater,
		TotalEnergy:    report.TotalEnergy,
		UsedEstimation: report.UsedEstimation,
		Details:        details,
	}
	if err := h.store.InsertLCAResult(ctx, row); err != nil {
		internalError(c, h.log, "erreur lors de l'enregistrement du calcul", err)
		return
	}

	// L'export objet suit l'insertion : un échec est journalisé sans faire échouer le calcul.
	var location string
	if h.sink != nil {
		loc, err := reports.Export(ctx, h.sink, report, h.now())
		if err != nil {
			h.log.Warn("export CSV impossible", zap.String("product", report.ProductName), zap.Error(err))
		} else if err := h.store.SetReportLocation(ctx, row.ID, loc); err != nil {
			h.log.Warn("emplacement du rapport non enregistré", zap.Int64("id", row.ID), zap.String("location", loc), zap.Error(err))
		} else {
			location = loc
		}
	}
	h.metrics.RecordLCA(report.UsedEstimation, report.Fallback())

	c.JSON(http.StatusOK, calcResponse{
		ID:             row.ID,
		ProductName:    report.ProductName,
		TotalCO2:       report.TotalCO2,
		TotalWater:     report.TotalWater,
		TotalEnergy:    report.TotalEnergy,
		UsedEstimation: report.UsedEstimation,
		Breakdown:      breakdown{Items: report.LineItems},
		Imputation:     report.Imputation,
		ReportLocation: location,
		CreatedAt:      row.CreatedAt,
	})
}

// GET /api/lca/factors
func (h *LCAHandler) ListFactors(c *gin.Context) {
	table := h.catalog.Load()
	factors := make([]lca.EmissionFactor, 0, len(table))
	for _, f := range table {
		factors = append(factors, f)
	}
	sortFactors(factors)
	c.JSON(http.StatusOK, gin.H{"factors": factors, "count": len(factors)})
}

// POST /api/lca/factors/reload relit emission_factors et publie une nouvelle table.
// Les calculs en cours terminent avec la table qu'ils ont chargée.
func (h *LCAHandler) ReloadFactors(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	count, err := loadCatalog(ctx, h.store, h.catalog)
	if err != nil {
		internalError(c, h.log, "erreur lors du rechargement des facteurs", err)
		return
	}
	h.log.Info("catalogue de facteurs rechargé", zap.Int("count", count))
	c.JSON(http.StatusOK, gin.H{"reloaded": count})
}

// GET /api/lca/model-info
func (h *LCAHandler) ModelInfo(c *gin.Context) {
	if h.model == nil {
		c.JSON(http.StatusOK, gin.H{"model": nil, "status": "indisponible : valeurs par défaut utilisées"})
		return
	}
	coefficients := make(map[string]float64, len(imputer.FeatureNames))
	for i, name := range imputer.FeatureNames {
		coefficients[name] = h.model.Coefficients[i]
	}
	c.JSON(http.StatusOK, gin.H{
		"model":             h.model.Name,
		"status":            "chargé",
		"trained_at":        h.model.TrainedAt,
		"dataset_size":      h.model.DatasetSize,
		"train_size":        h.model.TrainSize,
		"test_size":         h.model.TestSize,
		"metrics":           h.model.Metrics,
		"coefficients":      coefficients,
		"packaging_classes": h.model.PackagingClasses,
		"co2_range":         h.model.CO2Range,
		"features":          imputer.FeatureNames[1:],
	})
}

func loadCatalog(ctx context.Context, store Store, snap *lca.Snapshot) (int, error) {
	factors, err := store.ListFactors(ctx)
	if err != nil {
		return 0, err
	}
	snap.Store(lca.NewFactorTable(factors))
	return len(factors), nil
}
