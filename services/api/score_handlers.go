package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ghassane04/EcoLabel-MS/scoring"
)

// ScoreHandler attribue les notes A–E et gère le classifieur.
type ScoreHandler struct {
	store     Store
	scorer    *scoring.Scorer
	model     atomic.Pointer[scoring.CentroidModel]
	modelPath string
	metrics   *Metrics
	log       *zap.Logger
}

func NewScoreHandler(store Store, model *scoring.CentroidModel, modelPath string, metrics *Metrics, log *zap.Logger) *ScoreHandler {
	h := &ScoreHandler{store: store, scorer: scoring.NewScorer(nil), modelPath: modelPath, metrics: metrics, log: log}
	if model != nil {
		h.setModel(model)
	}
	return h
}

func (h *ScoreHandler) setModel(m *scoring.CentroidModel) {
	h.model.Store(m)
	h.scorer.SetClassifier(m)
}

// scoreRequest : les champs absents prennent les valeurs par défaut du service.
// co2_kg, water_l et energy_mj sont acceptés comme alias des totaux.
type scoreRequest struct {
	ProductName       string   `json:"product_name" binding:"required"`
	TotalCO2          *float64 `json:"total_co2"`
	TotalWater        *float64 `json:"total_water"`
	TotalEnergy       *float64 `json:"total_energy"`
	CO2Kg             *float64 `json:"co2_kg"`
	WaterL            *float64 `json:"water_l"`
	EnergyMJ          *float64 `json:"energy_mj"`
	PackagingType     string   `json:"packaging_type"`
	PackagingWeightKg *float64 `json:"packaging_weight_kg"`
	TransportKm       *float64 `json:"transport_km"`
	HasBioLabel       flag     `json:"has_bio_label"`
	HasRecyclable     flag     `json:"has_recyclable"`
	HasLocalLabel     flag     `json:"has_local_label"`
	Category          string   `json:"category"`
	MaxCO2Ref         float64  `json:"max_co2_ref"`
	MaxWaterRef       float64  `json:"max_water_ref"`
	MaxEnergyRef      float64  `json:"max_energy_ref"`
}

// flag accepte true/false comme 1/0.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "true", "1":
		*f = true
	case "false", "0", "null":
		*f = false
	default:
		return fmt.Errorf("booléen attendu (true, false, 0 ou 1), reçu %s", b)
	}
	return nil
}

func firstOf(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

func (r scoreRequest) toScoring() scoring.Request {
	out := scoring.Request{
		ProductName:       r.ProductName,
		TotalCO2:          firstOf(r.TotalCO2, r.CO2Kg),
		TotalWater:        firstOf(r.TotalWater, r.WaterL),
		TotalEnergy:       firstOf(r.TotalEnergy, r.EnergyMJ),
		PackagingType:     r.PackagingType,
		PackagingWeightKg: 0.3,
		TransportKm:       200,
		HasBioLabel:       bool(r.HasBioLabel),
		HasRecyclable:     bool(r.HasRecyclable),
		HasLocalLabel:     bool(r.HasLocalLabel),
		Category:          r.Category,
		MaxCO2Ref:         r.MaxCO2Ref,
		MaxWaterRef:       r.MaxWaterRef,
		MaxEnergyRef:      r.MaxEnergyRef,
	}
	if out.PackagingType == "" {
		out.PackagingType = "plastic"
	}
	if out.Category == "" {
		out.Category = "processed"
	}
	if r.PackagingWeightKg != nil {
		out.PackagingWeightKg = *r.PackagingWeightKg
	}
	if r.TransportKm != nil {
		out.TransportKm = *r.TransportKm
	}
	return out
}

type scoreResponse struct {
	ID int64 `json:"id"`
	scoring.Result
	CreatedAt time.Time `json:"created_at"`
}

// POST /api/score/compute
func (h *ScoreHandler) Compute(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "payload invalide", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	_, span := tracer.Start(ctx, "score.compute")
	res, fallbackErr := h.scorer.Score(req.toScoring())
	span.End()
	if fallbackErr != nil {
		h.log.Warn("classifieur indisponible, formule de repli utilisée",
			zap.String("product", req.ProductName), zap.Error(fallbackErr))
	}

	row := &ProductScore{
		ProductName:     res.ProductName,
		ScoreNumerical:  res.Score,
		ScoreLetter:     res.Letter,
		ConfidenceLevel: res.Confidence,
		Explanation:     res.Explanation,
		ModelUsed:       res.ModelUsed,
	}
	if err := h.store.InsertScore(ctx, row); err != nil {
		internalError(c, h.log, "erreur lors de l'enregistrement du score", err)
		return
	}
	h.metrics.RecordScore(res.Letter, res.ModelUsed)

	c.JSON(http.StatusOK, scoreResponse{ID: row.ID, Result: res, CreatedAt: row.CreatedAt})
}

// GET /api/score/model-info
func (h *ScoreHandler) ModelInfo(c *gin.Context) {
	m := h.model.Load()
	if m == nil {
		c.JSON(http.StatusOK, gin.H{"model": scoring.RuleModelName, "status": "classifieur non chargé"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"model":             m.Name,
		"status":            "chargé",
		"trained_at":        m.TrainedAt,
		"dataset_size":      m.DatasetSize,
		"train_size":        m.TrainSize,
		"test_size":         m.TestSize,
		"accuracy":          m.Accuracy,
		"class_counts":      m.ClassCounts,
		"features":          scoring.FeatureNames,
		"packaging_classes": m.PackagingClasses,
		"category_classes":  m.CategoryClasses,
	})
}

// POST /api/score/train réentraîne le classifieur sur le jeu embarqué, ou sur le
// CSV envoyé dans le champ "file", puis le publie sans interrompre le service.
func (h *ScoreHandler) Train(c *gin.Context) {
	samples, err := h.trainingSamples(c)
	if err != nil {
		badRequest(c, "jeu d'entraînement invalide", err)
		return
	}

	m, err := scoring.TrainCentroids(samples, 0.2, time.Now().UnixNano())
	if err != nil {
		badRequest(c, "entraînement impossible", err)
		return
	}
	if h.modelPath != "" {
		if err := m.Save(h.modelPath); err != nil {
			h.log.Warn("sauvegarde du classifieur impossible", zap.String("path", h.modelPath), zap.Error(err))
		}
	}
	h.setModel(m)
	h.log.Info("classifieur réentraîné", zap.Int("samples", m.DatasetSize), zap.Float64("accuracy", m.Accuracy))

	c.JSON(http.StatusOK, gin.H{
		"status":       "entraîné",
		"model":        m.Name,
		"dataset_size": m.DatasetSize,
		"accuracy":     m.Accuracy,
	})
}

func (h *ScoreHandler) trainingSamples(c *gin.Context) ([]scoring.Sample, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return scoring.DefaultDataset()
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return scoring.ReadDataset(f)
}

