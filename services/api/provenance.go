package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProvenanceHandler expose l'historique des scores et calculs ACV.
type ProvenanceHandler struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewProvenanceHandler(store Store, log *zap.Logger) *ProvenanceHandler {
	return &ProvenanceHandler{store: store, log: log, now: time.Now}
}

// GET /api/provenance/:scoreId
func (h *ProvenanceHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("scoreId"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identifiant de score invalide"})
		return
	}
	ctx := c.Request.Context()

	score, err := h.store.GetScore(ctx, id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "score introuvable"})
		return
	}
	if err != nil {
		internalError(c, h.log, "erreur lors de la lecture du score", err)
		return
	}
	lcaRow, err := h.store.LatestLCAForProduct(ctx, score.ProductName)
	if err != nil {
		internalError(c, h.log, "erreur lors de la lecture du calcul ACV", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"score_id": score.ID,
		"score":    score,
		"lca":      lcaRow,
		"audit": gin.H{
			"score_created_at": score.CreatedAt,
			"retrieved_at":     h.now().UTC(),
			"model_used":       score.ModelUsed,
		},
	})
}

// GET /api/provenance/search/:productName
func (h *ProvenanceHandler) Search(c *gin.Context) {
	q := c.Param("productName")
	scores, err := h.store.SearchScores(c.Request.Context(), q, 20)
	if err != nil {
		internalError(c, h.log, "erreur lors de la recherche", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "results": scores, "count": len(scores)})
}

// GET /api/provenance/history/scores?limit=
func (h *ProvenanceHandler) ScoreHistory(c *gin.Context) {
	scores, err := h.store.RecentScores(c.Request.Context(), limitParam(c, 50, 500))
	if err != nil {
		internalError(c, h.log, "erreur lors de la lecture de l'historique", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scores": scores, "count": len(scores)})
}

// GET /api/provenance/history/lca?limit=
func (h *ProvenanceHandler) LCAHistory(c *gin.Context) {
	results, err := h.store.RecentLCAResults(c.Request.Context(), limitParam(c, 50, 500))
	if err != nil {
		internalError(c, h.log, "erreur lors de la lecture de l'historique", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lca_results": results, "count": len(results)})
}

// GET /api/provenance/stats
func (h *ProvenanceHandler) Stats(c *gin.Context) {
	st, err := h.store.Stats(c.Request.Context())
	if err != nil {
		internalError(c, h.log, "erreur lors du calcul des statistiques", err)
		return
	}
	c.JSON(http.StatusOK, st)
}
