package main

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ghassane04/EcoLabel-MS/lca"
)

// internalError journalise la cause et renvoie une réponse 500 uniforme.
func internalError(c *gin.Context, log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.Error(err), zap.String("path", c.FullPath()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string, err error) {
	h := gin.H{"error": msg}
	if err != nil {
		h["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, h)
}

// limitParam lit ?limit= borné à [1,max] ; def si absent ou invalide.
func limitParam(c *gin.Context, def, max int) int {
	var q struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&q); err != nil || q.Limit <= 0 {
		return def
	}
	if q.Limit > max {
		return max
	}
	return q.Limit
}

func sortFactors(factors []lca.EmissionFactor) {
	sort.Slice(factors, func(i, j int) bool {
		if factors[i].Category != factors[j].Category {
			return factors[i].Category < factors[j].Category
		}
		return factors[i].Name < factors[j].Name
	})
}
