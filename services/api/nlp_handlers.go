package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ghassane04/EcoLabel-MS/nlp"
)

type NLPHandler struct {
	store     Store
	extractor nlp.Extractor
	log       *zap.Logger
}

func NewNLPHandler(store Store, extractor nlp.Extractor, log *zap.Logger) *NLPHandler {
	return &NLPHandler{store: store, extractor: extractor, log: log}
}

type extractRequest struct {
	Text string `json:"text" binding:"required"`
}

// POST /api/nlp/extract
func (h *NLPHandler) Extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "payload invalide", err)
		return
	}

	// L'agent distant peut être lent ; le repli lexical reste local.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	_, span := tracer.Start(ctx, "nlp.extract")
	res, err := h.extractor.Extract(ctx, req.Text)
	span.End()
	if errors.Is(err, nlp.ErrEmptyText) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "texte vide"})
		return
	}
	if err != nil {
		internalError(c, h.log, "erreur d'extraction", err)
		return
	}
	if res.FallbackReason != "" {
		h.log.Warn("agent Mistral indisponible, extraction lexicale utilisée", zap.String("reason", res.FallbackReason))
	}

	data, err := json.Marshal(res)
	if err != nil {
		internalError(c, h.log, "erreur sérialisation de l'extraction", err)
		return
	}
	entry := &ExtractionLog{RawText: req.Text, ExtractedData: data, Extractor: res.Extractor}
	if err := h.store.InsertExtractionLog(ctx, entry); err != nil {
		// Le journal est un audit : son échec n'invalide pas l'extraction.
		h.log.Warn("journal d'extraction non enregistré", zap.Error(err))
	}

	c.JSON(http.StatusOK, res)
}
