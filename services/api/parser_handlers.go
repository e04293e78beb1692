package main

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ghassane04/EcoLabel-MS/labels"
)

const maxLabelFileSize = 20 << 20

// ParserHandler reçoit les fichiers d'étiquettes et stocke leur texte brut.
type ParserHandler struct {
	store  Store
	parser *labels.Parser
	log    *zap.Logger
}

func NewParserHandler(store Store, parser *labels.Parser, log *zap.Logger) *ParserHandler {
	return &ParserHandler{store: store, parser: parser, log: log}
}

// POST /api/product/parse (multipart : files[], gtin optionnel)
func (h *ParserHandler) Parse(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "formulaire multipart attendu", err)
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "aucun fichier reçu (champ files)"})
		return
	}
	var gtin *string
	if v := strings.TrimSpace(c.PostForm("gtin")); v != "" {
		gtin = &v
	}

	ctx := c.Request.Context()
	out := make([]ProductRaw, 0, len(files))
	for _, fh := range files {
		if fh.Size > maxLabelFileSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "fichier trop volumineux", "filename": fh.Filename})
			return
		}
		f, err := fh.Open()
		if err != nil {
			internalError(c, h.log, "lecture du fichier impossible", err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			internalError(c, h.log, "lecture du fichier impossible", err)
			return
		}

		parsed, err := h.parser.Parse(ctx, labels.Document{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
		switch {
		case errors.Is(err, labels.ErrOCRUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "OCR indisponible sur ce serveur", "filename": fh.Filename})
			return
		case errors.Is(err, labels.ErrEmptyDocument):
			c.JSON(http.StatusBadRequest, gin.H{"error": "fichier vide", "filename": fh.Filename})
			return
		case err != nil:
			h.log.Error("extraction du texte", zap.String("filename", fh.Filename), zap.Error(err))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "texte illisible", "filename": fh.Filename})
			return
		}

		row := ProductRaw{
			GTIN:       gtin,
			SourceType: string(parsed.SourceType),
			Filename:   fh.Filename,
			RawText:    parsed.Text,
		}
		if err := h.store.InsertProductRaw(ctx, &row); err != nil {
			internalError(c, h.log, "erreur lors de l'enregistrement du texte", err)
			return
		}
		out = append(out, row)
	}

	c.JSON(http.StatusOK, gin.H{"products": out, "count": len(out)})
}
