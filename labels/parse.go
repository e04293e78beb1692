// Package labels convertit un fichier d'étiquette produit (photo, PDF, page HTML ou
// texte brut) en texte exploitable par l'extraction d'ingrédients.
package labels

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

type SourceType string

const (
	SourceImage SourceType = "image"
	SourcePDF   SourceType = "pdf"
	SourceHTML  SourceType = "html"
	SourceText  SourceType = "text"
)

var (
	ErrEmptyDocument  = errors.New("labels: document vide")
	ErrOCRUnavailable = errors.New("labels: OCR indisponible")
)

// Recognizer est le moteur OCR injecté.
type Recognizer interface {
	RecognizeImage(ctx context.Context, img []byte) (string, error)
	RecognizePDF(ctx context.Context, pdf []byte) (string, error)
}

// Document est un fichier reçu tel quel.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Parsed struct {
	SourceType SourceType `json:"source_type"`
	Text       string     `json:"raw_text"`
}

type Parser struct {
	ocr Recognizer
}

// NewParser accepte un Recognizer nil : images et PDF renvoient alors ErrOCRUnavailable.
func NewParser(ocr Recognizer) *Parser {
	return &Parser{ocr: ocr}
}

// Detect choisit le traitement d'après le type MIME puis l'extension.
func Detect(doc Document) SourceType {
	ct := strings.ToLower(doc.ContentType)
	ext := strings.ToLower(filepath.Ext(doc.Filename))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return SourceImage
	case ct == "application/pdf" || ext == ".pdf":
		return SourcePDF
	case strings.HasPrefix(ct, "text/html") || ext == ".html" || ext == ".htm":
		return SourceHTML
	default:
		return SourceText
	}
}

func (p *Parser) Parse(ctx context.Context, doc Document) (Parsed, error) {
	if len(doc.Data) == 0 {
		return Parsed{}, ErrEmptyDocument
	}
	out := Parsed{SourceType: Detect(doc)}

	var err error
	switch out.SourceType {
	case SourceImage:
		if p.ocr == nil {
			return out, ErrOCRUnavailable
		}
		out.Text, err = p.ocr.RecognizeImage(ctx, doc.Data)
	case SourcePDF:
		if p.ocr == nil {
			return out, ErrOCRUnavailable
		}
		out.Text, err = p.ocr.RecognizePDF(ctx, doc.Data)
	case SourceHTML:
		out.Text, err = HTMLText(bytes.NewReader(doc.Data))
	default:
		out.Text = strings.ToValidUTF8(string(doc.Data), "")
	}
	if err != nil {
		return out, fmt.Errorf("labels: %s %q: %w", out.SourceType, doc.Filename, err)
	}
	out.Text = strings.TrimSpace(out.Text)
	return out, nil
}

// HTMLText renvoie le texte visible d'une page, un bloc par ligne.
// Le contenu des balises script, style et noscript est ignoré.
func HTMLText(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	var (
		b    strings.Builder
		skip int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", err
			}
			return strings.TrimSpace(b.String()), nil
		case html.StartTagToken:
			if hidden(z) {
				skip++
			}
		case html.EndTagToken:
			if hidden(z) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			if t := strings.TrimSpace(string(z.Text())); t != "" {
				b.WriteString(t)
				b.WriteByte('\n')
			}
		}
	}
}

func hidden(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style", "noscript":
		return true
	}
	return false
}
