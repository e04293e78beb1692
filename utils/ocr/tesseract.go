// Package ocr branche tesseract (gosseract, cgo) derrière labels.Recognizer.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractRecognizer fait l'OCR des étiquettes via tesseract (gosseract).
// Les PDF sont d'abord rastérisés page par page avec pdftoppm.
type TesseractRecognizer struct {
	Languages []string
	PDFToPPM  string
}

func NewTesseractRecognizer(languages ...string) *TesseractRecognizer {
	if len(languages) == 0 {
		languages = []string{"fra", "eng"}
	}
	return &TesseractRecognizer{Languages: languages, PDFToPPM: "pdftoppm"}
}

// RecognizeImage fait l'OCR sur une image PNG/JPG en mémoire
func (r *TesseractRecognizer) RecognizeImage(ctx context.Context, img []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(r.Languages...); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return "", err
	}
	return client.Text()
}

// RecognizePDF convertit le PDF en PNG puis concatène le texte de chaque page.
func (r *TesseractRecognizer) RecognizePDF(ctx context.Context, pdf []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "ocrpdf-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "upload.pdf")
	if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
		return "", err
	}

	imgs, err := r.convertPDFToPNGs(ctx, pdfPath, filepath.Join(tmpDir, "images"))
	if err != nil {
		// fallback : certains "PDF" reçus sont en fait des images
		if text, ierr := r.RecognizeImage(ctx, pdf); ierr == nil {
			return text, nil
		}
		return "", err
	}

	var fullText strings.Builder
	for _, img := range imgs {
		b, err := os.ReadFile(img)
		if err != nil {
			continue
		}
		t, err := r.RecognizeImage(ctx, b)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		fullText.WriteString(t)
		fullText.WriteString("\n")
	}
	return fullText.String(), nil
}

func (r *TesseractRecognizer) convertPDFToPNGs(ctx context.Context, pdfPath, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, r.PDFToPPM, "-png", pdfPath, filepath.Join(outDir, "page"))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm error: %v: %s", err, stderr.String())
	}
	return filepath.Glob(filepath.Join(outDir, "page*.png"))
}
