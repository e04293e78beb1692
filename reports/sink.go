// Package reports range les exports CSV des calculs ACV, en local ou sur Google Cloud Storage.
package reports

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ghassane04/EcoLabel-MS/lca"
	"github.com/ghassane04/EcoLabel-MS/utils"
)

// Sink stocke un objet nommé et renvoie son emplacement.
type Sink interface {
	Put(ctx context.Context, name string, r io.Reader) (string, error)
}

// Export écrit le rapport en CSV sous le nom <produit>_<horodatage>.csv.
func Export(ctx context.Context, sink Sink, report lca.ImpactReport, at time.Time) (string, error) {
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf); err != nil {
		return "", fmt.Errorf("reports: CSV: %w", err)
	}
	return sink.Put(ctx, utils.ReportObjectName(report.ProductName, at), &buf)
}

type LocalSink struct {
	Dir string
}

func NewLocalSink(dir string) (*LocalSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("reports: répertoire %s: %w", dir, err)
	}
	return &LocalSink{Dir: dir}, nil
}

// Put écrit dans un fichier temporaire puis renomme, pour ne jamais exposer un export partiel.
func (s *LocalSink) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst := filepath.Join(s.Dir, filepath.Base(name))
	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("reports: écriture %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", err
	}
	return dst, nil
}
