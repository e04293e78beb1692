package reports

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSSink envoie les exports dans un bucket Google Cloud Storage.
type GCSSink struct {
	client *storage.Client
	Bucket string
	Prefix string
}

// NewGCSSink utilise le fichier de compte de service s'il est fourni,
// sinon les identifiants par défaut de l'environnement.
func NewGCSSink(ctx context.Context, bucket, prefix, saKeyPath string) (*GCSSink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("reports: bucket GCS manquant")
	}
	var opts []option.ClientOption
	if saKeyPath != "" {
		if _, err := os.Stat(saKeyPath); err != nil {
			return nil, fmt.Errorf("reports: clé de compte de service introuvable %s: %w", saKeyPath, err)
		}
		opts = append(opts, option.WithCredentialsFile(saKeyPath))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("reports: client GCS: %w", err)
	}
	return &GCSSink{client: client, Bucket: bucket, Prefix: prefix}, nil
}

func (s *GCSSink) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	key := path.Join(s.Prefix, name)
	w := s.client.Bucket(s.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = "text/csv; charset=utf-8"
	w.CacheControl = "no-cache"

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("reports: copie vers gs://%s/%s: %w", s.Bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("reports: fermeture gs://%s/%s: %w", s.Bucket, key, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.Bucket, key), nil
}

func (s *GCSSink) Close() error {
	return s.client.Close()
}
