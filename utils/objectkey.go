package utils

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// ReportObjectName renvoie le nom d'export CSV d'un calcul : <produit>_<aaaammjjhhmmss>.csv.
// Le nom du produit est réduit à des caractères sûrs pour un chemin ou une clé d'objet.
func ReportObjectName(product string, at time.Time) string {
	return SafeName(product) + "_" + at.UTC().Format("20060102150405") + ".csv"
}

// SafeName garde lettres, chiffres, '-' et '_' ; les espaces deviennent '_'.
func SafeName(seed string) string {
	base := strings.TrimSpace(seed)
	var b strings.Builder
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "produit-" + uuid.NewString()[:8]
	}
	return b.String()
}
