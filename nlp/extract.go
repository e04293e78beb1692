// Package nlp extrait la liste d'ingrédients d'un texte d'étiquette.
//
// LexiconExtractor fonctionne hors ligne à partir d'une taxonomie de synonymes
// français/anglais. MistralExtractor interroge un agent Mistral et se replie sur
// le lexique quand l'agent est injoignable ou répond hors format.
package nlp

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var ErrEmptyText = errors.New("nlp: texte vide")

// Groupes d'entités renvoyés au client.
const (
	GroupIngredient = "INGREDIENT"
	GroupMisc       = "MISC"
)

type Entity struct {
	EntityGroup string  `json:"entity_group"`
	Word        string  `json:"word"`
	Score       float64 `json:"score"`
}

type Ingredient struct {
	Name       string  `json:"name"`
	Raw        string  `json:"raw"`
	Known      bool    `json:"known"`
	Percent    float64 `json:"percent,omitempty"`
	QuantityKg float64 `json:"quantity_kg,omitempty"`
}

type Extraction struct {
	Entities              []Entity     `json:"entities"`
	NormalizedIngredients []string     `json:"normalized_ingredients"`
	Ingredients           []Ingredient `json:"ingredients"`
	NetWeightKg           float64      `json:"net_weight_kg,omitempty"`
	Extractor             string       `json:"extractor"`
	FallbackReason        string       `json:"fallback_reason,omitempty"`
}

type Extractor interface {
	Extract(ctx context.Context, text string) (Extraction, error)
}

var (
	reSection    = regexp.MustCompile(`(?i)ingr[ée]dients?\s*[:：]?`)
	reSectionEnd = regexp.MustCompile(`\.(\s|$)|\n\s*\n`)
	rePercent    = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)
	reNetWeight  = regexp.MustCompile(`(?i)(?:poids\s+net|net\s+weight|net\s+wt|poids|contenance)\s*[:.]?\s*(\d+(?:[.,]\d+)?)\s*(kg|g|l|cl|ml)\b`)
	reAnyWeight  = regexp.MustCompile(`(?i)\b(\d+(?:[.,]\d+)?)\s*(kg|g|l|cl|ml)\b`)
	reSplit      = regexp.MustCompile(`[,;()\[\]\n•]|\s+et\s+|\s+and\s+`)
	reDecimal    = regexp.MustCompile(`(\d),(\d)`)
)

// LexiconExtractor est l'extracteur hors ligne.
type LexiconExtractor struct {
	taxonomy *Taxonomy
}

func NewLexiconExtractor(t *Taxonomy) *LexiconExtractor {
	if t == nil {
		t = DefaultTaxonomy()
	}
	return &LexiconExtractor{taxonomy: t}
}

func (l *LexiconExtractor) Extract(ctx context.Context, text string) (Extraction, error) {
	if strings.TrimSpace(text) == "" {
		return Extraction{}, ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return Extraction{}, err
	}

	out := Extraction{Extractor: "lexicon", NetWeightKg: NetWeightKg(text)}
	seen := map[string]int{}
	// "85,5 %" : la virgule décimale ne doit pas séparer deux ingrédients.
	section := reDecimal.ReplaceAllString(ingredientSection(text), "$1.$2")
	for _, frag := range reSplit.Split(section, -1) {
		raw := strings.TrimSpace(frag)
		pct := 0.0
		if m := rePercent.FindStringSubmatch(raw); m != nil {
			pct = parseNumber(m[1])
			raw = strings.TrimSpace(rePercent.ReplaceAllString(raw, ""))
		}
		raw = strings.Trim(raw, " .:-*")
		if !hasLetter(raw) {
			continue
		}

		ing := Ingredient{Raw: raw, Percent: pct}
		score := 0.5
		if name, ok := l.taxonomy.Match(raw); ok {
			ing.Name, ing.Known = name, true
			score = 0.85
			if _, exact := l.taxonomy.synonyms[Normalize(raw)]; exact {
				score = 0.99
			}
		} else {
			ing.Name = strings.ReplaceAll(Normalize(raw), " ", "_")
		}

		group := GroupMisc
		if ing.Known {
			group = GroupIngredient
		}
		out.Entities = append(out.Entities, Entity{EntityGroup: group, Word: raw, Score: score})

		if i, dup := seen[ing.Name]; dup {
			if out.Ingredients[i].Percent == 0 {
				out.Ingredients[i].Percent = pct
			}
			continue
		}
		seen[ing.Name] = len(out.Ingredients)
		out.Ingredients = append(out.Ingredients, ing)
	}
	finish(&out)
	return out, nil
}

// finish remplit les quantités à partir des pourcentages et du poids net.
func finish(out *Extraction) {
	out.NormalizedIngredients = make([]string, 0, len(out.Ingredients))
	for i := range out.Ingredients {
		ing := &out.Ingredients[i]
		if ing.QuantityKg == 0 && ing.Percent > 0 && out.NetWeightKg > 0 {
			ing.QuantityKg = roundGram(out.NetWeightKg * ing.Percent / 100)
		}
		out.NormalizedIngredients = append(out.NormalizedIngredients, ing.Name)
	}
	if out.Entities == nil {
		out.Entities = []Entity{}
	}
	if out.Ingredients == nil {
		out.Ingredients = []Ingredient{}
	}
}

// ingredientSection isole la liste après "Ingrédients :" jusqu'au premier point final
// ou paragraphe vide. Sans en-tête, tout le texte est analysé.
func ingredientSection(text string) string {
	loc := reSection.FindStringIndex(text)
	if loc == nil {
		return text
	}
	rest := text[loc[1]:]
	if end := reSectionEnd.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	return rest
}

// NetWeightKg cherche une mention de poids net ; à défaut la première masse du texte.
// Les volumes sont comptés à 1 kg/L.
func NetWeightKg(text string) float64 {
	m := reNetWeight.FindStringSubmatch(text)
	if m == nil {
		m = reAnyWeight.FindStringSubmatch(text)
	}
	if m == nil {
		return 0
	}
	v := parseNumber(m[1])
	switch strings.ToLower(m[2]) {
	case "g", "ml":
		v /= 1000
	case "cl":
		v /= 100
	}
	return roundGram(v)
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0
	}
	return v
}

func roundGram(v float64) float64 {
	return float64(int64(v*1000+0.5)) / 1000
}

func hasLetter(s string) bool {
	for _, r := range s {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || r > 127 {
			return true
		}
	}
	return false
}
