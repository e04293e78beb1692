package nlp

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Les noms canoniques sont ceux du catalogue de facteurs d'émission.
var defaultTaxonomy = map[string][]string{
	"tomato":        {"tomate", "tomates", "tomato", "tomatoes", "concentré de tomate", "purée de tomate", "tomato paste"},
	"sugar":         {"sucre", "sugar", "sucre de canne", "cane sugar", "sirop de glucose", "glucose syrup"},
	"salt":          {"sel", "salt", "sel de mer", "sea salt"},
	"water":         {"eau", "water"},
	"milk":          {"lait", "milk", "lait entier", "whole milk", "lait écrémé", "skimmed milk"},
	"cream":         {"crème", "cream", "crème fraîche"},
	"butter":        {"beurre", "butter"},
	"cheese":        {"fromage", "cheese", "emmental", "mozzarella", "parmesan"},
	"beef":          {"boeuf", "bœuf", "beef", "viande de boeuf"},
	"chicken":       {"poulet", "chicken", "volaille"},
	"pork":          {"porc", "pork", "jambon", "ham", "lardons"},
	"egg":           {"oeuf", "oeufs", "œuf", "œufs", "egg", "eggs"},
	"wheat_flour":   {"farine de blé", "farine", "wheat flour", "flour", "blé", "wheat"},
	"olive_oil":     {"huile d'olive", "olive oil"},
	"sunflower_oil": {"huile de tournesol", "sunflower oil"},
	"onion":         {"oignon", "oignons", "onion", "onions"},
	"garlic":        {"ail", "garlic"},
	"carrot":        {"carotte", "carottes", "carrot", "carrots"},
	"potato":        {"pomme de terre", "pommes de terre", "potato", "potatoes"},
	"basil":         {"basilic", "basil"},
	"vinegar":       {"vinaigre", "vinegar"},
	"cocoa":         {"cacao", "cocoa"},
	"rice":          {"riz", "rice"},
}

// Taxonomy associe chaque synonyme normalisé à son nom canonique.
type Taxonomy struct {
	synonyms map[string]string
	// synonymes triés du plus long au plus court pour la recherche par sous-chaîne
	ordered []string
}

func NewTaxonomy(entries map[string][]string) *Taxonomy {
	t := &Taxonomy{synonyms: map[string]string{}}
	for canonical, syns := range entries {
		t.add(canonical, canonical)
		for _, s := range syns {
			t.add(s, canonical)
		}
	}
	for s := range t.synonyms {
		t.ordered = append(t.ordered, s)
	}
	sort.Slice(t.ordered, func(i, j int) bool {
		if len(t.ordered[i]) != len(t.ordered[j]) {
			return len(t.ordered[i]) > len(t.ordered[j])
		}
		return t.ordered[i] < t.ordered[j]
	})
	return t
}

func DefaultTaxonomy() *Taxonomy {
	return NewTaxonomy(defaultTaxonomy)
}

func (t *Taxonomy) add(synonym, canonical string) {
	if k := Normalize(synonym); k != "" {
		t.synonyms[k] = canonical
	}
}

// Match renvoie le nom canonique d'un fragment : correspondance exacte d'abord,
// puis le plus long synonyme contenu dans le fragment (mots entiers).
func (t *Taxonomy) Match(fragment string) (string, bool) {
	k := Normalize(fragment)
	if k == "" {
		return "", false
	}
	if c, ok := t.synonyms[k]; ok {
		return c, true
	}
	padded := " " + k + " "
	for _, s := range t.ordered {
		if strings.Contains(padded, " "+s+" ") {
			return t.synonyms[s], true
		}
	}
	return "", false
}

// Normalize met en minuscules, retire les accents et réduit la ponctuation à des espaces.
func Normalize(s string) string {
	tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(tr, s)
	if err != nil {
		folded = s
	}
	folded = strings.NewReplacer("œ", "oe", "Œ", "oe", "'", " ", "’", " ").Replace(folded)
	fields := strings.FieldsFunc(strings.ToLower(folded), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}
