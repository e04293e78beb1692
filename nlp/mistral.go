package nlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ghassane04/EcoLabel-MS/integrations/mistral"
)

// Conversation est la partie du client Mistral utilisée ici.
type Conversation interface {
	SendConversation(ctx context.Context, prompt string) (*mistral.ConversationResponse, error)
}

// MistralExtractor demande à l'agent une réponse JSON ; en cas d'échec il renvoie
// le résultat de Fallback avec FallbackReason renseigné.
type MistralExtractor struct {
	client   Conversation
	taxonomy *Taxonomy
	Fallback Extractor
}

func NewMistralExtractor(client Conversation, t *Taxonomy) *MistralExtractor {
	if t == nil {
		t = DefaultTaxonomy()
	}
	return &MistralExtractor{client: client, taxonomy: t, Fallback: NewLexiconExtractor(t)}
}

type agentAnswer struct {
	Ingredients []struct {
		Name    string  `json:"name"`
		Percent float64 `json:"percent"`
	} `json:"ingredients"`
	NetWeightKg float64 `json:"net_weight_kg"`
}

func (m *MistralExtractor) Extract(ctx context.Context, text string) (Extraction, error) {
	if strings.TrimSpace(text) == "" {
		return Extraction{}, ErrEmptyText
	}
	out, err := m.ask(ctx, text)
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil || m.Fallback == nil {
		return Extraction{}, err
	}
	fb, ferr := m.Fallback.Extract(ctx, text)
	if ferr != nil {
		return Extraction{}, errors.Join(err, ferr)
	}
	fb.FallbackReason = err.Error()
	return fb, nil
}

func (m *MistralExtractor) ask(ctx context.Context, text string) (Extraction, error) {
	if m.client == nil {
		return Extraction{}, errors.New("client mistral non configuré")
	}
	resp, err := m.client.SendConversation(ctx, buildExtractionPrompt(text))
	if err != nil {
		return Extraction{}, fmt.Errorf("mistral: %w", err)
	}
	answer, err := decodeAnswer(resp.FirstText())
	if err != nil {
		return Extraction{}, err
	}

	out := Extraction{Extractor: "mistral", NetWeightKg: answer.NetWeightKg}
	if out.NetWeightKg <= 0 {
		out.NetWeightKg = NetWeightKg(text)
	}
	seen := map[string]bool{}
	for _, a := range answer.Ingredients {
		raw := strings.TrimSpace(a.Name)
		if raw == "" {
			continue
		}
		ing := Ingredient{Raw: raw, Percent: a.Percent}
		group := GroupMisc
		if name, ok := m.taxonomy.Match(raw); ok {
			ing.Name, ing.Known, group = name, true, GroupIngredient
		} else {
			ing.Name = strings.ReplaceAll(Normalize(raw), " ", "_")
		}
		out.Entities = append(out.Entities, Entity{EntityGroup: group, Word: raw, Score: 0.9})
		if seen[ing.Name] {
			continue
		}
		seen[ing.Name] = true
		out.Ingredients = append(out.Ingredients, ing)
	}
	if len(out.Ingredients) == 0 {
		return Extraction{}, errors.New("mistral: aucun ingrédient dans la réponse")
	}
	finish(&out)
	return out, nil
}

// decodeAnswer tolère un bloc de code markdown ou du texte autour de l'objet JSON.
func decodeAnswer(text string) (agentAnswer, error) {
	var a agentAnswer
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return a, errors.New("mistral: réponse sans JSON")
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &a); err != nil {
		return a, fmt.Errorf("mistral: JSON invalide: %w", err)
	}
	return a, nil
}

func buildExtractionPrompt(text string) string {
	return fmt.Sprintf(`Tu es un expert en étiquetage alimentaire.
Voici le texte brut d'une étiquette produit (OCR possible, fautes possibles) :
"""
%s
"""

Objectif :
- Lister les ingrédients dans l'ordre de l'étiquette, avec leur pourcentage s'il est indiqué.
- Donner le poids net du produit en kilogrammes s'il est indiqué.

Réponds UNIQUEMENT avec un objet JSON de la forme :
{"ingredients":[{"name":"tomate","percent":80}],"net_weight_kg":0.5}`, text)
}
