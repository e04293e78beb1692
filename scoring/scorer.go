package scoring

import (
	"errors"
	"sort"
	"sync/atomic"
)

var ErrClassifierUnavailable = errors.New("scoring: classifieur indisponible")

// Classification est la sortie d'un classifieur entraîné.
type Classification struct {
	Grade         string             `json:"grade"`
	Probabilities map[string]float64 `json:"probabilities"`
	Confidence    float64            `json:"confidence"`
	ModelName     string             `json:"model_name"`
}

// Classifier est la capacité de classement injectée.
type Classifier interface {
	Classify(req Request) (Classification, error)
}

// Scorer essaie le classifieur puis se replie sur RuleBased.
// Le classifieur peut être remplacé à chaud (réentraînement) sans verrou côté lecture.
type Scorer struct {
	classifier atomic.Pointer[classifierHandle]
}

type classifierHandle struct {
	c Classifier
}

func NewScorer(c Classifier) *Scorer {
	s := &Scorer{}
	s.SetClassifier(c)
	return s
}

// SetClassifier remplace le classifieur ; nil active la formule seule.
func (s *Scorer) SetClassifier(c Classifier) {
	s.classifier.Store(&classifierHandle{c: c})
}

func (s *Scorer) Classifier() Classifier {
	if h := s.classifier.Load(); h != nil {
		return h.c
	}
	return nil
}

// Score renvoie toujours un résultat ; fallbackErr est non nil quand le classifieur
// existait mais a échoué (à journaliser par l'appelant).
func (s *Scorer) Score(req Request) (res Result, fallbackErr error) {
	if c := s.Classifier(); c != nil {
		cl, err := c.Classify(req)
		if err == nil {
			res = fromClassification(req, cl)
			res.Explanation = Explain(req, res)
			return res, nil
		}
		fallbackErr = err
	}
	res = RuleBased(req)
	res.Explanation = Explain(req, res)
	return res, fallbackErr
}

func fromClassification(req Request, cl Classification) Result {
	grades := make([]string, 0, len(cl.Probabilities))
	for g := range cl.Probabilities {
		grades = append(grades, g)
	}
	sort.Strings(grades)

	var score float64
	for _, g := range grades {
		v, ok := ScoreValues[g]
		if !ok {
			v = 50
		}
		score += v * cl.Probabilities[g]
	}
	name := cl.ModelName
	if name == "" {
		name = "classifier"
	}
	return Result{
		ProductName:   req.ProductName,
		Score:         round1(score),
		Letter:        cl.Grade,
		Confidence:    cl.Confidence,
		Probabilities: cl.Probabilities,
		ModelUsed:     name,
	}
}
