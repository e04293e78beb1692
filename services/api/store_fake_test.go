package main

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ghassane04/EcoLabel-MS/lca"
)

// fakeStore garde les lignes en mémoire ; les plus récentes en fin de slice.
type fakeStore struct {
	mu        sync.Mutex
	pingErr   error
	insertErr error
	factors   []lca.EmissionFactor
	lca       []LCAResult
	scores    []ProductScore
	raw       []ProductRaw
	logs      []ExtractionLog
	clock     time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		factors: lca.DefaultFactors(),
		clock:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func (s *fakeStore) ListFactors(context.Context) ([]lca.EmissionFactor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]lca.EmissionFactor(nil), s.factors...), nil
}

func (s *fakeStore) InsertLCAResult(_ context.Context, r *LCAResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	r.ID, r.CreatedAt = int64(len(s.lca)+1), s.tick()
	s.lca = append(s.lca, *r)
	return nil
}

func (s *fakeStore) SetReportLocation(_ context.Context, id int64, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lca {
		if s.lca[i].ID == id {
			s.lca[i].ReportLocation = location
			return nil
		}
	}
	return errors.New("lca_results: ligne introuvable")
}

func (s *fakeStore) InsertScore(_ context.Context, p *ProductScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	p.ID, p.CreatedAt = int64(len(s.scores)+1), s.tick()
	s.scores = append(s.scores, *p)
	return nil
}

func (s *fakeStore) InsertProductRaw(_ context.Context, p *ProductRaw) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID, p.CreatedAt = int64(len(s.raw)+1), s.tick()
	s.raw = append(s.raw, *p)
	return nil
}

func (s *fakeStore) InsertExtractionLog(_ context.Context, l *ExtractionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	l.ID, l.CreatedAt = int64(len(s.logs)+1), s.tick()
	s.logs = append(s.logs, *l)
	return nil
}

func (s *fakeStore) GetScore(_ context.Context, id int64) (ProductScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.scores {
		if p.ID == id {
			return p, nil
		}
	}
	return ProductScore{}, ErrNotFound
}

func (s *fakeStore) LatestLCAForProduct(_ context.Context, name string) (*LCAResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.lca) - 1; i >= 0; i-- {
		if s.lca[i].ProductName == name {
			r := s.lca[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) SearchScores(_ context.Context, q string, limit int) ([]ProductScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []ProductScore{}
	for i := len(s.scores) - 1; i >= 0 && len(out) < limit; i-- {
		if strings.Contains(strings.ToLower(s.scores[i].ProductName), strings.ToLower(q)) {
			out = append(out, s.scores[i])
		}
	}
	return out, nil
}

func (s *fakeStore) RecentScores(_ context.Context, limit int) ([]ProductScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []ProductScore{}
	for i := len(s.scores) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.scores[i])
	}
	return out, nil
}

func (s *fakeStore) RecentLCAResults(_ context.Context, limit int) ([]LCAResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []LCAResult{}
	for i := len(s.lca) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.lca[i])
	}
	return out, nil
}

func (s *fakeStore) Stats(context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{
		TotalScores:       int64(len(s.scores)),
		TotalLCA:          int64(len(s.lca)),
		GradeDistribution: map[string]int64{},
	}
	var sum float64
	for _, p := range s.scores {
		sum += p.ScoreNumerical
		st.GradeDistribution[p.ScoreLetter]++
	}
	if len(s.scores) > 0 {
		avg := sum / float64(len(s.scores))
		st.AverageScore = round2(&avg)
	}
	return st, nil
}
