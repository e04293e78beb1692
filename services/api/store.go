package main

import (
	"context"
	"errors"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ghassane04/EcoLabel-MS/lca"
)

var ErrNotFound = errors.New("introuvable")

// Store regroupe les accès base de données des handlers.
type Store interface {
	Ping(ctx context.Context) error
	ListFactors(ctx context.Context) ([]lca.EmissionFactor, error)
	InsertLCAResult(ctx context.Context, r *LCAResult) error
	SetReportLocation(ctx context.Context, id int64, location string) error
	InsertScore(ctx context.Context, s *ProductScore) error
	InsertProductRaw(ctx context.Context, p *ProductRaw) error
	InsertExtractionLog(ctx context.Context, l *ExtractionLog) error
	GetScore(ctx context.Context, id int64) (ProductScore, error)
	LatestLCAForProduct(ctx context.Context, productName string) (*LCAResult, error)
	SearchScores(ctx context.Context, query string, limit int) ([]ProductScore, error)
	RecentScores(ctx context.Context, limit int) ([]ProductScore, error)
	RecentLCAResults(ctx context.Context, limit int) ([]LCAResult, error)
	Stats(ctx context.Context) (Stats, error)
}

type pgStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *pgStore) ListFactors(ctx context.Context) ([]lca.EmissionFactor, error) {
	rows, err := s.db.Query(ctx,
		`SELECT name, category, co2_per_unit, water_per_unit, energy_per_unit
		 FROM emission_factors ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []lca.EmissionFactor
	for rows.Next() {
		var f lca.EmissionFactor
		var category string
		if err := rows.Scan(&f.Name, &category, &f.CO2PerUnit, &f.WaterPerUnit, &f.EnergyPerUnit); err != nil {
			return nil, err
		}
		f.Category = lca.Category(category)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *pgStore) InsertLCAResult(ctx context.Context, r *LCAResult) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO lca_results (product_name, total_co2, total_water, total_energy, used_estimation, details, report_location)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING id, created_at`,
		r.ProductName, r.TotalCO2, r.TotalWater, r.TotalEnergy, r.UsedEstimation, []byte(r.Details), r.ReportLocation,
	).Scan(&r.ID, &r.CreatedAt)
}

func (s *pgStore) SetReportLocation(ctx context.Context, id int64, location string) error {
	_, err := s.db.Exec(ctx, `UPDATE lca_results SET report_location = $2 WHERE id = $1`, id, location)
	return err
}

func (s *pgStore) InsertScore(ctx context.Context, p *ProductScore) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO product_scores (product_name, score_numerical, score_letter, confidence_level, explanation, model_used)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING id, created_at`,
		p.ProductName, p.ScoreNumerical, p.ScoreLetter, p.ConfidenceLevel, p.Explanation, p.ModelUsed,
	).Scan(&p.ID, &p.CreatedAt)
}

func (s *pgStore) InsertProductRaw(ctx context.Context, p *ProductRaw) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO product_raw (gtin, source_type, filename, raw_text)
		 VALUES ($1,$2,$3,$4)
		 RETURNING id, created_at`,
		p.GTIN, p.SourceType, p.Filename, p.RawText,
	).Scan(&p.ID, &p.CreatedAt)
}

func (s *pgStore) InsertExtractionLog(ctx context.Context, l *ExtractionLog) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO extraction_log (raw_text, extracted_data, extractor)
		 VALUES ($1,$2,$3)
		 RETURNING id, created_at`,
		l.RawText, []byte(l.ExtractedData), l.Extractor,
	).Scan(&l.ID, &l.CreatedAt)
}

const scoreColumns = `id, product_name, score_numerical, score_letter, confidence_level, explanation, model_used, created_at`

func scanScore(row pgx.Row) (ProductScore, error) {
	var p ProductScore
	err := row.Scan(&p.ID, &p.ProductName, &p.ScoreNumerical, &p.ScoreLetter, &p.ConfidenceLevel, &p.Explanation, &p.ModelUsed, &p.CreatedAt)
	return p, err
}

func (s *pgStore) GetScore(ctx context.Context, id int64) (ProductScore, error) {
	p, err := scanScore(s.db.QueryRow(ctx, `SELECT `+scoreColumns+` FROM product_scores WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

func (s *pgStore) queryScores(ctx context.Context, sql string, args ...any) ([]ProductScore, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ProductScore{}
	for rows.Next() {
		p, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *pgStore) SearchScores(ctx context.Context, query string, limit int) ([]ProductScore, error) {
	return s.queryScores(ctx,
		`SELECT `+scoreColumns+` FROM product_scores
		 WHERE product_name ILIKE '%' || $1 || '%'
		 ORDER BY created_at DESC LIMIT $2`, query, limit)
}

func (s *pgStore) RecentScores(ctx context.Context, limit int) ([]ProductScore, error) {
	return s.queryScores(ctx, `SELECT `+scoreColumns+` FROM product_scores ORDER BY created_at DESC LIMIT $1`, limit)
}

const lcaColumns = `id, product_name, total_co2, total_water, total_energy, used_estimation, details, report_location, created_at`

func scanLCA(row pgx.Row) (LCAResult, error) {
	var r LCAResult
	var details []byte
	err := row.Scan(&r.ID, &r.ProductName, &r.TotalCO2, &r.TotalWater, &r.TotalEnergy, &r.UsedEstimation, &details, &r.ReportLocation, &r.CreatedAt)
	r.Details = details
	return r, err
}

func (s *pgStore) LatestLCAForProduct(ctx context.Context, productName string) (*LCAResult, error) {
	r, err := scanLCA(s.db.QueryRow(ctx,
		`SELECT `+lcaColumns+` FROM lca_results WHERE product_name = $1 ORDER BY created_at DESC LIMIT 1`, productName))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *pgStore) RecentLCAResults(ctx context.Context, limit int) ([]LCAResult, error) {
	rows, err := s.db.Query(ctx, `SELECT `+lcaColumns+` FROM lca_results ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LCAResult{}
	for rows.Next() {
		r, err := scanLCA(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *pgStore) Stats(ctx context.Context) (Stats, error) {
	st := Stats{GradeDistribution: map[string]int64{}}
	var avgScore, avgCO2, estimated *float64
	err := s.db.QueryRow(ctx,
		`SELECT (SELECT count(*) FROM product_scores),
		        (SELECT count(*) FROM lca_results),
		        (SELECT avg(score_numerical)::float8 FROM product_scores),
		        (SELECT avg(total_co2)::float8 FROM lca_results),
		        (SELECT avg(CASE WHEN used_estimation THEN 1.0 ELSE 0.0 END)::float8 FROM lca_results)`,
	).Scan(&st.TotalScores, &st.TotalLCA, &avgScore, &avgCO2, &estimated)
	if err != nil {
		return st, err
	}
	st.AverageScore = round2(avgScore)
	st.AverageCO2 = round2(avgCO2)
	st.EstimatedLCAShare = round2(estimated)

	rows, err := s.db.Query(ctx, `SELECT score_letter, count(*) FROM product_scores GROUP BY score_letter`)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var letter string
		var n int64
		if err := rows.Scan(&letter, &n); err != nil {
			return st, err
		}
		st.GradeDistribution[letter] = n
	}
	return st, rows.Err()
}

func round2(v *float64) float64 {
	if v == nil {
		return 0
	}
	return math.Round(*v*100) / 100
}
