package main

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ghassane04/EcoLabel-MS/lca"
)

//go:embed sql_schema.sql
var schemaSQL string

// NewDB initialise un pool de connexions Postgres, exécute les migrations
// et insère les facteurs de départ si la table est vide.
func NewDB(cfg Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL())
	if err != nil {
		return nil, err
	}

	// Test de connexion léger
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	if err := seedFactors(ctx, pool, lca.DefaultFactors()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("seed facteurs: %w", err)
	}
	return pool, nil
}

// runMigrations exécute sql_schema.sql (CREATE ... IF NOT EXISTS uniquement).
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}

func seedFactors(ctx context.Context, pool *pgxpool.Pool, factors []lca.EmissionFactor) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		var count int64
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM emission_factors`).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for _, f := range factors {
			batch.Queue(
				`INSERT INTO emission_factors (name, category, co2_per_unit, water_per_unit, energy_per_unit)
				 VALUES ($1,$2,$3,$4,$5) ON CONFLICT (name) DO NOTHING`,
				f.Name, string(f.Category), f.CO2PerUnit, f.WaterPerUnit, f.EnergyPerUnit,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}
