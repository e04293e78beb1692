package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ghassane04/EcoLabel-MS/imputer"
	"github.com/ghassane04/EcoLabel-MS/lca"
	"github.com/ghassane04/EcoLabel-MS/scoring"
)

// log est remplacé par un logger de développement avec --verbose.
var log = zap.NewNop()

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "trainer",
		Short:         "Entraîne les modèles EcoLabel",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !verbose {
				return nil
			}
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			log = l
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "journalise la progression sur stderr")

	root.AddCommand(newImputerCmd(), newScoringCmd())
	return root
}

func newImputerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imputer",
		Short: "Régresseur CO2 des ingrédients inconnus",
	}

	var (
		data, out string
		opts      = imputer.DefaultTrainOptions()
	)
	train := &cobra.Command{
		Use:   "train",
		Short: "Entraîne le régresseur et affiche ses métriques",
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, err := readSamples(data, imputer.DefaultDataset, imputer.ReadDataset)
			if err != nil {
				return err
			}
			m, err := imputer.Train(samples, opts)
			if err != nil {
				return err
			}
			log.Info("régresseur entraîné", zap.Int("samples", m.DatasetSize), zap.Float64("r2", m.Metrics.R2))
			if out != "" {
				if err := m.Save(out); err != nil {
					return err
				}
				log.Info("modèle sauvegardé", zap.String("path", out))
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"model":        m.Name,
				"dataset_size": m.DatasetSize,
				"train_size":   m.TrainSize,
				"test_size":    m.TestSize,
				"metrics":      m.Metrics,
			})
		},
	}
	train.Flags().StringVar(&data, "data", "", "CSV d'entraînement (jeu embarqué si vide)")
	train.Flags().StringVarP(&out, "out", "o", "models/co2_imputer.json", "fichier du modèle")
	train.Flags().Float64Var(&opts.TestFraction, "test-fraction", opts.TestFraction, "part réservée au test")
	train.Flags().Int64Var(&opts.Seed, "seed", opts.Seed, "graine du tirage train/test")

	var (
		modelPath string
		f         lca.Features
	)
	estimate := &cobra.Command{
		Use:   "estimate",
		Short: "Estime le CO2 total d'un produit",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := imputer.Load(modelPath)
			if err != nil {
				return err
			}
			est, err := m.EstimateCO2(f)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), est)
		},
	}
	fl := estimate.Flags()
	fl.StringVarP(&modelPath, "model", "m", "models/co2_imputer.json", "fichier du modèle")
	fl.IntVar(&f.NumIngredients, "ingredients", 3, "nombre d'ingrédients")
	fl.Float64Var(&f.TotalWeightKg, "weight", 1, "masse totale (kg)")
	fl.BoolVar(&f.HasMeat, "meat", false, "contient de la viande")
	fl.BoolVar(&f.HasDairy, "dairy", false, "contient des produits laitiers")
	fl.BoolVar(&f.HasVegetables, "vegetables", false, "contient des végétaux")
	fl.StringVar(&f.PackagingType, "packaging", "plastic", "matériau d'emballage")
	fl.Float64Var(&f.PackagingWeightKg, "packaging-weight", 0.1, "masse de l'emballage (kg)")
	fl.Float64Var(&f.TransportKm, "transport", 200, "distance de transport (km)")

	cmd.AddCommand(train, estimate)
	return cmd
}

func newScoringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scoring",
		Short: "Classifieur des notes A–E",
	}

	var (
		data, out    string
		testFraction = 0.2
		seed         = int64(42)
	)
	train := &cobra.Command{
		Use:   "train",
		Short: "Entraîne le classifieur et affiche sa précision",
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, err := readSamples(data, scoring.DefaultDataset, scoring.ReadDataset)
			if err != nil {
				return err
			}
			m, err := scoring.TrainCentroids(samples, testFraction, seed)
			if err != nil {
				return err
			}
			log.Info("classifieur entraîné", zap.Int("samples", m.DatasetSize), zap.Float64("accuracy", m.Accuracy))
			if out != "" {
				if err := m.Save(out); err != nil {
					return err
				}
				log.Info("modèle sauvegardé", zap.String("path", out))
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"model":        m.Name,
				"dataset_size": m.DatasetSize,
				"train_size":   m.TrainSize,
				"test_size":    m.TestSize,
				"accuracy":     m.Accuracy,
				"class_counts": m.ClassCounts,
			})
		},
	}
	train.Flags().StringVar(&data, "data", "", "CSV d'entraînement (jeu embarqué si vide)")
	train.Flags().StringVarP(&out, "out", "o", "models/scoring_model.json", "fichier du modèle")
	train.Flags().Float64Var(&testFraction, "test-fraction", testFraction, "part réservée au test")
	train.Flags().Int64Var(&seed, "seed", seed, "graine du tirage train/test")

	var (
		modelPath string
		rulesOnly bool
		req       scoring.Request
	)
	predict := &cobra.Command{
		Use:   "predict",
		Short: "Note un produit à partir de ses totaux ACV",
		RunE: func(cmd *cobra.Command, args []string) error {
			scorer := scoring.NewScorer(nil)
			if !rulesOnly {
				m, err := scoring.LoadCentroids(modelPath)
				if err != nil {
					return err
				}
				scorer.SetClassifier(m)
			}
			res, fallbackErr := scorer.Score(req)
			if fallbackErr != nil {
				log.Warn("classifieur en échec, formule de repli utilisée", zap.Error(fallbackErr))
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	fl := predict.Flags()
	fl.StringVarP(&modelPath, "model", "m", "models/scoring_model.json", "fichier du classifieur")
	fl.BoolVar(&rulesOnly, "rules", false, "formule de repli uniquement")
	fl.StringVar(&req.ProductName, "name", "", "nom du produit")
	fl.Float64Var(&req.TotalCO2, "co2", 0, "CO2 total (kg)")
	fl.Float64Var(&req.TotalWater, "water", 0, "eau totale (L)")
	fl.Float64Var(&req.TotalEnergy, "energy", 0, "énergie totale (MJ)")
	fl.StringVar(&req.PackagingType, "packaging", "plastic", "matériau d'emballage")
	fl.Float64Var(&req.PackagingWeightKg, "packaging-weight", 0.3, "masse de l'emballage (kg)")
	fl.Float64Var(&req.TransportKm, "transport", 200, "distance de transport (km)")
	fl.StringVar(&req.Category, "category", "processed", "catégorie du produit")
	fl.BoolVar(&req.HasBioLabel, "bio", false, "label bio")
	fl.BoolVar(&req.HasRecyclable, "recyclable", false, "emballage recyclable")
	fl.BoolVar(&req.HasLocalLabel, "local", false, "label local")

	cmd.AddCommand(train, predict)
	return cmd
}

// readSamples lit path, ou le jeu embarqué quand path est vide.
func readSamples[S any](path string, embedded func() ([]S, error), read func(io.Reader) ([]S, error)) ([]S, error) {
	if path == "" {
		return embedded()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	samples, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
