package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ghassane04/EcoLabel-MS/imputer"
	"github.com/ghassane04/EcoLabel-MS/integrations/mistral"
	"github.com/ghassane04/EcoLabel-MS/labels"
	"github.com/ghassane04/EcoLabel-MS/lca"
	"github.com/ghassane04/EcoLabel-MS/nlp"
	"github.com/ghassane04/EcoLabel-MS/reports"
	"github.com/ghassane04/EcoLabel-MS/scoring"
	"github.com/ghassane04/EcoLabel-MS/utils/ocr"
)

func main() {
	// Chargement éventuel du .env (si présent)
	if err := loadEnvIfExists(); err != nil {
		fmt.Fprintf(os.Stderr, "lecture .env: %v\n", err)
	}
	cfg := LoadConfig()

	log, err := NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracer, err := initTracer(cfg.OTLPEndpoint, log)
	if err != nil {
		log.Fatal("initialisation OpenTelemetry", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	db, err := NewDB(cfg)
	if err != nil {
		log.Fatal("échec connexion base de données", zap.Error(err))
	}
	defer db.Close()
	store := NewPGStore(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	catalog := lca.NewSnapshot(nil)
	count, err := loadCatalog(ctx, store, catalog)
	cancel()
	if err != nil {
		log.Fatal("chargement du catalogue de facteurs", zap.Error(err))
	}
	log.Info("catalogue de facteurs chargé", zap.Int("count", count))

	keywords := lca.DefaultKeywords()
	if cfg.KeywordsPath != "" {
		if keywords, err = lca.LoadKeywords(cfg.KeywordsPath); err != nil {
			log.Fatal("lecture des mots-clés", zap.String("path", cfg.KeywordsPath), zap.Error(err))
		}
	}

	// Sans modèle, l'estimateur reçoit une interface nil et les ingrédients
	// inconnus gardent les valeurs par défaut.
	var co2 lca.CO2Estimator
	model, trained, err := imputer.LoadOrTrain(cfg.ImputerModelPath)
	switch {
	case err != nil && model == nil:
		log.Error("estimateur CO2 indisponible", zap.String("path", cfg.ImputerModelPath), zap.Error(err))
	case err != nil:
		log.Warn("estimateur CO2 entraîné mais non sauvegardé", zap.Error(err))
		co2 = model
	default:
		log.Info("estimateur CO2 prêt", zap.Bool("trained", trained), zap.Float64("r2", model.Metrics.R2))
		co2 = model
	}
	estimator := lca.NewEstimator(co2, keywords)

	classifier, trained, err := scoring.LoadOrTrainCentroids(cfg.ScoringModelPath)
	switch {
	case err != nil && classifier == nil:
		log.Error("classifieur indisponible, formule de repli seule", zap.Error(err))
	case err != nil:
		log.Warn("classifieur entraîné mais non sauvegardé", zap.Error(err))
	default:
		log.Info("classifieur prêt", zap.Bool("trained", trained), zap.Float64("accuracy", classifier.Accuracy))
	}

	sink, closeSink, err := newReportSink(cfg)
	if err != nil {
		log.Fatal("stockage des rapports", zap.Error(err))
	}
	defer closeSink()

	var recognizer labels.Recognizer
	if cfg.OCREnabled {
		recognizer = ocr.NewTesseractRecognizer()
	}

	metrics := NewMetrics(prometheus.DefaultRegisterer)
	h := handlers{
		lca:        NewLCAHandler(store, estimator, catalog, model, sink, metrics, log),
		score:      NewScoreHandler(store, classifier, cfg.ScoringModelPath, metrics, log),
		parser:     NewParserHandler(store, labels.NewParser(recognizer), log),
		nlp:        NewNLPHandler(store, newExtractor(cfg, log), log),
		provenance: NewProvenanceHandler(store, log),
	}
	router := newRouter(cfg, store, h, metrics, prometheus.DefaultGatherer, log)
	srv := NewHTTPServer(cfg, router)

	// Démarrage gracieux
	go func() {
		log.Info("EcoLabel API en écoute", zap.String("addr", cfg.HTTPAddr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("serveur arrêté", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("arrêt du serveur EcoLabel")

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("arrêt forcé", zap.Error(err))
	}
}

// newReportSink choisit GCS quand un bucket est configuré, sinon le disque local.
func newReportSink(cfg Config) (reports.Sink, func(), error) {
	if cfg.ReportsGCSBucket != "" {
		s, err := reports.NewGCSSink(context.Background(), cfg.ReportsGCSBucket, "lca", cfg.GCSCredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
	s, err := reports.NewLocalSink(cfg.ReportsDir)
	if err != nil {
		return nil, nil, err
	}
	return s, func() {}, nil
}

// newExtractor utilise l'agent Mistral si une clé est fournie, le lexique sinon.
func newExtractor(cfg Config, log *zap.Logger) nlp.Extractor {
	taxonomy := nlp.DefaultTaxonomy()
	if cfg.MistralAPIKey == "" {
		return nlp.NewLexiconExtractor(taxonomy)
	}
	client, err := mistral.NewClient(cfg.MistralAPIKey, cfg.MistralAgentID, cfg.MistralAPIBase)
	if err != nil {
		log.Warn("client Mistral invalide, extraction lexicale seule", zap.Error(err))
		return nlp.NewLexiconExtractor(taxonomy)
	}
	return nlp.NewMistralExtractor(client, taxonomy)
}
