package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config contient la configuration principale de l'API.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	ReportsDir         string
	ReportsGCSBucket   string
	GCSCredentialsFile string

	ImputerModelPath string
	ScoringModelPath string
	KeywordsPath     string

	MistralAPIKey  string
	MistralAgentID string
	MistralAPIBase string

	OTLPEndpoint string
	OCREnabled   bool
}

// LoadConfig charge la configuration à partir des variables d'environnement.
func LoadConfig() Config {
	return Config{
		Env:      getEnv("API_ENV", "development"),
		Port:     getEnv("API_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBHost:     getEnv("API_DB_HOST", "localhost"),
		DBPort:     getEnv("API_DB_PORT", "5432"),
		DBUser:     getEnv("API_DB_USER", "ecolabel"),
		DBPassword: getEnv("API_DB_PASSWORD", "ecolabel"),
		DBName:     getEnv("API_DB_NAME", "ecolabel"),

		ReportsDir:         getEnv("REPORTS_DIR", "reports"),
		ReportsGCSBucket:   getEnv("REPORTS_GCS_BUCKET", ""),
		GCSCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		ImputerModelPath: getEnv("IMPUTER_MODEL_PATH", "models/co2_imputer.json"),
		ScoringModelPath: getEnv("SCORING_MODEL_PATH", "models/scoring_model.json"),
		KeywordsPath:     getEnv("KEYWORDS_PATH", ""),

		MistralAPIKey:  getEnv("MISTRAL_API_KEY", ""),
		MistralAgentID: getEnv("MISTRAL_AGENT_ID", ""),
		MistralAPIBase: getEnv("MISTRAL_API_BASE", ""),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OCREnabled:   getEnvBool("OCR_ENABLED", true),
	}
}

func (c Config) HTTPAddr() string {
	return ":" + c.Port
}

// DatabaseURL construit le DSN postgres ; identifiants échappés.
func (c Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   c.DBHost + ":" + c.DBPort,
		Path:   "/" + c.DBName,
	}
	return u.String()
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(def)))
	if err != nil {
		return def
	}
	return v
}

// NewLogger : console lisible en développement, JSON en production.
func NewLogger(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zcfg := zap.NewProductionConfig()
	if cfg.Env == "development" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build(zap.Fields(zap.String("service", "ecolabel-api")))
}

// NewHTTPServer crée un serveur HTTP configuré.
func NewHTTPServer(cfg Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:           cfg.HTTPAddr(),
		Handler:        handler,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}

// HealthHandler vérifie aussi la base quand elle est configurée.
func HealthHandler(cfg Config, store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"service": "ecolabel-api",
			"env":     cfg.Env,
		}
		if store == nil {
			body["database"] = "disabled"
			c.JSON(http.StatusOK, body)
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			body["status"] = "degraded"
			body["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["database"] = "ok"
		c.JSON(http.StatusOK, body)
	}
}

// loadEnvIfExists charge un fichier .env local s'il existe.
func loadEnvIfExists() error {
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load()
	}
	return nil
}
