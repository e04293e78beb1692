package database

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ghassane04/EcoLabel-MS/lca"
	"github.com/ghassane04/EcoLabel-MS/models"
)

var DB *gorm.DB

const defaultSQLitePath = "ecolabel.db"

// Dialector choisit postgres pour un DSN non vide, sqlite sinon.
func Dialector(dsn string) (gorm.Dialector, string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(dsn), dsn
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(dsn), dsn
	case dsn != "":
		// Assume postgres DSN even without schema prefix
		return postgres.Open(dsn), dsn
	default:
		return sqlite.Open(defaultSQLitePath), defaultSQLitePath
	}
}

// Open ouvre la base, migre les tables et insère les facteurs de départ si besoin.
func Open(dsn string) (*gorm.DB, error) {
	dialector, _ := Dialector(dsn)
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connexion DB: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	if err := SeedFactors(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.EmissionFactor{},
		&models.LCAResult{},
		&models.ProductScore{},
	); err != nil {
		return fmt.Errorf("migration: %w", err)
	}
	return nil
}

// SeedFactors insère lca.DefaultFactors uniquement quand la table est vide.
func SeedFactors(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.EmissionFactor{}).Count(&count).Error; err != nil {
		return fmt.Errorf("comptage facteurs: %w", err)
	}
	if count > 0 {
		return nil
	}
	defaults := lca.DefaultFactors()
	rows := make([]models.EmissionFactor, 0, len(defaults))
	for _, f := range defaults {
		rows = append(rows, models.FactorFromLCA(f))
	}
	return db.Create(&rows).Error
}

// ConnectDB initialise DB depuis DATABASE_URL ; une erreur arrête le processus.
func ConnectDB(dsn string, log *zap.Logger) {
	db, err := Open(dsn)
	if err != nil {
		log.Fatal("Erreur DB", zap.Error(err))
	}
	_, target := Dialector(dsn)
	DB = db
	log.Info("DB connectée et migrée", zap.String("target", redact(target)))
}

// redact masque le mot de passe d'un DSN postgres avant journalisation.
func redact(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if i := strings.Index(creds, ":"); i >= 0 {
		return dsn[:scheme+3] + creds[:i] + ":***" + dsn[at:]
	}
	return dsn
}
