package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm/clause"

	"github.com/ghassane04/EcoLabel-MS/database"
	"github.com/ghassane04/EcoLabel-MS/lca"
	"github.com/ghassane04/EcoLabel-MS/middleware"
	"github.com/ghassane04/EcoLabel-MS/models"
)

// SetupFactorRoutes : écriture du catalogue de facteurs, réservée aux administrateurs.
// Le service de calcul relit la table via POST /api/lca/factors/reload.
func SetupFactorRoutes(app *fiber.App) {
	admin := app.Group("/admin", middleware.JWTMiddleware)
	admin.Get("/factors", listFactors)
	admin.Post("/factors", upsertFactor)
	admin.Delete("/factors/:name", deleteFactor)
}

func listFactors(c *fiber.Ctx) error {
	var factors []models.EmissionFactor
	if err := database.DB.Order("category, name").Find(&factors).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Erreur base de données"})
	}
	return c.JSON(fiber.Map{"factors": factors})
}

func validFactor(f lca.EmissionFactor) string {
	switch {
	case f.Name == "":
		return "Nom requis"
	case f.Category != lca.CategoryIngredient && f.Category != lca.CategoryPackaging && f.Category != lca.CategoryTransport:
		return "Catégorie invalide (ingredient, packaging, transport)"
	case f.CO2PerUnit < 0 || f.WaterPerUnit < 0 || f.EnergyPerUnit < 0:
		return "Les facteurs doivent être positifs"
	}
	return ""
}

func upsertFactor(c *fiber.Ctx) error {
	var body lca.EmissionFactor
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Payload invalide"})
	}
	if msg := validFactor(body); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	row := models.FactorFromLCA(body)
	err := database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"category", "co2_per_unit", "water_per_unit", "energy_per_unit", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Erreur enregistrement facteur"})
	}

	var saved models.EmissionFactor
	if err := database.DB.Where("name = ?", body.Name).First(&saved).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Erreur lecture facteur"})
	}
	return c.JSON(saved)
}

func deleteFactor(c *fiber.Ctx) error {
	res := database.DB.Where("name = ?", c.Params("name")).Delete(&models.EmissionFactor{})
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Erreur suppression facteur"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Facteur introuvable"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
