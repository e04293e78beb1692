package routes

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ghassane04/EcoLabel-MS/database"
	"github.com/ghassane04/EcoLabel-MS/models"
)

const recentProductsLimit = 10

// SetupWidgetRoutes expose les notes en lecture seule pour le widget public.
func SetupWidgetRoutes(app *fiber.App) {
	public := app.Group("/public")
	public.Get("/product/:name", getProductScore)
	public.Get("/products", listRecentProducts)
}

type widgetLCA struct {
	TotalCO2       float64   `json:"total_co2_kg"`
	TotalWater     float64   `json:"total_water_l"`
	TotalEnergy    float64   `json:"total_energy_mj"`
	UsedEstimation bool      `json:"used_estimation"`
	CalculatedAt   time.Time `json:"calculated_at"`
}

type widgetScore struct {
	ProductName     string     `json:"product_name"`
	ScoreLetter     string     `json:"score_letter"`
	ScoreNumerical  float64    `json:"score_numerical"`
	ConfidenceLevel float64    `json:"confidence_level"`
	Explanation     string     `json:"explanation"`
	ModelUsed       string     `json:"model_used"`
	ScoredAt        time.Time  `json:"scored_at"`
	LCA             *widgetLCA `json:"lca,omitempty"`
}

func toWidget(s models.ProductScore) widgetScore {
	return widgetScore{
		ProductName:     s.ProductName,
		ScoreLetter:     s.ScoreLetter,
		ScoreNumerical:  s.ScoreNumerical,
		ConfidenceLevel: s.ConfidenceLevel,
		Explanation:     s.Explanation,
		ModelUsed:       s.ModelUsed,
		ScoredAt:        s.CreatedAt,
	}
}

func getProductScore(c *fiber.Ctx) error {
	name := c.Params("name")

	var score models.ProductScore
	err := database.DB.Where("product_name = ?", name).Order("created_at DESC, id DESC").First(&score).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Produit non trouvé"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Erreur base de données"})
	}

	out := toWidget(score)
	var result models.LCAResult
	err = database.DB.Where("product_name = ?", name).Order("created_at DESC, id DESC").First(&result).Error
	switch {
	case err == nil:
		out.LCA = &widgetLCA{
			TotalCO2:       result.TotalCO2,
			TotalWater:     result.TotalWater,
			TotalEnergy:    result.TotalEnergy,
			UsedEstimation: result.UsedEstimation,
			CalculatedAt:   result.CreatedAt,
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Erreur base de données"})
	}
	return c.JSON(out)
}

func listRecentProducts(c *fiber.Ctx) error {
	var scores []models.ProductScore
	if err := database.DB.Order("created_at DESC, id DESC").Limit(recentProductsLimit).Find(&scores).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Erreur base de données"})
	}
	out := make([]widgetScore, 0, len(scores))
	for _, s := range scores {
		out = append(out, toWidget(s))
	}
	return c.JSON(fiber.Map{"products": out, "count": len(out)})
}
