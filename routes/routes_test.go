package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghassane04/EcoLabel-MS/database"
	"github.com/ghassane04/EcoLabel-MS/models"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	db, err := database.Open("file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared")
	require.NoError(t, err)
	database.DB = db

	app := fiber.New()
	SetupAuthRoutes(app)
	SetupWidgetRoutes(app)
	SetupFactorRoutes(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body, token string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	out := map[string]any{}
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 {
		_ = json.Unmarshal(data, &out)
	}
	return resp, out
}

func TestWidget_LatestScore(t *testing.T) {
	app := setupApp(t)
	now := time.Now()
	require.NoError(t, database.DB.Create(&[]models.ProductScore{
		{ProductName: "Sauce tomate", ScoreLetter: "C", ScoreNumerical: 50, CreatedAt: now.Add(-time.Hour)},
		{ProductName: "Sauce tomate", ScoreLetter: "B", ScoreNumerical: 72.5, ModelUsed: "rule-based", CreatedAt: now},
	}).Error)
	require.NoError(t, database.DB.Create(&models.LCAResult{ProductName: "Sauce tomate", TotalCO2: 1.07275, CreatedAt: now}).Error)

	resp, body := doJSON(t, app, http.MethodGet, "/public/product/Sauce%20tomate", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "B", body["score_letter"])
	assert.Equal(t, 72.5, body["score_numerical"])
	lca := body["lca"].(map[string]any)
	assert.Equal(t, 1.07275, lca["total_co2_kg"])

	resp, body = doJSON(t, app, http.MethodGet, "/public/product/Inconnu", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Produit non trouvé", body["error"])
}

func TestWidget_RecentProducts(t *testing.T) {
	app := setupApp(t)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 12; i++ {
		require.NoError(t, database.DB.Create(&models.ProductScore{
			ProductName: "p" + string(rune('a'+i)),
			ScoreLetter: "C",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	resp, body := doJSON(t, app, http.MethodGet, "/public/products", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(10), body["count"])
	first := body["products"].([]any)[0].(map[string]any)
	assert.Equal(t, "pl", first["product_name"])
}

func TestRegister_FirstAdminOnly(t *testing.T) {
	app := setupApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/auth/register", `{"name":"Admin","email":"admin@eco.test","password":"motdepasse"}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token := body["token"].(string)

	resp, _ = doJSON(t, app, http.MethodPost, "/auth/register", `{"name":"Intrus","email":"intrus@eco.test","password":"motdepasse"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/auth/login", `{"email":"intrus@eco.test","password":"motdepasse"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/auth/register", `{"name":"Second","email":"second@eco.test","password":"motdepasse"}`, token)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/auth/register", `{"name":"Admin","email":"admin@eco.test","password":"motdepasse"}`, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthAndFactors(t *testing.T) {
	app := setupApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/auth/register", `{"name":"Admin","email":"admin@eco.test","password":"court"}`, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/auth/register", `{"name":"Admin","email":"Admin@Eco.test","password":"motdepasse"}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, _ = doJSON(t, app, http.MethodPost, "/auth/login", `{"email":"admin@eco.test","password":"mauvais"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPost, "/auth/login", `{"email":"admin@eco.test","password":"motdepasse"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := body["token"].(string)

	resp, _ = doJSON(t, app, http.MethodGet, "/admin/factors", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/admin/factors", "", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["factors"], 5)

	resp, _ = doJSON(t, app, http.MethodPost, "/admin/factors", `{"name":"beef","category":"meat","co2_per_unit":27}`, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPost, "/admin/factors", `{"name":"beef","category":"ingredient","co2_per_unit":27,"water_per_unit":15400,"energy_per_unit":50}`, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 27.0, body["co2_per_unit"])

	resp, body = doJSON(t, app, http.MethodPost, "/admin/factors", `{"name":"beef","category":"ingredient","co2_per_unit":30}`, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 30.0, body["co2_per_unit"])

	resp, _ = doJSON(t, app, http.MethodDelete, "/admin/factors/beef", "", token)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodDelete, "/admin/factors/beef", "", token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
