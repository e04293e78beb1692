package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// handlers regroupe les handlers montés sous /api.
type handlers struct {
	lca        *LCAHandler
	score      *ScoreHandler
	parser     *ParserHandler
	nlp        *NLPHandler
	provenance *ProvenanceHandler
}

// newRouter monte les middlewares globaux puis les routes.
func newRouter(cfg Config, store Store, h handlers, metrics *Metrics, gatherer prometheus.Gatherer, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(RequestLogger(log))
	router.Use(metrics.Middleware())
	router.Use(CORSMiddleware())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": serviceName, "status": "ok"})
	})
	router.GET("/health", HealthHandler(cfg, store))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	{
		product := api.Group("/product")
		{
			product.POST("/parse", h.parser.Parse)
		}

		api.POST("/nlp/extract", h.nlp.Extract)

		lca := api.Group("/lca")
		{
			lca.POST("/calc", h.lca.Calculate)
			lca.GET("/factors", h.lca.ListFactors)
			lca.POST("/factors/reload", h.lca.ReloadFactors)
			lca.GET("/model-info", h.lca.ModelInfo)
		}

		score := api.Group("/score")
		{
			score.POST("/compute", h.score.Compute)
			score.GET("/model-info", h.score.ModelInfo)
			score.POST("/train", h.score.Train)
		}

		provenance := api.Group("/provenance")
		{
			provenance.GET("/stats", h.provenance.Stats)
			provenance.GET("/search/:productName", h.provenance.Search)
			provenance.GET("/history/scores", h.provenance.ScoreHistory)
			provenance.GET("/history/lca", h.provenance.LCAHistory)
			provenance.GET("/:scoreId", h.provenance.Get)
		}
	}
	return router
}
