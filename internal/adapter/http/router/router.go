package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/egmaziero/ktrain/internal/adapter/cache"
	"github.com/egmaziero/ktrain/internal/adapter/http/handler"
	"github.com/egmaziero/ktrain/internal/adapter/http/middleware"
	"github.com/egmaziero/ktrain/internal/adapter/repository/gormrepo"
	"github.com/egmaziero/ktrain/internal/domain/service"
	"github.com/egmaziero/ktrain/internal/infrastructure/config"
	"github.com/egmaziero/ktrain/internal/usecase"
)

// Deps holds what the router wires into handlers. Redis, NLI and Scorer
// may be nil.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	NLI    service.InferenceChecker
	Scorer service.TopicScorer
	Logger *zap.Logger
}

// Setup creates and configures the Gin router.
func Setup(deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics())

	// Health endpoints
	healthHandler := handler.NewHealthHandler(deps.DB, deps.Redis, deps.NLI)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Initialize repositories
	modelRepo := gormrepo.NewModelRepository(deps.DB)

	var scoreCache service.ScoreCache
	if deps.Redis != nil {
		scoreCache = cache.NewScoreCache(deps.Redis, deps.Config.Redis.TTL, logger.Named("cache"))
	}

	// Initialize usecases
	modelUC := usecase.NewModelUsecase(modelRepo, deps.Config.Training.DataDir, deps.Config.Training.MaxConcurrentFits, logger.Named("models"))
	zeroShotUC := usecase.NewZeroShotUsecase(deps.Scorer, scoreCache, deps.Config.NLI.BatchSize, logger.Named("zeroshot"))

	// Initialize handlers
	modelHandler := handler.NewModelHandler(modelUC)
	zeroShotHandler := handler.NewZeroShotHandler(zeroShotUC)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Model routes
		models := v1.Group("/models")
		{
			models.POST("", modelHandler.TrainModel)
			models.GET("", modelHandler.ListModels)
			models.GET("/:id", modelHandler.GetModel)
			models.DELETE("/:id", modelHandler.DeleteModel)
			models.POST("/:id/predict", modelHandler.Predict)
			models.POST("/:id/evaluate", modelHandler.Evaluate)
		}

		// Zero-shot routes
		v1.POST("/zeroshot", zeroShotHandler.Classify)
	}

	return router
}
