package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"trucklog/internal/handler"
	"trucklog/internal/metrics"
	"trucklog/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	DriverHandler    *handler.DriverHandler
	LogHandler       *handler.LogHandler
	TripHandler      *handler.TripHandler
	ViolationHandler *handler.ViolationHandler
	RedisClient      redis.Cmdable
	NewRelicApp      *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())
	router.Use(metrics.Middleware())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/v1")
	{
		drivers := v1.Group("/drivers")
		{
			drivers.POST("", deps.DriverHandler.Register)
			drivers.GET("", deps.DriverHandler.ListDrivers)
			drivers.GET("/:id", deps.DriverHandler.GetDriver)
			drivers.GET("/:id/hos-status", deps.DriverHandler.HOSStatus)
			drivers.GET("/:id/logs", deps.LogHandler.ListDriverLogs)
			drivers.POST("/:id/logs", deps.LogHandler.OpenLog)
		}

		logs := v1.Group("/logs")
		{
			logs.GET("/:id", deps.LogHandler.GetLog)
			logs.POST("/:id/duty-records", deps.LogHandler.AppendDutyRecord)
			logs.POST("/:id/close-day", deps.LogHandler.CloseDay)
			logs.POST("/:id/certify", deps.LogHandler.Certify)
		}

		trips := v1.Group("/trips")
		{
			trips.POST("/plan", deps.TripHandler.PlanTrip)
			trips.GET("", deps.TripHandler.ListTrips)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.POST("/:id/start", deps.TripHandler.StartTrip)
			trips.POST("/:id/complete", deps.TripHandler.CompleteTrip)
		}

		violations := v1.Group("/violations")
		{
			violations.GET("", deps.ViolationHandler.ListViolations)
			violations.GET("/:id", deps.ViolationHandler.GetViolation)
			violations.POST("/:id/resolve", deps.ViolationHandler.Resolve)
		}
	}

	return router
}
