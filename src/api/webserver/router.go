package webserver

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/wastewatch/wastewatch-api/src/api/config"
	"github.com/wastewatch/wastewatch-api/src/api/consensus"
	"github.com/wastewatch/wastewatch-api/src/api/data"
	"gorm.io/gorm"
)

func New(cfg config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	r := gin.Default()
	attachRoutes(r, cfg, db, rdb)
	return r
}

func attachRoutes(r *gin.Engine, cfg config.Config, db *gorm.DB, rdb *redis.Client) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "https://app.wastewatch.io"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	engine := consensus.New(data.NewStore(db), consensus.Config{
		ClusterRadiusMeters: cfg.ClusterRadiusMeters,
		PointsPerVerified:   cfg.PointsPerVerified,
	})

	authH := NewAuth(db, []byte(cfg.JWTSecret))
	reportsH := NewReports(db, rdb, engine, cfg.ClusterRadiusMeters)
	repH := NewReputation(db)
	healthH := NewHealth(db, rdb)

	submitLimiter := NewRateLimiter(cfg.SubmitRatePerMin, time.Minute)

	r.GET("/healthz", healthH.Check)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/register", authH.Register)
		v1.POST("/auth/login", authH.Login)

		secured := v1.Group("")
		secured.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
		secured.POST("/reports", RateLimitMiddleware(submitLimiter), reportsH.Submit)
		secured.GET("/reports", reportsH.Nearby)
		secured.GET("/reports/:id", reportsH.Get)
		secured.GET("/reputation/me", repH.Me)
		secured.GET("/reputation/top", repH.Top)
	}
}
