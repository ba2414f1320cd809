package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Health struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewHealth(db *gorm.DB, rdb *redis.Client) Health {
	return Health{db: db, rdb: rdb}
}

func (h Health) Check(c *gin.Context) {
	mysqlOK := false
	if sqlDB, err := h.db.DB(); err == nil {
		mysqlOK = sqlDB.PingContext(c.Request.Context()) == nil
	}
	redisOK := h.rdb.Ping(c.Request.Context()).Err() == nil

	status := http.StatusOK
	state := "ok"
	if !mysqlOK || !redisOK {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status": state,
		"mysql":  mysqlOK,
		"redis":  redisOK,
	})
}
