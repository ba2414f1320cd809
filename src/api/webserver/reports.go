package webserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/wastewatch/wastewatch-api/src/api/consensus"
	"github.com/wastewatch/wastewatch-api/src/api/data"
	"github.com/wastewatch/wastewatch-api/src/api/geo"
	"github.com/wastewatch/wastewatch-api/src/api/photo"
	"github.com/wastewatch/wastewatch-api/src/api/types"
	"gorm.io/gorm"
)

type Reports struct {
	db        *gorm.DB
	rdb       *redis.Client
	engine    *consensus.Engine
	radius    float64
	sanitizer *bluemonday.Policy
}

func NewReports(db *gorm.DB, rdb *redis.Client, engine *consensus.Engine, radius float64) Reports {
	return Reports{
		db:        db,
		rdb:       rdb,
		engine:    engine,
		radius:    radius,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (h Reports) Submit(c *gin.Context) {
	var req struct {
		Lat         *float64 `json:"lat" binding:"required"`
		Lon         *float64 `json:"lon" binding:"required"`
		Size        string   `json:"size" binding:"required,oneof=SMALL MEDIUM LARGE"`
		Photo       string   `json:"photo" binding:"required"`
		Description string   `json:"description" binding:"max=1024"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	res, err := h.engine.Submit(c.Request.Context(), consensus.Submission{
		ReporterID:  c.GetString("uid"),
		Latitude:    *req.Lat,
		Longitude:   *req.Lon,
		SizeClass:   req.Size,
		Description: h.sanitizer.Sanitize(strings.TrimSpace(req.Description)),
		Photo:       []byte(req.Photo),
	})
	if err != nil {
		switch {
		case errors.Is(err, consensus.ErrValidation), errors.Is(err, photo.ErrInvalidPhoto):
			c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		case errors.Is(err, consensus.ErrDuplicatePhoto):
			c.JSON(http.StatusConflict, gin.H{"err": "photo already used"})
		default:
			log.Printf("submit report: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"err": "submission failed"})
		}
		return
	}

	h.announceVerified(res)

	c.JSON(http.StatusCreated, gin.H{
		"report":            res.Report,
		"verificationCount": res.VerificationCount,
		"isVerified":        res.Verified,
		"awards":            res.Awards,
	})
}

// announceVerified publishes one event per report the cascade promoted.
func (h Reports) announceVerified(res *consensus.Result) {
	promoted := map[string][]consensus.Award{}
	for _, a := range res.Awards {
		promoted[a.ReportID] = append(promoted[a.ReportID], a)
	}
	for reportID, awards := range promoted {
		var verifiers []string
		for _, a := range awards {
			verifiers = append(verifiers, a.VerifierID)
		}
		err := data.PublishVerified(context.Background(), h.rdb, map[string]interface{}{
			"report_id": reportID,
			"verifiers": strings.Join(verifiers, ","),
			"points":    awards[0].Points,
		})
		if err != nil {
			log.Printf("publish verified %s: %v", reportID, err)
		}
	}
}

func (h Reports) Get(c *gin.Context) {
	var report types.Report
	if err := h.db.First(&report, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "report not found"})
		return
	}

	var count int64
	h.db.Model(&types.Verification{}).Where("report_id = ?", report.ID).Count(&count)

	c.JSON(http.StatusOK, gin.H{
		"report":            report,
		"verificationCount": count,
		"isVerified":        report.Status == types.StatusVerified,
	})
}

func (h Reports) Nearby(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lon, err2 := strconv.ParseFloat(c.Query("lon"), 64)
	if err1 != nil || err2 != nil || !geo.ValidCoordinates(lat, lon) {
		c.JSON(http.StatusBadRequest, gin.H{"err": "bad coordinates"})
		return
	}
	radius := h.radius
	if v := c.Query("radius"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil && r > 0 && r <= 10000 {
			radius = r
		}
	}

	center := geo.Point{Lat: lat, Lon: lon}
	minLat, maxLat, minLon, maxLon := geo.BoundingBox(center, radius)

	var rows []types.Report
	h.db.
		Where("latitude BETWEEN ? AND ?", minLat, maxLat).
		Where("longitude BETWEEN ? AND ?", minLon, maxLon).
		Order("created_at desc").
		Limit(200).
		Find(&rows)

	reports := make([]types.Report, 0, len(rows))
	for _, r := range rows {
		if geo.WithinRadius(center, geo.Point{Lat: r.Latitude, Lon: r.Longitude}, radius) {
			reports = append(reports, r)
		}
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}
