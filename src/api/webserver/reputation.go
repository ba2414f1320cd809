package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wastewatch/wastewatch-api/src/api/types"
	"gorm.io/gorm"
)

type Reputation struct{ db *gorm.DB }

func NewReputation(db *gorm.DB) Reputation { return Reputation{db: db} }

func (h Reputation) Me(c *gin.Context) {
	uid := c.GetString("uid")

	var score types.ReputationScore
	err := h.db.First(&score, "user_id = ?", uid).Error
	if err == gorm.ErrRecordNotFound {
		// No awards yet; an empty accumulator, not an error.
		score = types.ReputationScore{UserID: uid}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	c.JSON(http.StatusOK, score)
}

func (h Reputation) Top(c *gin.Context) {
	var scores []types.ReputationScore
	err := h.db.Order("total_score desc").Limit(20).Find(&scores).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": scores})
}
