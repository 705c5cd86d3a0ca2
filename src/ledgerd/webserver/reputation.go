package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cortexmarket/cortex-ledger/src/core"
)

type Reputation struct {
	ledger *core.Ledger
}

func NewReputation(ledger *core.Ledger) Reputation { return Reputation{ledger: ledger} }

func (r Reputation) Update(c *gin.Context) {
	var req struct {
		Address      string `json:"address" binding:"required"`
		Category     string `json:"category" binding:"required,min=1,max=64"`
		Delta        int64  `json:"delta" binding:"required"`
		EvidenceHash string `json:"evidenceHash" binding:"required,max=128"`
		Verified     bool   `json:"verified"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if err := r.ledger.UpdateReputation(caller(c), req.Address, req.Category, req.Delta, req.EvidenceHash, req.Verified); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (r Reputation) Get(c *gin.Context) {
	rec := r.ledger.GetReputation(c.Param("addr"))
	if rec == nil {
		c.JSON(http.StatusOK, gin.H{
			"address":    c.Param("addr"),
			"totalScore": 0,
			"influencer": false,
			"categories": gin.H{},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address":    rec.Address,
		"totalScore": rec.TotalScore,
		"influencer": rec.Influencer,
		"categories": rec.CategoryScores,
		"evidence":   rec.Evidence,
	})
}
