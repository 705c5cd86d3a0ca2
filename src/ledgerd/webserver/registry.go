package webserver

import (
	"html"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"

	"github.com/cortexmarket/cortex-ledger/src/core"
)

type Registry struct {
	ledger    *core.Ledger
	sanitizer *bluemonday.Policy
}

func NewRegistry(ledger *core.Ledger) Registry {
	return Registry{ledger: ledger, sanitizer: bluemonday.StrictPolicy()}
}

func (r Registry) Register(c *gin.Context) {
	var req struct {
		Name        string   `json:"name" binding:"required,min=1,max=128"`
		Version     string   `json:"version" binding:"required,max=32"`
		Description string   `json:"description" binding:"max=5000"`
		ContentRef  string   `json:"contentRef" binding:"required,max=256"`
		MetadataRef string   `json:"metadataRef" binding:"max=256"`
		Tags        []string `json:"tags" binding:"max=10,dive,min=1,max=32"`
		Public      bool     `json:"isPublic"`
		Stake       uint64   `json:"stakeAmount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	id, err := r.ledger.RegisterModel(caller(c), core.RegisterModelParams{
		Name:        html.EscapeString(req.Name),
		Version:     html.EscapeString(req.Version),
		Description: r.sanitizer.Sanitize(req.Description),
		ContentRef:  req.ContentRef,
		MetadataRef: req.MetadataRef,
		Tags:        req.Tags,
		Public:      req.Public,
		Stake:       req.Stake,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (r Registry) Toggle(c *gin.Context) {
	id, err := modelID(c)
	if err != nil {
		return
	}
	active, err := r.ledger.ToggleModel(id, caller(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": active})
}

func (r Registry) Purchase(c *gin.Context) {
	id, err := modelID(c)
	if err != nil {
		return
	}
	var req struct {
		Price uint64 `json:"price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if err := r.ledger.PurchaseModel(id, caller(c), req.Price); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (r Registry) Deregister(c *gin.Context) {
	id, err := modelID(c)
	if err != nil {
		return
	}
	if err := r.ledger.DeregisterModel(id, caller(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (r Registry) Get(c *gin.Context) {
	id, err := modelID(c)
	if err != nil {
		return
	}
	listing, err := r.ledger.GetModel(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (r Registry) ByOwner(c *gin.Context) {
	addr := c.Param("addr")
	ids := r.ledger.UserModels(addr)
	if ids == nil {
		ids = []uint64{}
	}
	c.JSON(http.StatusOK, gin.H{"address": addr, "models": ids})
}

func (r Registry) Count(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": r.ledger.ModelCount()})
}

func modelID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid model id"})
	}
	return id, err
}
