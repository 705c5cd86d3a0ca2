package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cortexmarket/cortex-ledger/src/core"
)

type Accounts struct {
	ledger *core.Ledger
}

func NewAccounts(ledger *core.Ledger) Accounts { return Accounts{ledger: ledger} }

func (a Accounts) Mint(c *gin.Context) {
	var req struct {
		To     string `json:"to" binding:"required"`
		Amount uint64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if err := a.ledger.Mint(caller(c), req.To, req.Amount); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (a Accounts) Transfer(c *gin.Context) {
	var req struct {
		To     string `json:"to" binding:"required"`
		Amount uint64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if err := a.ledger.Transfer(caller(c), req.To, req.Amount); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (a Accounts) Approve(c *gin.Context) {
	var req struct {
		Spender string `json:"spender" binding:"required"`
		Amount  uint64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if err := a.ledger.Approve(caller(c), req.Spender, req.Amount); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (a Accounts) TransferFrom(c *gin.Context) {
	var req struct {
		From   string `json:"from" binding:"required"`
		To     string `json:"to" binding:"required"`
		Amount uint64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if err := a.ledger.TransferFrom(caller(c), req.From, req.To, req.Amount); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (a Accounts) Stake(c *gin.Context) {
	var req struct {
		Amount uint64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if err := a.ledger.StakeGovernance(caller(c), req.Amount); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (a Accounts) Unstake(c *gin.Context) {
	var req struct {
		Amount uint64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if err := a.ledger.UnstakeGovernance(caller(c), req.Amount); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (a Accounts) Balance(c *gin.Context) {
	addr := c.Param("addr")
	c.JSON(http.StatusOK, gin.H{
		"address":    addr,
		"balance":    a.ledger.BalanceOf(addr),
		"governance": a.ledger.StakedOf(addr, core.GovernancePurpose),
	})
}

func (a Accounts) Staked(c *gin.Context) {
	addr := c.Param("addr")
	purpose := c.Param("purpose")
	c.JSON(http.StatusOK, gin.H{"address": addr, "purpose": purpose, "staked": a.ledger.StakedOf(addr, purpose)})
}

func (a Accounts) AllowanceOf(c *gin.Context) {
	owner := c.Param("addr")
	spender := c.Param("spender")
	c.JSON(http.StatusOK, gin.H{"owner": owner, "spender": spender, "allowance": a.ledger.Allowance(owner, spender)})
}

func (a Accounts) Supply(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"totalSupply": a.ledger.TotalSupply()})
}
