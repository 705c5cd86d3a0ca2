package webserver

import (
	"html"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"

	"github.com/cortexmarket/cortex-ledger/src/core"
)

type Governance struct {
	ledger    *core.Ledger
	sanitizer *bluemonday.Policy
}

func NewGovernance(ledger *core.Ledger) Governance {
	// Strict policy with basic markdown formatting allowed in descriptions.
	sanitizer := bluemonday.StrictPolicy()
	sanitizer.AllowElements("p", "br", "strong", "em", "code", "pre", "blockquote")
	sanitizer.AllowElements("ul", "ol", "li")
	sanitizer.AllowAttrs("href").OnElements("a")
	sanitizer.RequireParseableURLs(true)
	sanitizer.RequireNoFollowOnLinks(true)

	return Governance{ledger: ledger, sanitizer: sanitizer}
}

func (g Governance) Submit(c *gin.Context) {
	var req struct {
		Title          string `json:"title" binding:"required,min=1,max=255"`
		Description    string `json:"description" binding:"required,min=1,max=10000"`
		VotingDuration int64  `json:"votingDurationSec" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	req.Title = html.EscapeString(req.Title)
	req.Description = g.sanitizer.Sanitize(req.Description)
	if !utf8.ValidString(req.Title) || !utf8.ValidString(req.Description) {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid characters in input"})
		return
	}
	if len(req.Description) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "description empty after sanitization"})
		return
	}

	id, err := g.ledger.SubmitProposal(caller(c), req.Title, req.Description, time.Duration(req.VotingDuration)*time.Second)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (g Governance) Vote(c *gin.Context) {
	id, err := proposalID(c)
	if err != nil {
		return
	}
	var req struct {
		Support *bool `json:"support" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	weight, err := g.ledger.Vote(id, caller(c), *req.Support)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"accepted": true, "weight": weight})
}

func (g Governance) Execute(c *gin.Context) {
	id, err := proposalID(c)
	if err != nil {
		return
	}
	executed, err := g.ledger.ExecuteProposal(id, caller(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"executed": executed})
}

func (g Governance) Get(c *gin.Context) {
	id, err := proposalID(c)
	if err != nil {
		return
	}
	p, err := g.ledger.GetProposal(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (g Governance) HasVoted(c *gin.Context) {
	id, err := proposalID(c)
	if err != nil {
		return
	}
	voted, err := g.ledger.HasVoted(id, c.Param("addr"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"voted": voted})
}

func (g Governance) Count(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": g.ledger.ProposalCount()})
}

func proposalID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid proposal id"})
	}
	return id, err
}
