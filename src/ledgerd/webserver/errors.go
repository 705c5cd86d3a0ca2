package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cortexmarket/cortex-ledger/src/core"
	"github.com/cortexmarket/cortex-ledger/src/core/governance"
	"github.com/cortexmarket/cortex-ledger/src/core/registry"
	"github.com/cortexmarket/cortex-ledger/src/core/reputation"
	"github.com/cortexmarket/cortex-ledger/src/core/token"
)

// fail maps core error taxonomy onto HTTP status codes. Every failure is a
// typed sentinel; anything unrecognized is a server bug.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, governance.ErrProposalNotFound),
		errors.Is(err, registry.ErrModelNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrUnauthorized),
		errors.Is(err, registry.ErrUnauthorized),
		errors.Is(err, token.ErrUnauthorizedRelease):
		status = http.StatusForbidden
	case errors.Is(err, governance.ErrAlreadyVoted),
		errors.Is(err, governance.ErrAlreadyFinalized),
		errors.Is(err, governance.ErrVotingClosed),
		errors.Is(err, governance.ErrVotingStillOpen),
		errors.Is(err, registry.ErrStillActive):
		status = http.StatusConflict
	case errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance),
		errors.Is(err, token.ErrInvalidAmount),
		errors.Is(err, governance.ErrInvalidDuration),
		errors.Is(err, registry.ErrStakeTooLow),
		errors.Is(err, registry.ErrTooManyTags),
		errors.Is(err, reputation.ErrInvalidCategory):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"err": err.Error()})
}

// caller returns the authenticated address set by the JWT middleware.
func caller(c *gin.Context) string {
	return c.GetString("addr")
}
