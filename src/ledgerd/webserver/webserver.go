package webserver

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/cortexmarket/cortex-ledger/src/core"
	"github.com/cortexmarket/cortex-ledger/src/ledgerd/config"
)

// New builds the HTTP operation surface over the ledger facade.
func New(cfg config.Config, ledger *core.Ledger, rdb *redis.Client) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	g.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))
	attachRoutes(g, cfg, ledger, rdb)
	return g
}

func attachRoutes(g *gin.Engine, cfg config.Config, ledger *core.Ledger, rdb *redis.Client) {
	secret := []byte(cfg.JWTSecret)
	auth := NewAuth(rdb, secret)
	accounts := NewAccounts(ledger)
	rep := NewReputation(ledger)
	gov := NewGovernance(ledger)
	models := NewRegistry(ledger)

	limiter := NewRateLimiter(60, time.Minute)

	v1 := g.Group("/v1")
	{
		v1.POST("/auth/challenge", auth.Challenge)
		v1.POST("/auth/verify", auth.Verify)

		// Read operations are public: they never fail on business grounds,
		// only on not-found.
		v1.GET("/supply", accounts.Supply)
		v1.GET("/accounts/:addr/balance", accounts.Balance)
		v1.GET("/accounts/:addr/staked/:purpose", accounts.Staked)
		v1.GET("/accounts/:addr/allowance/:spender", accounts.AllowanceOf)
		v1.GET("/accounts/:addr/models", models.ByOwner)
		v1.GET("/reputation/:addr", rep.Get)
		v1.GET("/proposals/count", gov.Count)
		v1.GET("/proposals/:id", gov.Get)
		v1.GET("/proposals/:id/voted/:addr", gov.HasVoted)
		v1.GET("/models/count", models.Count)
		v1.GET("/models/:id", models.Get)

		secured := v1.Group("")
		secured.Use(JWT(secret), RateLimitMiddleware(limiter))
		{
			secured.POST("/mint", accounts.Mint)
			secured.POST("/transfer", accounts.Transfer)
			secured.POST("/approve", accounts.Approve)
			secured.POST("/transfer-from", accounts.TransferFrom)
			secured.POST("/stake", accounts.Stake)
			secured.POST("/unstake", accounts.Unstake)

			secured.POST("/reputation", rep.Update)

			secured.POST("/proposals", gov.Submit)
			secured.POST("/proposals/:id/vote", gov.Vote)
			secured.POST("/proposals/:id/execute", gov.Execute)

			secured.POST("/models", models.Register)
			secured.POST("/models/:id/toggle", models.Toggle)
			secured.POST("/models/:id/purchase", models.Purchase)
			secured.POST("/models/:id/deregister", models.Deregister)
		}
	}
}
