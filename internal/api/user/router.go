package user

import (
	"github.com/ZJUSCT/arena/internal/api"
	"github.com/ZJUSCT/arena/internal/config"
	"github.com/ZJUSCT/arena/internal/engine"
	"github.com/ZJUSCT/arena/internal/ledger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NewUserRouter creates and configures the user Gin engine.
func NewUserRouter(cfg *config.Config, db *gorm.DB, svc *engine.Service, l *ledger.Ledger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(api.CORSMiddleware(cfg.CORS))

	h := NewHandler(cfg, db, svc, l)
	secret := cfg.Auth.JWT.Secret

	v1 := r.Group("/api/v1")
	{
		v1.GET("/languages", h.getLanguages)

		// Public, the caller's own rank is included when a token is sent
		v1.GET("/contests/:contest/leaderboard", api.OptionalAuthMiddleware(secret), h.getLeaderboard)

		authed := v1.Group("/")
		authed.Use(api.AuthMiddleware(secret))
		{
			// :contest is the contest id for registration and the public
			// contest number everywhere else
			authed.POST("/contests/:contest/register", h.registerForContest)
			authed.POST("/contests/:contest/start", h.startProblem)
			authed.GET("/contests/:contest/timer", h.getTimer)
			authed.POST("/contests/:contest/submit", h.submitSolution)

			authed.GET("/wallet", h.getWallet)
		}
	}

	return r
}
