package admin

import (
	"github.com/ZJUSCT/arena/internal/api"
	"github.com/ZJUSCT/arena/internal/catalog"
	"github.com/ZJUSCT/arena/internal/config"
	"github.com/ZJUSCT/arena/internal/engine"
	"github.com/ZJUSCT/arena/internal/ledger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// NewAdminRouter creates and configures the admin Gin engine. It is served on
// its own listen address and carries no authentication of its own.
func NewAdminRouter(
	cfg *config.Config,
	db *gorm.DB,
	svc *engine.Service,
	scheduler *engine.Scheduler,
	problems *catalog.Store,
	l *ledger.Ledger) *gin.Engine {

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(api.CORSMiddleware(cfg.CORS))

	h := NewHandler(cfg, db, svc, scheduler, problems, l)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		// Management
		v1.POST("/reload", h.reload)
		v1.POST("/scheduler/run", h.runScheduler)

		// Contest Management
		contests := v1.Group("/contests")
		{
			contests.GET("", h.getAllContests)
			contests.POST("", h.createContest)
			contests.GET("/:id", h.getContest)
			contests.PATCH("/:id", h.updateContest)
			contests.DELETE("/:id", h.deleteContest)
			contests.POST("/:id/distribute", h.distributeRewards)
		}

		// User Management
		users := v1.Group("/users")
		{
			users.GET("/:id", h.getUser)
			users.PUT("/:id", h.upsertUser)
			users.GET("/:id/wallet", h.getUserWallet)
		}
	}

	return r
}
