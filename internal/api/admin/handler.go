package admin

import (
	"github.com/ZJUSCT/arena/internal/catalog"
	"github.com/ZJUSCT/arena/internal/config"
	"github.com/ZJUSCT/arena/internal/engine"
	"github.com/ZJUSCT/arena/internal/ledger"
	"gorm.io/gorm"
)

// Handler holds all dependencies for the admin API handlers.
type Handler struct {
	cfg       *config.Config
	db        *gorm.DB
	svc       *engine.Service
	scheduler *engine.Scheduler
	problems  *catalog.Store
	ledger    *ledger.Ledger
}

// NewHandler creates a new admin handler with its dependencies.
func NewHandler(
	cfg *config.Config,
	db *gorm.DB,
	svc *engine.Service,
	scheduler *engine.Scheduler,
	problems *catalog.Store,
	l *ledger.Ledger,
) *Handler {
	return &Handler{
		cfg:       cfg,
		db:        db,
		svc:       svc,
		scheduler: scheduler,
		problems:  problems,
		ledger:    l,
	}
}
