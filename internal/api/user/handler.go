package user

import (
	"github.com/ZJUSCT/arena/internal/config"
	"github.com/ZJUSCT/arena/internal/engine"
	"github.com/ZJUSCT/arena/internal/ledger"
	"gorm.io/gorm"
)

// Handler holds all dependencies for the user API handlers.
type Handler struct {
	cfg    *config.Config
	db     *gorm.DB
	svc    *engine.Service
	ledger *ledger.Ledger
}

// NewHandler creates a new user handler with its dependencies.
func NewHandler(cfg *config.Config, db *gorm.DB, svc *engine.Service, l *ledger.Ledger) *Handler {
	return &Handler{
		cfg:    cfg,
		db:     db,
		svc:    svc,
		ledger: l,
	}
}
