package admin

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ZJUSCT/arena/internal/database"
	"github.com/ZJUSCT/arena/internal/database/models"
	"github.com/ZJUSCT/arena/internal/engine"
	"github.com/ZJUSCT/arena/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// adminID names the operator behind a request for the contest audit field.
func adminID(c *gin.Context) string {
	if id := c.GetHeader("X-Admin-User"); id != "" {
		return id
	}
	return "admin"
}

func (h *Handler) getAllContests(c *gin.Context) {
	contests, err := database.GetAllContests(h.db.WithContext(c.Request.Context()))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, contests, "Contests retrieved")
}

func (h *Handler) getContest(c *gin.Context) {
	contest, err := database.GetContestByID(h.db.WithContext(c.Request.Context()), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "contest not found")
			return
		}
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, contest, "Contest retrieved")
}

func (h *Handler) createContest(c *gin.Context) {
	var in engine.ContestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	contest, err := h.svc.CreateContest(c.Request.Context(), in, adminID(c))
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, contest, "Contest created")
}

func (h *Handler) updateContest(c *gin.Context) {
	var in engine.ContestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	contest, err := h.svc.UpdateContest(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, contest, "Contest updated")
}

func (h *Handler) deleteContest(c *gin.Context) {
	if err := h.svc.DeleteContest(c.Request.Context(), c.Param("id")); err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, nil, "Contest deleted")
}

func (h *Handler) distributeRewards(c *gin.Context) {
	result, err := h.svc.DistributeRewards(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.Fail(c, err)
		return
	}
	msg := "Rewards distributed"
	if !result.Distributed {
		msg = fmt.Sprintf("Rewards not distributed: %s", result.Reason)
	}
	util.Success(c, result, msg)
}

func (h *Handler) runScheduler(c *gin.Context) {
	summary := h.scheduler.RunOnce(c.Request.Context())
	util.Success(c, summary, "Lifecycle pass finished")
}

func (h *Handler) reload(c *gin.Context) {
	zap.S().Info("reloading problem catalog...")
	if err := h.problems.Reload(h.cfg.ProblemsRoot); err != nil {
		util.Error(c, http.StatusInternalServerError, fmt.Errorf("failed to reload problems: %w", err))
		return
	}
	util.Success(c, gin.H{"problems": h.problems.Len()}, "Problems reloaded")
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := database.GetUserByID(h.db.WithContext(c.Request.Context()), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "user not found")
			return
		}
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, user, "User retrieved")
}

func (h *Handler) upsertUser(c *gin.Context) {
	var req struct {
		Username  string `json:"username" binding:"required"`
		Nickname  string `json:"nickname"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	user := &models.User{
		ID:        c.Param("id"),
		Username:  req.Username,
		Nickname:  req.Nickname,
		AvatarURL: req.AvatarURL,
	}
	if user.Nickname == "" {
		user.Nickname = user.Username
	}
	if err := database.UpsertUser(h.db.WithContext(c.Request.Context()), user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.Error(c, http.StatusConflict, "username already exists")
			return
		}
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, user, "User saved")
}

func (h *Handler) getUserWallet(c *gin.Context) {
	userID := c.Param("id")
	balance, err := h.svc.Balance(c.Request.Context(), userID)
	if err != nil {
		util.Fail(c, err)
		return
	}
	history, err := h.ledger.History(h.db.WithContext(c.Request.Context()), userID)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, gin.H{"balance": balance, "transactions": history}, "Wallet retrieved")
}
