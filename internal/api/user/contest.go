package user

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ZJUSCT/arena/internal/api"
	"github.com/ZJUSCT/arena/internal/database"
	"github.com/ZJUSCT/arena/internal/database/models"
	"github.com/ZJUSCT/arena/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func contestNumber(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("contest"))
	if err != nil || n <= 0 {
		util.Error(c, http.StatusBadRequest, fmt.Errorf("invalid contest number %q", c.Param("contest")))
		return 0, false
	}
	return n, true
}

func (h *Handler) getLanguages(c *gin.Context) {
	languages := make([]gin.H, 0, len(h.cfg.Judge.Languages))
	for _, l := range h.cfg.Judge.Languages {
		languages = append(languages, gin.H{"id": l.ID, "name": l.Name})
	}
	util.Success(c, languages, "Languages retrieved")
}

func (h *Handler) getLeaderboard(c *gin.Context) {
	number, ok := contestNumber(c)
	if !ok {
		return
	}
	board, err := h.svc.GetLeaderboard(c.Request.Context(), number, c.GetString(api.UserIDKey))
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, board, "Leaderboard retrieved")
}

// syncProfile keeps the display profile from the token so leaderboards can
// show names. Failures only cost the display name.
func (h *Handler) syncProfile(c *gin.Context) {
	username := c.GetString(api.UsernameKey)
	if username == "" {
		return
	}
	nickname := c.GetString(api.NicknameKey)
	if nickname == "" {
		nickname = username
	}
	user := &models.User{ID: c.GetString(api.UserIDKey), Username: username, Nickname: nickname}
	if err := database.UpsertUser(h.db.WithContext(c.Request.Context()), user); err != nil {
		zap.S().Warnf("failed to sync profile of user %s: %v", user.ID, err)
	}
}

func (h *Handler) registerForContest(c *gin.Context) {
	h.syncProfile(c)
	reg, err := h.svc.Register(c.Request.Context(), c.Param("contest"), c.GetString(api.UserIDKey))
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, reg, "Successfully registered for contest")
}

func (h *Handler) startProblem(c *gin.Context) {
	number, ok := contestNumber(c)
	if !ok {
		return
	}
	result, err := h.svc.StartProblem(c.Request.Context(), number, c.GetString(api.UserIDKey))
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, result, "Problem started")
}

func (h *Handler) getTimer(c *gin.Context) {
	number, ok := contestNumber(c)
	if !ok {
		return
	}
	timer, err := h.svc.Timer(c.Request.Context(), number, c.GetString(api.UserIDKey))
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, timer, "Timer retrieved")
}

func (h *Handler) submitSolution(c *gin.Context) {
	number, ok := contestNumber(c)
	if !ok {
		return
	}
	var req struct {
		SourceCode string `json:"source_code" binding:"required"`
		LanguageID string `json:"language_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	result, err := h.svc.SubmitSolution(c.Request.Context(), number, req.SourceCode, req.LanguageID, c.GetString(api.UserIDKey))
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, result, result.Message)
}

func (h *Handler) getWallet(c *gin.Context) {
	userID := c.GetString(api.UserIDKey)
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
