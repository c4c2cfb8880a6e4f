package util

import (
	"errors"
	"net/http"

	"github.com/ZJUSCT/arena/internal/arena"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Response struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

func Success(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Data:    data,
		Message: message,
	})
}

func Error(c *gin.Context, code int, err interface{}) {
	msg := ""
	switch e := err.(type) {
	case string:
		msg = e
	case error:
		msg = e.Error()
	default:
		msg = "Internal Server Error"
	}

	if code >= http.StatusInternalServerError {
		zap.S().Errorf("API Error: %s", msg)
	} else {
		zap.S().Warnf("API Error: %s", msg)
	}

	c.JSON(code, Response{
		Code:    -1,
		Data:    nil,
		Message: msg,
	})
}

// StatusOf maps an engine error to its HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, arena.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, arena.ErrStateConflict):
		return http.StatusConflict
	case errors.Is(err, arena.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, arena.ErrExternal):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Fail writes err with the status its error class maps to. Unclassified
// errors are reported without their details.
func Fail(c *gin.Context, err error) {
	code := StatusOf(err)
	if code == http.StatusInternalServerError {
		zap.S().Errorf("internal error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		Error(c, code, "internal server error")
		return
	}
	Error(c, code, err)
}
