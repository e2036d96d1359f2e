package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes payload with status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload any) { JSON(c, http.StatusOK, payload) }

func Created(c *gin.Context, payload any) { JSON(c, http.StatusCreated, payload) }

// Accepted reports work queued for later completion.
func Accepted(c *gin.Context, payload any) { JSON(c, http.StatusAccepted, payload) }
