package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tutormatch/tutormatch-api/internal/middleware"
	"github.com/tutormatch/tutormatch-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// viewerID is the signed-in user id or "" for anonymous requests.
func viewerID(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
