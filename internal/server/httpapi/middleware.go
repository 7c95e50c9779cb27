package httpapi

import (
	"strings"

	"github.com/dmitrijs2005/socialid/internal/common"
	"github.com/dmitrijs2005/socialid/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// requireToken accepts "Authorization: Bearer <jwt>" or the access_token
// header and stores the token's user id on the gin context.
func (h *Handler) requireToken(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || token == "" {
		token = c.GetHeader(common.AccessTokenHeaderName)
	}
	if token == "" {
		h.fail(c, common.ErrorUnauthorized)
		return
	}

	userID, err := auth.GetUserIDFromToken(token, h.jwtSecret)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Set(userIDKey, userID)
	c.Next()
}
