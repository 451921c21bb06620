package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dayproof/dayproof/config"
	"github.com/dayproof/dayproof/utils"
)

// AdminRequired gates the verification and override surface to configured
// admin usernames. Must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		username := ctx.GetString(ContextUsernameKey)
		if username == "" || !isAdmin(username) {
			utils.Error(ctx, http.StatusForbidden, 40301, "admin access required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func isAdmin(username string) bool {
	for _, admin := range config.Get().AdminUsernames {
		if admin == username {
			return true
		}
	}
	return false
}
