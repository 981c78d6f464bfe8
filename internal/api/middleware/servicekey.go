package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// HeaderServiceKey carries the shared secret internal services present
// when calling machine-to-machine endpoints.
const HeaderServiceKey = "X-Service-Key"

// VerifyServiceKey guards internal endpoints with a bcrypt-hashed shared
// key. Only the hash lives in config.
func VerifyServiceKey(keyHash string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		key := ctx.GetHeader(HeaderServiceKey)
		if key == "" {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		ctx.Next()
	}
}
