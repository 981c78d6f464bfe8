package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tripsell/rewards-api/internal/pkg/jwthelper"
)

// ContextKeyClaims is where VerifyJWT stores the parsed token claims.
const ContextKeyClaims = "claims"

type Authenticator struct {
	signingKey []byte
}

func NewAuthenticator(signingKey string) *Authenticator {
	return &Authenticator{
		signingKey: []byte(signingKey),
	}
}

func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if header == "" {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims, err := jwthelper.ParseToken(a.signingKey, token)
		if err != nil {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		ctx.Set(ContextKeyClaims, claims)
		ctx.Next()
	}
}

// RequireAdmin must run after VerifyJWT.
func (a *Authenticator) RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, ok := GetClaims(ctx)
		if !ok || claims.Role != jwthelper.RoleAdmin {
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}

		ctx.Next()
	}
}

func GetClaims(ctx *gin.Context) (*jwthelper.Claims, bool) {
	value, exists := ctx.Get(ContextKeyClaims)
	if !exists {
		return nil, false
	}

	claims, ok := value.(*jwthelper.Claims)
	return claims, ok
}
