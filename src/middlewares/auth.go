package middlewares

import (
	"crypto/subtle"
	"eventpass/src/types"
	"log"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// StaffAuth accepts HS256 staff tokens signed with secret. The scanner
// identity is the token username, falling back to its subject.
func StaffAuth(secret []byte) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		bearerToken := ctx.Request.Header.Get("Authorization")
		if !strings.HasPrefix(bearerToken, "Bearer ") {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		reqToken := strings.TrimSpace(strings.TrimPrefix(bearerToken, "Bearer "))
		if reqToken == "" || len(secret) == 0 {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		claims := &types.Claims{}
		tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !tkn.Valid {
			if err != nil {
				log.Printf("token error: %s\n", err.Error())
			}
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if claims.Role != types.ROLE_STAFF && claims.Role != types.ROLE_ADMIN {
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}
		scanner := claims.Username
		if scanner == "" {
			scanner = claims.Subject
		}
		ctx.Set("scanner", scanner)
		ctx.Set("username", claims.Username)
		ctx.Set("role", claims.Role)
		ctx.Set("perms", claims.Permissions)
	}
}

// RequireRole rejects callers whose token role is not one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !slices.Contains(roles, ctx.GetString("role")) {
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}
	}
}

// StaticToken requires "Bearer <token>" when token is set and lets every
// request through otherwise.
func StaticToken(token string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token == "" {
			return
		}
		got := strings.TrimPrefix(ctx.Request.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
	}
}
