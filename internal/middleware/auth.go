package middleware

import (
	"net/http"
	"strings"

	"github.com/mgfere/kinoa-rolls/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const ClaimsKey = "claims"

// JWTClaims son los claims propios de cada access token. Purpose solo viene
// en tokens de un solo uso (reset de contraseña); un access token nunca lo
// trae.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Rol      string `json:"rol"`
	Purpose  string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuth valida el Bearer token en toda ruta protegida.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}
		autenticar(c, strings.TrimPrefix(header, "Bearer "), secret)
	}
}

// JWTAuthWS autentica el handshake del websocket. El API de websocket del
// navegador no permite headers, asi que el token tambien se acepta por query
// string. La identidad sale siempre del token verificado; el cliente no
// puede declararla.
func JWTAuthWS(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
				token = strings.TrimPrefix(header, "Bearer ")
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}
		autenticar(c, token, secret)
	}
}

func autenticar(c *gin.Context, tokenStr, secret string) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
		return
	}
	// Los tokens de proposito especifico (reset de contraseña) no sirven
	// como credencial de sesion.
	if claims.Purpose != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
		return
	}
	c.Set(ClaimsKey, claims)
	c.Next()
}

// RequireRole rechaza solicitudes cuyo rol del JWT no este en la lista.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims, ok := c.MustGet(ClaimsKey).(*JWTClaims)
		if !ok || !allowed[claims.Rol] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
			return
		}
		c.Next()
	}
}

// GetClaims recupera los claims tipados del contexto de Gin.
func GetClaims(c *gin.Context) *JWTClaims {
	claims, _ := c.MustGet(ClaimsKey).(*JWTClaims)
	return claims
}

// GetUserID devuelve el UUID del usuario autenticado.
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	claims := GetClaims(c)
	if claims == nil {
		return uuid.Nil, jwt.ErrTokenMalformed
	}
	return uuid.Parse(claims.UserID)
}
