package http

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/goatnetwork/solver-vault/internal/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	headerRequestID = "X-Request-Id"
	keyRequestID    = "request_id"
	keyCaller       = "caller"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(keyRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// bearerAuth verifies an HS256 token and takes the caller address from its subject
func (hs *HTTPServer) bearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(hs.secret) == 0 {
			abortWithError(c, http.StatusUnauthorized, "api authentication is not configured")
			return
		}
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || raw == "" {
			abortWithError(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
			return hs.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			log.Debugf("Reject bearer token: %v", err)
			abortWithError(c, http.StatusUnauthorized, "invalid bearer token")
			return
		}
		subject, err := token.Claims.GetSubject()
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "invalid token subject")
			return
		}
		caller, err := types.ParseAddress(subject)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "token subject is not an address")
			return
		}
		c.Set(keyCaller, caller)
		c.Next()
	}
}

func callerOf(c *gin.Context) common.Address {
	caller, _ := c.MustGet(keyCaller).(common.Address)
	return caller
}

// NewAPIToken signs a bearer token for caller, used by operators and tests
func NewAPIToken(secret string, caller common.Address, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = caller.Hex()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
