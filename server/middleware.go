package server

import (
	"net/http"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/techagentng/chatline/errors"
	"github.com/techagentng/chatline/server/response"
	"github.com/techagentng/chatline/services/jwt"
)

// Authorize resolves the principal from the bearer token and threads it into
// the request context. Every engine call downstream receives the resolved id
// explicitly; nothing reads ambient authentication state.
func (s *Server) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := getTokenFromHeader(c)
		if accessToken == "" {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.New("unauthorized", http.StatusUnauthorized))
			return
		}

		if s.AuthRepository.IsTokenInBlacklist(accessToken) {
			respondAndAbort(c, "access token is revoked", http.StatusUnauthorized, nil, errs.New("unauthorized", http.StatusUnauthorized))
			return
		}

		claims, err := jwt.ValidateAndGetClaims(accessToken, s.Config.JWTSecret)
		if err != nil {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.New("unauthorized", http.StatusUnauthorized))
			return
		}

		userID, err := jwt.UserIDFromClaims(claims)
		if err != nil {
			respondAndAbort(c, "", http.StatusBadRequest, nil, errs.New("invalid user id in token", http.StatusBadRequest))
			return
		}

		user, ferr := s.AuthRepository.FindUserByID(userID)
		if ferr != nil {
			respondAndAbort(c, "user not found", http.StatusUnauthorized, nil, errs.New("unauthorized", http.StatusUnauthorized))
			return
		}

		c.Set("user", user)
		c.Set("userID", userID)
		c.Set("access_token", accessToken)
		c.Set("username", user.Username)
		c.Next()
	}
}

// currentUserID returns the principal the Authorize middleware resolved.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("userID")
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := v.(uuid.UUID)
	return userID, ok
}

func getTokenFromHeader(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		// Browsers cannot set headers on websocket dials, so the token may
		// arrive as a query parameter instead.
		return c.Query("token")
	}
	splitTokenArray := strings.Split(authHeader, " ")
	if len(splitTokenArray) > 1 {
		return splitTokenArray[1]
	}
	return authHeader
}

func respondAndAbort(c *gin.Context, message string, status int, data interface{}, e *errs.Error) {
	response.JSON(c, message, status, data, e)
	c.Abort()
}

func limitRateForLogin(store ratelimit.Store) gin.HandlerFunc {
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: errs.ErrorHandler,
		KeyFunc:      keyFunc,
	})
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func newLoginRateStore() ratelimit.Store {
	return ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 10,
	})
}
