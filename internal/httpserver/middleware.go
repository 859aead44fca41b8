package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"offers-marketplace/internal/domain"
	"offers-marketplace/internal/metrics"
	accountsvc "offers-marketplace/internal/service/account"
)

type ctxKey string

const callerCtxKey ctxKey = "caller"

// callerMiddleware resolves the bearer token into a Caller. Requests without
// an Authorization header continue as anonymous; a bad token is rejected.
func callerMiddleware(auth AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := domain.Anonymous()
		if c.GetHeader("Authorization") != "" {
			token, ok := bearerToken(c)
			if !ok {
				abortDenied(c, http.StatusUnauthorized, "Authorization header must be a Bearer token.")
				return
			}
			account, err := auth.LookupByToken(c.Request.Context(), token)
			if errors.Is(err, accountsvc.ErrInvalidToken) {
				abortDenied(c, http.StatusUnauthorized, "Invalid or expired token.")
				return
			}
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": internalErrorDetail})
				return
			}
			caller = domain.CallerFor(account)
		}
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), callerCtxKey, caller))
		c.Next()
	}
}

func callerFrom(c *gin.Context) domain.Caller {
	if caller, ok := c.Request.Context().Value(callerCtxKey).(domain.Caller); ok {
		return caller
	}
	return domain.Anonymous()
}

func bearerToken(c *gin.Context) (string, bool) {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortDenied(c *gin.Context, status int, detail string) {
	metrics.RecordDenied(routeLabel(c), deniedReason(status))
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveRequest(c.Request.Method, routeLabel(c), strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}

func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

func deniedReason(status int) string {
	if status == http.StatusUnauthorized {
		return "unauthenticated"
	}
	return "forbidden"
}
