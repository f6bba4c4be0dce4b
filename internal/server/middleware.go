package server

import (
	"fmt"
	"strings"

	"github.com/facturacr/facturacr/internal/companyctx"
	"github.com/gin-gonic/gin"
)

const sessionCookieName = "facturacr_session"

// sessionToken pulls the raw session token from the cookie or the
// Authorization header.
func sessionToken(c *gin.Context) string {
	if token, err := c.Cookie(sessionCookieName); err == nil && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token)
	}
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		session, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := c.Request.Context()
		ctx = companyctx.WithUserID(ctx, session.UserID)
		ctx = companyctx.WithCompanyID(ctx, session.CompanyID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) requirePermission(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID, ok := companyctx.UserIDFromContext(ctx)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		companyID, ok := companyctx.CompanyIDFromContext(ctx)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actor := fmt.Sprintf("user:%s", userID)
		if err := s.authzSvc.Authorize(ctx, actor, companyID.String(), object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
