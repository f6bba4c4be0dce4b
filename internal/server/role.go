package server

import (
	"net/http"
	"strings"

	"github.com/facturacr/facturacr/internal/companyctx"
	"github.com/gin-gonic/gin"
)

type roleInfo struct {
	Name        string      `json:"name"`
	Permissions [][2]string `json:"permissions"`
}

type assignRoleRequest struct {
	Role string `json:"role"`
}

func (s *Server) ListRoles(c *gin.Context) {
	roles := make([]roleInfo, 0, 3)
	for _, name := range s.authzSvc.Roles() {
		perms, err := s.authzSvc.PermissionsForRole(name)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		roles = append(roles, roleInfo{Name: name, Permissions: perms})
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"roles": roles}})
}

func (s *Server) GetUserRoles(c *gin.Context) {
	companyID, ok := companyctx.CompanyIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	userID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	roles, err := s.authzSvc.RolesForUser(c.Request.Context(), companyID.String(), userID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"roles": roles}})
}

func (s *Server) AssignUserRole(c *gin.Context) {
	companyID, ok := companyctx.CompanyIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	userID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Role) == "" {
		AbortWithError(c, newValidationError("role", "role_required", "role is required"))
		return
	}

	if err := s.authzSvc.AssignRole(c.Request.Context(), companyID.String(), userID.String(), req.Role); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) RevokeUserRole(c *gin.Context) {
	companyID, ok := companyctx.CompanyIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	userID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	role := strings.TrimSpace(c.Query("role"))
	if role == "" {
		var req assignRoleRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				AbortWithError(c, invalidRequestError())
				return
			}
		}
		role = strings.TrimSpace(req.Role)
	}
	if role == "" {
		AbortWithError(c, newValidationError("role", "role_required", "role is required"))
		return
	}

	if err := s.authzSvc.RevokeRole(c.Request.Context(), companyID.String(), userID.String(), role); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
