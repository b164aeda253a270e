package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"library-backend/pkg/models"
)

// Identity is resolved upstream (token validation, password checks); this
// service trusts the X-User-Id header the gateway sets and only looks the
// user up for role and activity checks.

func currentUser(c *gin.Context) (*models.User, bool) {
	idStr := c.GetHeader("X-User-Id")
	if idStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-User-Id header is required"})
		return nil, false
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid X-User-Id header"})
		return nil, false
	}

	var user models.User
	if err := db.First(&user, uint(id)).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return nil, false
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "user is inactive"})
		return nil, false
	}
	return &user, true
}

func requireAdmin(c *gin.Context) (*models.User, bool) {
	user, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	if !user.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return nil, false
	}
	return user, true
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}
