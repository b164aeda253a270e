package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/pkg/models"
)

// listUsersLoans reports every user together with their loan history.
func listUsersLoans(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	results := make([]gin.H, len(users))
	for i, user := range users {
		userLoans, err := engine.LoansByUser(user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		results[i] = gin.H{
			"user": gin.H{
				"id":    user.ID,
				"email": user.Email,
			},
			"loans": loansJSON(userLoans),
		}
	}
	c.JSON(http.StatusOK, results)
}

func healthCheck(ctx *gin.Context) {
	sqlDB, err := db.DB()
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database connection failed",
			"error":   err.Error(),
		})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database ping failed",
			"error":   err.Error(),
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": "UP",
	})
}
