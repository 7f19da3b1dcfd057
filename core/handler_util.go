package core

import "github.com/gin-gonic/gin"

// respondError sends the error payload shape the clients expect: {"message": ...}.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}
