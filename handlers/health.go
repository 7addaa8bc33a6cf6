package handlers

import (
	"net/http"

	"github.com/ABH36/Machine-test/config"

	"github.com/gin-gonic/gin"
)

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": config.ServiceName,
		"status":  "healthy",
	})
}
