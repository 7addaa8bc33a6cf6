package handlers

import (
	"net/http"

	"github.com/ABH36/Machine-test/accounts"
	"github.com/ABH36/Machine-test/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	accounts *accounts.Service
	logger   *zap.Logger
}

func NewAdminHandler(accounts *accounts.Service, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{accounts: accounts, logger: logger}
}

func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.accounts.Stats(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) GetUsers(c *gin.Context) {
	users, err := h.accounts.ListUsers(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.accounts.DeleteUser(c.Request.Context(), middleware.PrincipalFrom(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User removed"})
}
