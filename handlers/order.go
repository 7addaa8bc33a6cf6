package handlers

import (
	"net/http"

	"github.com/ABH36/Machine-test/middleware"
	"github.com/ABH36/Machine-test/models"
	"github.com/ABH36/Machine-test/orders"
	"github.com/ABH36/Machine-test/policy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders *orders.Service
	logger *zap.Logger
}

func NewOrderHandler(orders *orders.Service, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	if !precheck(c, h.logger, policy.ActionPlaceOrder) {
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}

	order, err := h.orders.Place(c.Request.Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	list, err := h.orders.ListMine(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *OrderHandler) GetVendorOrders(c *gin.Context) {
	views, err := h.orders.ListForVendor(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	if !precheck(c, h.logger, policy.ActionSetOrderStatus) {
		return
	}

	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}

	order, err := h.orders.SetStatus(c.Request.Context(), middleware.PrincipalFrom(c), id, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
