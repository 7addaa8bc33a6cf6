package handlers

import (
	"net/http"

	"github.com/ABH36/Machine-test/catalog"
	"github.com/ABH36/Machine-test/middleware"
	"github.com/ABH36/Machine-test/models"
	"github.com/ABH36/Machine-test/policy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProductHandler struct {
	catalog *catalog.Service
	logger  *zap.Logger
}

func NewProductHandler(catalog *catalog.Service, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, logger: logger}
}

func (h *ProductHandler) GetProducts(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	product, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) GetVendorProducts(c *gin.Context) {
	products, err := h.catalog.ListVendor(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	if !precheck(c, h.logger, policy.ActionCreateProduct) {
		return
	}

	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}

	product, err := h.catalog.Create(c.Request.Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	if !precheck(c, h.logger, policy.ActionUpdateProduct) {
		return
	}

	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}

	product, err := h.catalog.Update(c.Request.Context(), middleware.PrincipalFrom(c), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), middleware.PrincipalFrom(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product removed"})
}
