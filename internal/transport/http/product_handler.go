package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/shop/internal/service/product"
)

// ProductHandler обслуживает каталог товаров.
type ProductHandler struct {
	products *product.Service
}

// NewProductHandler создаёт обработчик каталога.
func NewProductHandler(products *product.Service) *ProductHandler {
	return &ProductHandler{products: products}
}

// RegisterRoutes регистрирует маршруты каталога.
func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/products")
	{
		group.GET("", h.list)
		group.GET("/:id", h.get)
		group.POST("", h.create)
		group.PATCH("/:id", h.update)
		group.DELETE("/:id", h.remove)
	}
}

type productRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	PriceMinor  int64  `json:"priceMinor"`
	Stock       int32  `json:"stock"`
}

func (h *ProductHandler) list(c *gin.Context) {
	page := parsePage(c)

	result, err := h.products.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]productDTO, 0, len(result.Data))
	for _, p := range result.Data {
		data = append(data, toProductDTO(p))
	}
	c.JSON(http.StatusOK, productPageDTO{Data: data, Meta: result.Meta})
}

func (h *ProductHandler) get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	found, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductDTO(found))
}

func (h *ProductHandler) create(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	created, err := h.products.Create(c.Request.Context(), principal, product.Input{
		Name:        req.Name,
		Description: req.Description,
		PriceMinor:  req.PriceMinor,
		Stock:       req.Stock,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductDTO(created))
}

func (h *ProductHandler) update(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	updated, err := h.products.Update(c.Request.Context(), principal, id, product.Input{
		Name:        req.Name,
		Description: req.Description,
		PriceMinor:  req.PriceMinor,
		Stock:       req.Stock,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductDTO(updated))
}

func (h *ProductHandler) remove(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	deleted, err := h.products.Delete(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductDTO(deleted))
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondBadRequest(c, "invalid "+name+" parameter")
		return 0, false
	}
	return id, true
}

func parsePage(c *gin.Context) int {
	raw := c.DefaultQuery("page", "1")
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
